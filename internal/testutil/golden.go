// Package testutil provides shared test helpers for the FIRRTL Go tests.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CorpusDir is the corpus location relative to the module root.
const CorpusDir = "testdata"

// Sample is one .fir file from the corpus.
type Sample struct {
	Name   string
	Path   string
	Source string
	// Golden is the expected formatter output, empty when the sample has no
	// .golden file next to it.
	Golden string
	Expect *Expectation
}

// Expectation is read from a leading "; expect: CODE message" comment and
// marks a sample that must fail.
type Expectation struct {
	Code    string
	Message string
}

// Root returns the module root by walking up from the working directory to
// the nearest go.mod.
func Root() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found")
		}
		dir = parent
	}
}

// CorpusPath returns the absolute path of a corpus subdirectory.
func CorpusPath(sub string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, CorpusDir, sub), nil
}

// LoadCorpus loads every .fir file in dir, sorted by name.
func LoadCorpus(dir string) ([]Sample, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.fir"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	samples := make([]Sample, 0, len(paths))
	for _, path := range paths {
		s, err := LoadSample(path)
		if err != nil {
			return nil, err
		}
		samples = append(samples, *s)
	}
	return samples, nil
}

// LoadSample reads one .fir file and its optional .golden companion.
func LoadSample(path string) (*Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Sample{
		Name:   strings.TrimSuffix(filepath.Base(path), ".fir"),
		Path:   path,
		Source: string(data),
		Expect: parseExpectation(string(data)),
	}

	golden, err := os.ReadFile(strings.TrimSuffix(path, ".fir") + ".golden")
	switch {
	case err == nil:
		s.Golden = string(golden)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	return s, nil
}

func parseExpectation(source string) *Expectation {
	line, _, _ := strings.Cut(source, "\n")
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "; expect:")
	if !ok {
		return nil
	}
	code, msg, _ := strings.Cut(strings.TrimSpace(rest), " ")
	return &Expectation{Code: code, Message: strings.TrimSpace(msg)}
}
