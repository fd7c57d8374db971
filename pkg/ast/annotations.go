package ast

import "github.com/tidwall/gjson"

// Annotations is the raw JSON array of a %[...] block, brackets included.
// Only the envelope is checked; the contents are not interpreted.
type Annotations string

// Valid reports whether the text is a well-formed JSON array.
func (a Annotations) Valid() bool {
	if a == "" || !gjson.Valid(string(a)) {
		return false
	}
	return gjson.Parse(string(a)).IsArray()
}

// Len returns the number of annotation objects.
func (a Annotations) Len() int {
	if !a.Valid() {
		return 0
	}
	return len(gjson.Parse(string(a)).Array())
}

// Classes returns the "class" member of each annotation in order, skipping
// entries that have none.
func (a Annotations) Classes() []string {
	if !a.Valid() {
		return nil
	}
	var out []string
	for _, r := range gjson.Get(string(a), "#.class").Array() {
		out = append(out, r.String())
	}
	return out
}
