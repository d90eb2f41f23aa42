// Package atom provides canonical, identity-comparable names for the
// closed set of element tags and attribute names the creole tree builder
// emits. An Atom is a small integer rather than a string, so comparing two
// atoms for equality is a single integer comparison instead of a byte
// comparison, mirroring the pointer-equality trick of the original C++
// Atom class and the table design of golang.org/x/net/html/atom.
package atom

// Atom is a canonical name for a Creole element or attribute. The zero
// value is not a valid atom.
type Atom uint8

// Element tags.
const (
	Body Atom = 1 + iota
	Pre
	H1
	H2
	H3
	H4
	H5
	H6
	P
	Blockquote
	Hr
	A
	Img
	B
	I
	Tt
	Sup
	Sub
	U
	Verb
	Br
	Table
	Tr
	Th
	Td
	Ul
	Ol
	Li
	Dl
	Dt
	Dd
)

// Attribute names.
const (
	Href Atom = iota + 64
	Src
	Alt
	Width
	Height
	Class
)

// Citation is the sentinel value used as a class attribute value, not a
// tag or attribute name, but it is interned the same way for consistency
// with the original's Atom table.
const Citation Atom = 128

// Heading returns the heading atom for the given level, which must be in
// [1, 6].
func Heading(level int) Atom {
	if level < 1 || level > 6 {
		panic("atom: heading level out of range")
	}
	return H1 + Atom(level-1)
}

var names = map[Atom]string{
	Body:       "body",
	Pre:        "pre",
	H1:         "h1",
	H2:         "h2",
	H3:         "h3",
	H4:         "h4",
	H5:         "h5",
	H6:         "h6",
	P:          "p",
	Blockquote: "blockquote",
	Hr:         "hr",
	A:          "a",
	Img:        "img",
	B:          "b",
	I:          "i",
	Tt:         "tt",
	Sup:        "sup",
	Sub:        "sub",
	U:          "u",
	Verb:       "verb",
	Br:         "br",
	Table:      "table",
	Tr:         "tr",
	Th:         "th",
	Td:         "td",
	Ul:         "ul",
	Ol:         "ol",
	Li:         "li",
	Dl:         "dl",
	Dt:         "dt",
	Dd:         "dd",

	Href:   "href",
	Src:    "src",
	Alt:    "alt",
	Width:  "width",
	Height: "height",
	Class:  "class",

	Citation: "citation",
}

var byName map[string]Atom

func init() {
	byName = make(map[string]Atom, len(names))
	for a, s := range names {
		byName[s] = a
	}
}

// String returns the canonical text of the atom, or "" if a is not a
// member of the closed atom set.
func (a Atom) String() string {
	return names[a]
}

// Valid reports whether a is a member of the closed atom set.
func (a Atom) Valid() bool {
	_, ok := names[a]
	return ok
}

// IsTag reports whether a names an element tag rather than an attribute
// or the citation value.
func (a Atom) IsTag() bool {
	return a >= Body && a <= Dd
}

// IsAttr reports whether a names an attribute.
func (a Atom) IsAttr() bool {
	return a >= Href && a <= Class
}

// Lookup returns the atom whose canonical text equals name, and whether
// one was found. This is the inverse of String, for callers (such as the
// tests) that need to round-trip a name back into an Atom.
func Lookup(name string) (Atom, bool) {
	a, ok := byName[name]
	return a, ok
}
