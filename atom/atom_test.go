package atom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtom_StringAndLookup(t *testing.T) {
	tests := []struct {
		atom Atom
		name string
	}{
		{Body, "body"},
		{P, "p"},
		{H1, "h1"},
		{H6, "h6"},
		{Blockquote, "blockquote"},
		{Verb, "verb"},
		{Href, "href"},
		{Citation, "citation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.atom.String())

			got, ok := Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.atom, got)
		})
	}
}

func TestAtom_Heading(t *testing.T) {
	assert.Equal(t, H1, Heading(1))
	assert.Equal(t, H6, Heading(6))
	assert.Panics(t, func() { Heading(0) })
	assert.Panics(t, func() { Heading(7) })
}

func TestAtom_Identity(t *testing.T) {
	// Equality is by integer value, not by any text comparison: two
	// differently-obtained Atoms for the same name must compare equal and
	// a changed-in-place string would not affect it (there is nothing to
	// mutate, which is the point).
	a, ok := Lookup("p")
	require.True(t, ok)
	assert.Equal(t, P, a)
	assert.NotEqual(t, P, B)
}

func TestAtom_IsTagIsAttr(t *testing.T) {
	assert.True(t, Body.IsTag())
	assert.False(t, Body.IsAttr())
	assert.True(t, Href.IsAttr())
	assert.False(t, Href.IsTag())
	assert.False(t, Citation.IsTag())
	assert.False(t, Citation.IsAttr())
}

func TestAtom_LookupUnknown(t *testing.T) {
	_, ok := Lookup("section")
	assert.False(t, ok)
}
