package htmlrender_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikicreole/creole"
	"github.com/wikicreole/creole/render/htmlrender"
)

func TestRenderer_BoldAndLink(t *testing.T) {
	p := creole.New(creole.WithWikiURL("wiki", "/w/"))
	r := htmlrender.New(p)
	r.Title = "Test & <Title>"

	require.NoError(t, p.ParseDocument([]byte("**bold** [[wiki:Home|Home]]")))

	out, err := r.String()
	require.NoError(t, err)

	assert.Contains(t, out, "<title>Test &amp; &lt;Title&gt;</title>")
	assert.Contains(t, out, "<b>bold</b>")
	assert.Contains(t, out, `href="/w/Home"`)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
}

func TestRenderer_EscapesCharacterData(t *testing.T) {
	p := creole.New()
	r := htmlrender.New(p)

	require.NoError(t, p.ParseDocument([]byte("a < b & c")))

	out, err := r.String()
	require.NoError(t, err)
	assert.Contains(t, out, "a &lt; b &amp; c")
}
