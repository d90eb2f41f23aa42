// Package htmlrender is a collaborator that turns a creole.Parser's
// begin/end/characters events into an HTML document. It is not part of the
// core parser: it subscribes to the event-sink interface the same way any
// other consumer (a renderer, an indexer, a link checker) would.
package htmlrender

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"

	"github.com/wikicreole/creole"
	"github.com/wikicreole/creole/atom"
)

// htmlTag maps an atom that has no direct HTML5 equivalent (the inline
// verbatim element) onto the tag used for serialisation. Every other atom's
// String() is already a valid HTML tag name.
var htmlTag = map[atom.Atom]string{
	atom.Verb: "tt",
}

func tagName(a atom.Atom) string {
	if name, ok := htmlTag[a]; ok {
		return name
	}
	return a.String()
}

var attrName = map[atom.Atom]string{
	atom.Href:   "href",
	atom.Src:    "src",
	atom.Alt:    "alt",
	atom.Width:  "width",
	atom.Height: "height",
	atom.Class:  "class",
}

// Renderer builds an etree.Document mirroring the event stream and
// serialises it as an HTML5 document. It is grounded on the same pattern
// chtml/component.go uses to assemble a structured tree before rendering,
// rather than concatenating strings as events arrive.
type Renderer struct {
	// Title is used for the document's <title>, escaped independently of
	// the etree tree (see String).
	Title string

	doc   *etree.Document
	stack []*etree.Element
}

// New constructs a Renderer and wires it to p. The Renderer attaches its own
// handlers, so it is an error to also set start/end/characters handlers on p
// after calling New.
func New(p *creole.Parser) *Renderer {
	r := &Renderer{doc: etree.NewDocument()}
	p.SetStartElementHandler(r.start)
	p.SetEndElementHandler(r.end)
	p.SetCharactersHandler(r.chars)
	return r
}

func (r *Renderer) start(tag atom.Atom, attrs []creole.Attribute) {
	var el *etree.Element
	if len(r.stack) == 0 {
		el = r.doc.CreateElement(tagName(tag))
	} else {
		el = r.stack[len(r.stack)-1].CreateElement(tagName(tag))
	}
	for _, a := range attrs {
		name, ok := attrName[a.Name]
		if !ok {
			name = a.Name.String()
		}
		el.CreateAttr(name, a.Value)
	}
	r.stack = append(r.stack, el)
}

func (r *Renderer) end(atom.Atom) {
	if len(r.stack) == 0 {
		return
	}
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *Renderer) chars(text []byte) {
	if len(r.stack) == 0 {
		return
	}
	// etree escapes CharData itself on write, so the raw bytes go in
	// unescaped here; see DESIGN.md for why html.EscapeString is not also
	// applied to this path.
	r.stack[len(r.stack)-1].CreateText(string(text))
}

// String serialises the accumulated tree as a complete HTML5 document.
func (r *Renderer) String() (string, error) {
	var body strings.Builder
	r.doc.WriteSettings.CanonicalText = false
	if _, err := r.doc.WriteTo(&body); err != nil {
		return "", fmt.Errorf("htmlrender: serialise body: %w", err)
	}

	var out strings.Builder
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	// The title sits outside the etree tree entirely, so it is escaped
	// directly with html.EscapeString rather than relying on etree.
	out.WriteString(html.EscapeString(r.Title))
	out.WriteString("</title>\n</head>\n")
	out.WriteString(body.String())
	out.WriteString("\n</html>\n")
	return out.String(), nil
}

// WriteTo writes the serialised document to w.
func (r *Renderer) WriteTo(w io.Writer) (int64, error) {
	s, err := r.String()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, s)
	return int64(n), err
}
