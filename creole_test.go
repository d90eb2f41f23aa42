package creole_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikicreole/creole"
	"github.com/wikicreole/creole/atom"
)

// event is a single begin/end/characters call recorded by a Parser during
// a test, flattened into one comparable shape so expectations can be
// written as plain struct literals.
type event struct {
	kind  string // "start", "end", or "chars"
	tag   string
	attrs []creole.Attribute
	text  string
}

func recordEvents(t *testing.T, opts ...creole.Option) (*creole.Parser, *[]event) {
	t.Helper()
	var events []event
	p := creole.New(opts...)
	p.SetStartElementHandler(func(tag atom.Atom, attrs []creole.Attribute) {
		events = append(events, event{kind: "start", tag: tag.String(), attrs: append([]creole.Attribute(nil), attrs...)})
	})
	p.SetEndElementHandler(func(tag atom.Atom) {
		events = append(events, event{kind: "end", tag: tag.String()})
	})
	p.SetCharactersHandler(func(text []byte) {
		events = append(events, event{kind: "chars", text: string(text)})
	})
	return p, &events
}

func start(tag string, attrs ...creole.Attribute) event {
	return event{kind: "start", tag: tag, attrs: attrs}
}

func end(tag string) event { return event{kind: "end", tag: tag} }

func chars(text string) event { return event{kind: "chars", text: text} }

func attr(name atom.Atom, value string) creole.Attribute {
	return creole.Attribute{Name: name, Value: value}
}

// body wraps a slice of events in the begin(body)/end(body) pair every
// ParseDocument call produces.
func body(inner ...event) []event {
	out := []event{start("body")}
	out = append(out, inner...)
	out = append(out, end("body"))
	return out
}

func TestParseDocument_GoldenScenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []event
	}{
		{
			name: "heading",
			in:   "= Hi =",
			want: body(start("h1"), chars("Hi"), end("h1")),
		},
		{
			name: "bold and italic",
			in:   "**bold** //it//",
			want: body(
				start("p"),
				start("b"), chars("bold"), end("b"),
				chars(" "),
				start("i"), chars("it"), end("i"),
				end("p"),
			),
		},
		{
			name: "nested lists",
			in:   "* a\n** b\n* c",
			want: body(
				start("ul"),
				start("li"), chars("a "),
				start("ul"),
				start("li"), chars("b "), end("li"),
				end("ul"),
				end("li"),
				start("li"), chars("c"), end("li"),
				end("ul"),
			),
		},
		{
			name: "table",
			in:   "|=H1|=H2\n|a|b",
			want: body(
				start("table"),
				start("tr"), start("th"), chars("H1"), end("th"), start("th"), chars("H2"), end("th"), end("tr"),
				start("tr"), start("td"), chars("a"), end("td"), start("td"), chars("b"), end("td"), end("tr"),
				end("table"),
			),
		},
		{
			name: "wiki link with URL mapping",
			in:   "[[wiki:Home|Home]]",
			want: body(
				start("p"),
				start("a", attr(atom.Href, "/w/Home")),
				chars("Home"),
				end("a"),
				end("p"),
			),
		},
		{
			name: "sized image",
			in:   "{{pic.png?50x60|alt}}",
			want: body(
				start("p"),
				start("img", attr(atom.Src, "pic.png"), attr(atom.Width, "50"), attr(atom.Height, "60"), attr(atom.Alt, "alt")),
				end("img"),
				end("p"),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, events := recordEvents(t, creole.WithWikiURL("wiki", "/w/"))
			err := p.ParseDocument([]byte(tt.in))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, *events, cmp.AllowUnexported(event{})); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDocument_EmptyInputStillWrapsBody(t *testing.T) {
	p, events := recordEvents(t)
	require.NoError(t, p.ParseDocument(nil))
	assert.Equal(t, []event{start("body"), end("body")}, *events)
}

func TestParseDocument_CRLFIdempotence(t *testing.T) {
	lf, lfEvents := recordEvents(t)
	require.NoError(t, lf.ParseDocument([]byte("para one\n\npara two")))

	crlf, crlfEvents := recordEvents(t)
	require.NoError(t, crlf.ParseDocument([]byte("para one\r\n\r\npara two")))

	assert.Equal(t, *lfEvents, *crlfEvents)
}

func TestParseDocument_WellNested(t *testing.T) {
	p, events := recordEvents(t)
	require.NoError(t, p.ParseDocument([]byte("* a\n** b\n*** c\n* d\n\n**x** //y//")))

	var depth int
	for _, e := range *events {
		switch e.kind {
		case "start":
			depth++
		case "end":
			depth--
			require.GreaterOrEqual(t, depth, 0, "end event without matching start")
		}
	}
	assert.Zero(t, depth, "all opened elements must be closed")
}

func TestParsePluginText_DepthCapReturnsBadInput(t *testing.T) {
	var called int
	p := creole.New(creole.WithMaxPluginDepth(2))
	p.SetPluginHandler(func(p *creole.Parser, body []byte) error {
		called++
		return p.ParsePluginText([]byte("<<recurse>>"))
	})

	err := p.ParseDocument([]byte("<<recurse>>"))
	require.Error(t, err)
	assert.Equal(t, creole.ErrorCodeBadInput, creole.CodeOf(err))
	assert.LessOrEqual(t, called, 3)
}

func TestParsePluginText_WeavesIntoSurroundingDocument(t *testing.T) {
	p, events := recordEvents(t)
	p.SetPluginHandler(func(p *creole.Parser, body []byte) error {
		return p.ParsePluginText([]byte(fmt.Sprintf("**%s**", body)))
	})
	require.NoError(t, p.ParseDocument([]byte("before <<shout hi>> after")))

	want := body(
		start("p"),
		chars("before "),
		start("b"), chars("shout hi"), end("b"),
		chars(" after"),
		end("p"),
	)
	if diff := cmp.Diff(want, *events, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePluginText_PreservesBOLAcrossReentry(t *testing.T) {
	p, events := recordEvents(t)
	p.SetPluginHandler(func(p *creole.Parser, body []byte) error {
		return p.ParsePluginText([]byte("inner"))
	})
	// The plugin's re-entrant parse of "inner" must not leave atBOL stuck
	// mid-line: the list on the following line still has to be recognized.
	require.NoError(t, p.ParseDocument([]byte("<<shout>>\n* item")))

	got := *events
	assert.Contains(t, got, start("ul"))
	assert.Contains(t, got, start("li"))
	assert.Contains(t, got, chars("item"))
}

func TestParsePluginText_PlaceholderDoesNotReenter(t *testing.T) {
	p, events := recordEvents(t)
	var gotBody string
	p.SetPlaceholderHandler(func(p *creole.Parser, body []byte) error {
		gotBody = string(body)
		return nil
	})
	require.NoError(t, p.ParseDocument([]byte("before <<<raw stuff>>> after")))

	assert.Equal(t, "raw stuff", gotBody)
	want := body(start("p"), chars("before "), chars(" after"), end("p"))
	if diff := cmp.Diff(want, *events, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestFeatures_BaseDialectDisablesAdditions(t *testing.T) {
	p, events := recordEvents(t, creole.WithFeatures(creole.FeatureBase10))
	require.NoError(t, p.ParseDocument([]byte("##code##")))

	want := body(start("p"), chars("##code##"), end("p"))
	assert.Equal(t, want, *events)
}

func TestDefinitionList(t *testing.T) {
	p, events := recordEvents(t)
	require.NoError(t, p.ParseDocument([]byte(";term:definition")))

	want := body(
		start("dl"),
		start("dt"), chars("term"), end("dt"),
		start("dd"), chars("definition"), end("dd"),
		end("dl"),
	)
	if diff := cmp.Diff(want, *events, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestIndentedCitation(t *testing.T) {
	p, events := recordEvents(t)
	require.NoError(t, p.ParseDocument([]byte(`:"quoted text`)))

	want := body(
		start("blockquote", attr(atom.Class, "citation")),
		chars(`"quoted text`),
		end("blockquote"),
	)
	if diff := cmp.Diff(want, *events, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestFreeURL(t *testing.T) {
	p, events := recordEvents(t)
	require.NoError(t, p.ParseDocument([]byte("see http://example.com.")))

	want := body(
		start("p"),
		chars("see "),
		start("a", attr(atom.Href, "http://example.com")),
		chars("http://example.com"),
		end("a"),
		chars("."),
		end("p"),
	)
	if diff := cmp.Diff(want, *events, cmp.AllowUnexported(event{})); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
