// Package creole implements an event-driven parser for Wiki Creole 1.0
// markup (plus the common ADDITIONS and IMAGESIZE extensions). A Parser
// scans a document and drives a small set of caller-supplied handlers with
// well-nested begin/end/characters events describing an HTML-like tree, in
// the same spirit as an HTML5 tree-construction parser or a SAX reader: the
// caller never sees a parse tree, only the sequence of calls needed to
// build one.
package creole

import (
	"fmt"
	"log/slog"

	"github.com/wikicreole/creole/atom"
)

// Features is a bitmask selecting which Creole dialect extensions a Parser
// recognizes.
type Features uint8

const (
	// FeatureBase10 selects plain Wiki Creole 1.0 with no extensions.
	FeatureBase10 Features = 0
	// FeatureAdditions enables monospace toggles, indented quote blocks
	// and definition lists.
	FeatureAdditions Features = 1 << 0
	// FeatureImageSize enables the "?WIDTHxHEIGHT" image sizing suffix.
	FeatureImageSize Features = 1 << 1
)

// Has reports whether flag is set in f.
func (f Features) Has(flag Features) bool {
	return f&flag != 0
}

// Attribute is a single name/value pair passed to a StartElementHandler.
type Attribute struct {
	Name  atom.Atom
	Value string
}

// StartElementHandler is invoked when the tree builder opens an element.
// attrs is only valid for the duration of the call.
type StartElementHandler func(tag atom.Atom, attrs []Attribute)

// EndElementHandler is invoked when the tree builder closes an element.
// Begin/end calls for a given Parser are always well-nested.
type EndElementHandler func(tag atom.Atom)

// CharactersHandler is invoked with a run of text belonging to whatever
// element is currently open. text is only valid for the duration of the
// call.
type CharactersHandler func(text []byte)

// PluginHandler is invoked with the body text of a placeholder
// (<<<name ...>>>) or plugin (<<name ...>>) construct. p is the Parser
// that recognized the construct; a plugin handler (but not a placeholder
// handler) may call p.ParsePluginText to have its own output parsed as
// Creole markup and woven into the surrounding document.
type PluginHandler func(p *Parser, body []byte) error

// Option configures a Parser constructed by New.
type Option func(*Parser)

// WithFeatures sets which dialect extensions the Parser recognizes. The
// default, if this option is not given, is FeatureAdditions|FeatureImageSize.
func WithFeatures(f Features) Option {
	return func(p *Parser) { p.features = f }
}

// WithWikiURL registers a prefix substitution for the given URL scheme (or
// "" for the no-scheme/relative-path case). See mapURL for the exact
// substitution algorithm. Passing an empty url removes any existing
// mapping for wiki.
func WithWikiURL(wiki, url string) Option {
	return func(p *Parser) { p.wikiURLs.set(wiki, url) }
}

// WithLogger sets the structured logger held by the Parser. The default is
// slog.Default(). The parser itself writes no log records through it.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxPluginDepth bounds how many levels deep ParsePluginText may
// re-enter itself. The default is 64. Values less than 1 are ignored.
func WithMaxPluginDepth(n int) Option {
	return func(p *Parser) {
		if n >= 1 {
			p.maxPluginDepth = n
		}
	}
}

// listLevel records one level of list nesting: the tag-stack depth at
// which the <ul>/<ol> element was opened, and whether it is ordered.
type listLevel struct {
	level   int
	ordered bool
}

const (
	linkNone = iota
	linkURLPhase
	linkTextPhase
)

const (
	imageNone = iota
	imageURLPhase
	imageAltPhase
)

// Parser holds the state needed to parse one or more Creole documents (or,
// via ParsePluginText, document fragments produced by a plugin). A Parser
// is not safe for concurrent use and must not be shared across goroutines.
type Parser struct {
	logger         *slog.Logger
	features       Features
	maxPluginDepth int
	wikiURLs       wikiURLMap

	startHandler       StartElementHandler
	endHandler         EndElementHandler
	charsHandler       CharactersHandler
	placeholderHandler PluginHandler
	pluginHandler      PluginHandler

	// Builder state, shared across a document parse and any nested
	// ParsePluginText re-entries it triggers.
	tagStack      []atom.Atom
	pending       []byte
	atBOL         bool
	verbatimLevel int

	listStack     []listLevel
	listItemLevel int

	linkMode int
	linkURL  string
	linkLevel int

	imageMode     int
	imageURLSpec  string

	tableColumns  int
	currentColumn int
	tableFirstRow bool

	collectingPlaceholder bool
	collectingPlugin      bool

	pluginDepth int
}

// New constructs a Parser. The default configuration recognizes
// FeatureAdditions|FeatureImageSize, holds slog.Default() as its logger, and caps
// plugin re-entry depth at 64.
func New(opts ...Option) *Parser {
	p := &Parser{
		features:       FeatureAdditions | FeatureImageSize,
		maxPluginDepth: 64,
		wikiURLs:       newWikiURLMap(),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetStartElementHandler sets the callback invoked for each opened element.
func (p *Parser) SetStartElementHandler(h StartElementHandler) { p.startHandler = h }

// SetEndElementHandler sets the callback invoked for each closed element.
func (p *Parser) SetEndElementHandler(h EndElementHandler) { p.endHandler = h }

// SetCharactersHandler sets the callback invoked for each run of text.
func (p *Parser) SetCharactersHandler(h CharactersHandler) { p.charsHandler = h }

// SetPlaceholderHandler sets the callback invoked for <<<name ...>>>
// constructs. A placeholder handler may not re-enter the parser.
func (p *Parser) SetPlaceholderHandler(h PluginHandler) { p.placeholderHandler = h }

// SetPluginHandler sets the callback invoked for <<name ...>> constructs.
// A plugin handler may call p.ParsePluginText to parse its own output as
// Creole and weave it into the surrounding document.
func (p *Parser) SetPluginHandler(h PluginHandler) { p.pluginHandler = h }

// ParseDocument parses text as a complete Creole document. It always
// emits a begin(body)/…/end(body) pair, even for empty input.
func (p *Parser) ParseDocument(text []byte) error {
	p.reset()
	p.emitStart(atom.Body, nil)
	if err := p.run(normalize(text)); err != nil {
		p.emitEnd(atom.Body)
		return fmt.Errorf("creole: parse document: %w", err)
	}
	p.flushBlock()
	p.emitEnd(atom.Body)
	return nil
}

// ParsePluginText parses text as a fragment of Creole markup re-entrantly,
// sharing the calling Parser's open-element and list stacks so the
// fragment's events are woven into the document currently being built. It
// is intended to be called from within a PluginHandler. Re-entry deeper
// than the configured MaxPluginDepth returns ErrBadInput without touching
// parser state.
func (p *Parser) ParsePluginText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	if p.pluginDepth >= p.maxPluginDepth {
		return fmt.Errorf("creole: parse plugin text: %w", ErrBadInput)
	}

	p.pluginDepth++
	savedBOL := p.atBOL
	savedVerbatim := p.verbatimLevel
	defer func() {
		p.pluginDepth--
		p.atBOL = savedBOL
		p.verbatimLevel = savedVerbatim
	}()

	if err := p.run(normalize(text)); err != nil {
		return fmt.Errorf("creole: parse plugin text: %w", err)
	}
	return nil
}

// reset clears all per-document state. It does not touch configuration
// (features, wiki URL map, handlers, logger, max plugin depth).
func (p *Parser) reset() {
	p.tagStack = p.tagStack[:0]
	p.pending = p.pending[:0]
	p.atBOL = true
	p.verbatimLevel = 0
	p.listStack = p.listStack[:0]
	p.listItemLevel = 0
	p.linkMode = linkNone
	p.linkURL = ""
	p.linkLevel = 0
	p.imageMode = imageNone
	p.imageURLSpec = ""
	p.tableColumns = 0
	p.currentColumn = 0
	p.tableFirstRow = false
	p.collectingPlaceholder = false
	p.collectingPlugin = false
	p.pluginDepth = 0
}

func (p *Parser) emitStart(tag atom.Atom, attrs []Attribute) {
	if p.startHandler != nil {
		p.startHandler(tag, attrs)
	}
}

func (p *Parser) emitEnd(tag atom.Atom) {
	if p.endHandler != nil {
		p.endHandler(tag)
	}
}

func (p *Parser) emitChars(text []byte) {
	if len(text) == 0 || p.charsHandler == nil {
		return
	}
	p.charsHandler(text)
}
