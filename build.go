package creole

import (
	"bytes"
	"strings"

	"github.com/wikicreole/creole/atom"
)

// normalize applies the input normalization the core performs before
// scanning: CRLF and lone CR are folded to LF, and a leading UTF-8 BOM is
// stripped. Pulling BOM-stripping into the core (rather than leaving it to
// the caller, as the original C API did) is more idiomatic for a Go API
// that accepts arbitrary text.
func normalize(text []byte) []byte {
	if bytes.HasPrefix(text, []byte{0xEF, 0xBB, 0xBF}) {
		text = text[3:]
	}
	if !bytes.ContainsAny(text, "\r") {
		return text
	}
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\r' {
			out = append(out, '\n')
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

func cellAtom(header bool) atom.Atom {
	if header {
		return atom.Th
	}
	return atom.Td
}

func rawTextOf(t token) string {
	switch t.kind {
	case tokFreeURL:
		return string(t.text)
	case tokBoldToggle:
		return "**"
	case tokItalicToggle:
		return "//"
	case tokMonospaceToggle:
		return "##"
	case tokSuperToggle:
		return "^^"
	case tokSubToggle:
		return ",,"
	case tokUnderlineToggle:
		return "__"
	case tokLineBreak:
		return `\\`
	case tokVerbOpen:
		return "{{{"
	case tokVerbClose:
		return "}}}"
	case tokLinkOpen:
		return "[["
	case tokImageOpen:
		return "{{"
	case tokPlaceholderOpen:
		return "<<<"
	case tokPlaceholderClose:
		return ">>>"
	case tokPluginOpen:
		return "<<"
	case tokPluginClose:
		return ">>"
	}
	return ""
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseImageSize splits a "WIDTHxHEIGHT" spec, succeeding only when both
// halves are non-empty decimal runs.
func parseImageSize(spec string) (width, height string, ok bool) {
	xi := strings.IndexByte(spec, 'x')
	if xi < 0 {
		return "", "", false
	}
	w, h := spec[:xi], spec[xi+1:]
	if isAllDigits(w) && isAllDigits(h) {
		return w, h, true
	}
	return "", "", false
}

// splitTrailingPunct strips one trailing punctuation byte from a free URL
// match, so "see http://example.com." keeps the sentence's full stop out
// of the link target.
func splitTrailingPunct(text []byte) (core []byte, trail byte) {
	if len(text) == 0 {
		return text, 0
	}
	last := text[len(text)-1]
	if bytes.IndexByte([]byte(",.?!:;\"'"), last) >= 0 {
		return text[:len(text)-1], last
	}
	return text, 0
}

func (p *Parser) appendLiteral(s string) {
	p.pending = append(p.pending, s...)
}

func (p *Parser) flushPendingChars() {
	if len(p.pending) > 0 {
		p.emitChars(p.pending)
		p.pending = p.pending[:0]
	}
}

// startElement flushes any buffered characters, emits the begin event,
// pushes tag onto the stack, and returns the stack depth from before the
// push - the level endElement should be called with to close exactly
// this element (and anything opened after it).
func (p *Parser) startElement(tag atom.Atom, attrs []Attribute) int {
	p.flushPendingChars()
	p.emitStart(tag, attrs)
	level := len(p.tagStack)
	p.tagStack = append(p.tagStack, tag)
	return level
}

// endElement flushes any buffered characters and emits end events for
// every element above level, in innermost-first order.
func (p *Parser) endElement(level int) {
	p.flushPendingChars()
	for len(p.tagStack) > level {
		top := p.tagStack[len(p.tagStack)-1]
		p.tagStack = p.tagStack[:len(p.tagStack)-1]
		p.emitEnd(top)
	}
}

// flushBlock closes every element currently open, clearing all
// block-scoped scratch state (list nesting, table position, link/image
// collection).
func (p *Parser) flushBlock() {
	p.listStack = p.listStack[:0]
	p.listItemLevel = 0
	p.tableColumns = 0
	p.currentColumn = 0
	p.tableFirstRow = false
	p.linkMode = linkNone
	p.linkURL = ""
	p.linkLevel = 0
	p.imageMode = imageNone
	p.imageURLSpec = ""

	p.flushPendingChars()
	if len(p.tagStack) > 0 {
		for i := len(p.tagStack) - 1; i >= 0; i-- {
			p.emitEnd(p.tagStack[i])
		}
		p.tagStack = p.tagStack[:0]
	}
}

func (p *Parser) ensureBlock() {
	if len(p.tagStack) == 0 {
		p.startElement(atom.P, nil)
	}
}

func (p *Parser) inList() bool {
	return len(p.tagStack) > 0 && (p.tagStack[0] == atom.Ul || p.tagStack[0] == atom.Ol)
}

func (p *Parser) inTable() bool {
	return len(p.tagStack) > 0 && p.tagStack[0] == atom.Table
}

func (p *Parser) inDefinitionList() bool {
	return len(p.tagStack) > 0 && p.tagStack[0] == atom.Dl
}

func (p *Parser) inDefinitionTerm() bool {
	return len(p.tagStack) >= 2 && p.tagStack[1] == atom.Dt
}

func (p *Parser) inRawURLCollection() bool {
	return p.linkMode == linkURLPhase || p.imageMode == imageURLPhase || p.imageMode == imageAltPhase
}

func (p *Parser) toggleStyle(tag atom.Atom) {
	if len(p.tagStack) > 0 && p.tagStack[len(p.tagStack)-1] == tag {
		p.endElement(len(p.tagStack) - 1)
		return
	}
	p.startElement(tag, nil)
}

func (p *Parser) handleHeading(level int, text []byte) {
	p.flushBlock()
	lvl := p.startElement(atom.Heading(level), nil)
	p.pending = append(p.pending, text...)
	p.endElement(lvl)
}

func (p *Parser) handleHR() {
	p.flushBlock()
	lvl := p.startElement(atom.Hr, nil)
	p.endElement(lvl)
}

// stripLeadingSpacePerLine removes one leading space from each line of a
// preformatted block's text, if present - a line with no leading space is
// left alone.
func stripLeadingSpacePerLine(text []byte) []byte {
	lines := bytes.Split(text, []byte("\n"))
	for i, l := range lines {
		if len(l) > 0 && l[0] == ' ' {
			lines[i] = l[1:]
		}
	}
	return bytes.Join(lines, []byte("\n"))
}

func (p *Parser) handlePreBlock(text []byte) {
	p.flushBlock()
	lvl := p.startElement(atom.Pre, nil)
	p.pending = append(p.pending, stripLeadingSpacePerLine(text)...)
	p.endElement(lvl)
}

func (p *Parser) handleListItem(depth int, ordered bool) {
	if !p.inList() {
		p.flushBlock()
	}

	if len(p.listStack) > depth {
		p.endElement(p.listStack[depth].level)
		p.listStack = p.listStack[:depth]
	}
	if len(p.listStack) == depth && depth > 0 && p.listStack[depth-1].ordered != ordered {
		p.endElement(p.listStack[depth-1].level)
		p.listStack = p.listStack[:depth-1]
	}
	// An item at the depth of a still-open list closes that list's current
	// <li>; a deeper item leaves it open so the new sublist nests inside it.
	if len(p.listStack) == depth && depth > 0 {
		p.endElement(p.listStack[depth-1].level + 1)
	}
	for len(p.listStack) < depth {
		tag := atom.Ul
		if ordered {
			tag = atom.Ol
		}
		level := p.startElement(tag, nil)
		p.listStack = append(p.listStack, listLevel{level: level, ordered: ordered})
	}
	p.listItemLevel = p.startElement(atom.Li, nil)
}

// startDefinition closes the currently open <dt> and opens the matching
// <dd>, without touching the enclosing <dl>.
func (p *Parser) startDefinition() {
	p.endElement(1)
	p.startElement(atom.Dd, nil)
}

func (p *Parser) handleDefTerm(term []byte) {
	if p.inDefinitionList() {
		p.endElement(1)
	} else {
		p.flushBlock()
		p.startElement(atom.Dl, nil)
	}
	p.startElement(atom.Dt, nil)
	p.pending = append(p.pending, term...)
}

// handleIndent opens (or extends) indented blockquote nesting. A colon
// line encountered right after a definition term, rather than starting a
// fresh blockquote, is read as the signal to open that term's <dd> - the
// scanner produces the same INDENT-shaped token for both, and only the
// builder's current context tells them apart.
func (p *Parser) handleIndent(depth int, isCitation bool) {
	if p.inDefinitionList() && p.inDefinitionTerm() && depth == 1 {
		p.startDefinition()
		return
	}
	p.flushBlock()
	var attrs []Attribute
	if isCitation {
		attrs = []Attribute{{Name: atom.Class, Value: "citation"}}
	}
	for i := 0; i < depth; i++ {
		var a []Attribute
		if i == depth-1 {
			a = attrs
		}
		p.startElement(atom.Blockquote, a)
	}
}

func (p *Parser) handleTableRowStart(header bool) {
	if !p.inTable() {
		p.flushBlock()
		p.tableColumns = 1
		p.currentColumn = 0
		p.tableFirstRow = true
		p.startElement(atom.Table, nil)
		p.startElement(atom.Tr, nil)
		p.startElement(cellAtom(header), nil)
		return
	}
	p.tableFirstRow = false
	p.currentColumn = 0
	if len(p.tagStack) > 1 {
		p.endElement(1)
	}
	p.startElement(atom.Tr, nil)
	p.startElement(cellAtom(header), nil)
}

func (p *Parser) handleTableCell(header bool) {
	if p.tableFirstRow {
		p.tableColumns++
		p.currentColumn++
		p.endElement(2)
		p.startElement(cellAtom(header), nil)
		return
	}
	p.currentColumn++
	if p.currentColumn < p.tableColumns {
		p.endElement(2)
		p.startElement(cellAtom(header), nil)
		return
	}
	p.appendLiteral("|")
	if header {
		p.appendLiteral("=")
	}
}

func (p *Parser) handleTableRowEnd() {
	p.currentColumn = 0
	p.endElement(1)
}

func (p *Parser) handleEOL() {
	if p.inTable() {
		p.handleTableRowEnd()
		return
	}
	if len(p.tagStack) > 0 {
		p.pending = append(p.pending, ' ')
	}
}

func (p *Parser) handleFreeURL(text []byte) {
	core, trail := splitTrailingPunct(text)
	mapped := mapFreeURL(p.wikiURLs, string(core))
	level := p.startElement(atom.A, []Attribute{{Name: atom.Href, Value: mapped}})
	p.pending = append(p.pending, core...)
	p.endElement(level)
	if trail != 0 {
		p.pending = append(p.pending, trail)
	}
}

func (p *Parser) handleLinkOpen() {
	if p.linkLevel > 0 {
		p.appendLiteral("[[")
		return
	}
	p.flushPendingChars()
	p.pending = p.pending[:0]
	p.linkURL = ""
	p.linkMode = linkURLPhase
}

// endLinkURL closes the URL-collecting phase of a link, opening the <a>
// element with the mapped href. It is a no-op outside linkURLPhase.
func (p *Parser) endLinkURL() {
	if p.linkMode != linkURLPhase {
		return
	}
	p.linkURL = string(p.pending)
	p.pending = p.pending[:0]
	mapped := mapURL(p.wikiURLs, p.linkURL)
	level := p.startElement(atom.A, []Attribute{{Name: atom.Href, Value: mapped}})
	p.linkLevel = level
	p.linkMode = linkTextPhase
}

func (p *Parser) handleLinkPipe() {
	p.endLinkURL()
}

func (p *Parser) handleLinkClose() {
	urlOnly := p.linkMode == linkURLPhase
	if urlOnly {
		p.endLinkURL()
		p.pending = append(p.pending[:0], p.linkURL...)
	}
	if p.linkLevel > 0 {
		p.endElement(p.linkLevel)
		p.linkURL = ""
		p.linkLevel = 0
		p.linkMode = linkNone
		return
	}
	p.ensureBlock()
	p.appendLiteral("]]")
	p.linkMode = linkNone
}

func (p *Parser) handleImageOpen() {
	p.flushPendingChars()
	p.pending = p.pending[:0]
	p.imageURLSpec = ""
	p.imageMode = imageURLPhase
}

func (p *Parser) handleImagePipe() {
	p.imageURLSpec = string(p.pending)
	p.pending = p.pending[:0]
	p.imageMode = imageAltPhase
}

// handleImageClose closes an image construct, deriving width/height from
// a "?WxH" suffix on whichever of the URL or alt segment carries it (in
// that order) when FeatureImageSize is enabled, and emitting a single,
// childless <img> element with attributes in src/width/height/alt order.
func (p *Parser) handleImageClose() {
	if p.imageMode == imageNone {
		p.ensureBlock()
		p.appendLiteral("}}")
		return
	}
	if p.imageMode == imageURLPhase {
		p.imageURLSpec = string(p.pending)
		p.pending = p.pending[:0]
	}
	alt := string(p.pending)
	p.pending = p.pending[:0]

	url := p.imageURLSpec
	var width, height string
	if p.features.Has(FeatureImageSize) {
		if qi := strings.IndexByte(url, '?'); qi >= 0 {
			if w, h, ok := parseImageSize(url[qi+1:]); ok {
				url, width, height = url[:qi], w, h
			}
		}
		if width == "" {
			if qi := strings.IndexByte(alt, '?'); qi >= 0 {
				if w, h, ok := parseImageSize(alt[qi+1:]); ok {
					alt, width, height = alt[:qi], w, h
				}
			}
		}
	}

	mapped := mapURL(p.wikiURLs, url)
	attrs := []Attribute{{Name: atom.Src, Value: mapped}}
	if width != "" {
		attrs = append(attrs, Attribute{Name: atom.Width, Value: width})
	}
	if height != "" {
		attrs = append(attrs, Attribute{Name: atom.Height, Value: height})
	}
	if alt != "" {
		attrs = append(attrs, Attribute{Name: atom.Alt, Value: alt})
	}

	level := p.startElement(atom.Img, attrs)
	p.endElement(level)

	p.imageURLSpec = ""
	p.imageMode = imageNone
}

func (p *Parser) endPlaceholder() error {
	p.collectingPlaceholder = false
	text := p.pending
	p.pending = nil
	if p.placeholderHandler == nil {
		return nil
	}
	return p.placeholderHandler(p, text)
}

func (p *Parser) endPlugin() error {
	p.collectingPlugin = false
	text := p.pending
	p.pending = nil
	if p.pluginHandler == nil {
		return nil
	}
	return p.pluginHandler(p, text)
}

// handle dispatches one scanned token, updating builder state and firing
// element/characters events as needed. It returns the first error
// produced by a plugin or placeholder handler, which aborts the rest of
// the current run.
func (p *Parser) handle(t token) error {
	if t.kind == tokEOF {
		if p.collectingPlaceholder {
			return p.endPlaceholder()
		}
		if p.collectingPlugin {
			return p.endPlugin()
		}
		return nil
	}

	if p.collectingPlaceholder {
		if t.kind == tokPlaceholderClose {
			return p.endPlaceholder()
		}
		p.pending = append(p.pending, rawOrText(t)...)
		return nil
	}
	if p.collectingPlugin {
		if t.kind == tokPluginClose {
			return p.endPlugin()
		}
		p.pending = append(p.pending, rawOrText(t)...)
		return nil
	}

	if p.inRawURLCollection() {
		switch t.kind {
		case tokPipe:
			switch {
			case p.linkMode == linkURLPhase:
				p.handleLinkPipe()
			case p.imageMode == imageURLPhase:
				p.handleImagePipe()
			default:
				p.pending = append(p.pending, '|')
				if t.header {
					p.pending = append(p.pending, '=')
				}
			}
		case tokLinkClose:
			p.handleLinkClose()
		case tokImageClose:
			p.handleImageClose()
		case tokEOL:
			p.pending = append(p.pending, '\n')
		default:
			p.pending = append(p.pending, rawOrText(t)...)
		}
		return nil
	}

	switch t.kind {
	case tokBlankLine:
		p.flushBlock()
		return nil
	case tokHeading:
		p.handleHeading(t.level, t.text)
		return nil
	case tokHR:
		p.handleHR()
		return nil
	case tokPreBlock:
		p.handlePreBlock(t.text)
		return nil
	case tokTableRowStart:
		p.handleTableRowStart(t.header)
		return nil
	case tokListItem:
		p.handleListItem(t.level, t.ordered)
		return nil
	case tokIndent:
		p.handleIndent(t.level, t.citation)
		return nil
	case tokDefTerm:
		p.handleDefTerm(t.text)
		if t.hasColon {
			p.startDefinition()
		}
		return nil
	case tokEOL:
		p.handleEOL()
		return nil
	}

	// Everything else is inline content, which implicitly opens a
	// paragraph when no block is currently open.
	p.ensureBlock()

	switch t.kind {
	case tokChars:
		p.pending = append(p.pending, t.text...)
	case tokChar:
		p.pending = append(p.pending, t.char)
	case tokFreeURL:
		p.handleFreeURL(t.text)
	case tokBoldToggle:
		p.toggleStyle(atom.B)
	case tokItalicToggle:
		p.toggleStyle(atom.I)
	case tokMonospaceToggle:
		if p.features.Has(FeatureAdditions) {
			p.toggleStyle(atom.Tt)
		} else {
			p.appendLiteral("##")
		}
	case tokSuperToggle:
		p.toggleStyle(atom.Sup)
	case tokSubToggle:
		p.toggleStyle(atom.Sub)
	case tokUnderlineToggle:
		p.toggleStyle(atom.U)
	case tokLineBreak:
		lvl := p.startElement(atom.Br, nil)
		p.endElement(lvl)
	case tokVerbOpen:
		p.startElement(atom.Verb, nil)
		p.verbatimLevel++
	case tokVerbClose:
		if p.verbatimLevel > 0 {
			p.verbatimLevel--
			if len(p.tagStack) > 0 && p.tagStack[len(p.tagStack)-1] == atom.Verb {
				p.endElement(len(p.tagStack) - 1)
			}
		} else {
			p.appendLiteral("}}}")
		}
	case tokLinkOpen:
		p.handleLinkOpen()
	case tokLinkClose:
		p.handleLinkClose()
	case tokImageOpen:
		p.handleImageOpen()
	case tokImageClose:
		p.handleImageClose()
	case tokPipe:
		if p.inTable() {
			p.handleTableCell(t.header)
		} else {
			p.appendLiteral("|")
			if t.header {
				p.appendLiteral("=")
			}
		}
	case tokPlaceholderOpen:
		p.flushPendingChars()
		p.pending = p.pending[:0]
		p.collectingPlaceholder = true
	case tokPluginOpen:
		p.flushPendingChars()
		p.pending = p.pending[:0]
		p.collectingPlugin = true
	case tokPlaceholderClose, tokPluginClose:
		p.appendLiteral(rawTextOf(t))
	}
	return nil
}

// rawOrText returns the literal source text of t, used while a token is
// being re-serialized as plain characters (inside a placeholder/plugin
// body, or while collecting a link/image URL or alt text).
func rawOrText(t token) []byte {
	switch t.kind {
	case tokChars:
		return t.text
	case tokChar:
		return []byte{t.char}
	default:
		return []byte(rawTextOf(t))
	}
}
