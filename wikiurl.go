package creole

import "strings"

// wikiURLMap holds per-scheme URL prefix substitutions registered via
// WithWikiURL. The empty string is the key for the no-scheme (relative
// link) case.
type wikiURLMap map[string]string

func newWikiURLMap() wikiURLMap {
	return make(wikiURLMap)
}

func (m wikiURLMap) set(wiki, url string) {
	if url == "" {
		delete(m, wiki)
		return
	}
	m[wiki] = url
}

// trimControlAndSpace strips leading and trailing bytes <= ' ', matching
// the original parser's trim() helper.
func trimControlAndSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}

func hasWWWPrefix(s string) bool {
	return len(s) >= 4 && strings.EqualFold(s[:4], "www.")
}

// mapURL implements the link URL mapping algorithm: trim surrounding
// whitespace, promote a bare "www." host to "http://", then split on the
// first colon. If the text before the colon (the scheme, or "" if there is
// no colon) has a registered wiki URL prefix, that prefix replaces
// everything up to and including the colon. Otherwise the URL is returned
// unchanged (apart from the trim and www. promotion).
func mapURL(m wikiURLMap, raw string) string {
	url := trimControlAndSpace(raw)
	if hasWWWPrefix(url) {
		url = "http://" + url
	}
	if idx := strings.IndexByte(url, ':'); idx >= 0 {
		scheme := url[:idx]
		if prefix, ok := m[scheme]; ok {
			return prefix + url[idx+1:]
		}
		return url
	}
	if prefix, ok := m[""]; ok {
		return prefix + url
	}
	return url
}

// mapFreeURL implements the lighter mapping applied to bare
// (auto-recognized) URLs: trim and www. promotion only, no wiki prefix
// substitution.
func mapFreeURL(_ wikiURLMap, raw string) string {
	url := trimControlAndSpace(raw)
	if hasWWWPrefix(url) {
		url = "http://" + url
	}
	return url
}
