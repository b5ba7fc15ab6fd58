package looksee

import "maps"

// Context is the mapping matched objects accumulate into. The Scanner
// seeds it from the static context and the per-call seed; the callback
// mutates it during a scan.
type Context map[string]any

// Clone returns an independent shallow copy. A nil Context clones to an
// empty, writable one.
func (c Context) Clone() Context {
	if c == nil {
		return Context{}
	}
	return Context(maps.Clone(map[string]any(c)))
}

// merge overlays src onto c. src keys win.
func (c Context) merge(src Context) {
	for k, v := range src {
		c[k] = v
	}
}
