package looksee

import (
	"github.com/jward/looksee/internal/runtime"
	"github.com/jward/looksee/internal/store"
)

// Public type aliases for internal types that surface in the Scanner and
// Recorder APIs. These are Go type aliases (=) — identical to the
// internal types at compile time.

type Module = runtime.Module
type Member = runtime.Member

type Store = store.Store
type Scan = store.Scan
type Match = store.Match

// ErrNotResolved is returned (wrapped) by Scan when the dotted path maps
// to neither a package directory nor a module file.
var ErrNotResolved = runtime.ErrNotResolved
