// Package looksee recursively scans a tree of Risor modules, matching the
// objects each module defines against a caller-supplied predicate and
// handing every match to a caller-supplied callback.
//
// # Model
//
// A module is a .risor script; loading one executes it in an embedded VM
// and exposes its top-level definitions as (name, value) members. A
// directory containing module.risor is an importable package, and a scan
// of a package walks its whole subtree. A .looksee marker file with
// {"ignore": true} prunes a directory and all of its descendants.
//
// # Usage
//
// Configure a Scanner with a predicate and callback, then scan a dotted
// path relative to the search root:
//
//	s := looksee.New(
//		looksee.WithRoot("testdata"),
//		looksee.WithPredicate(func(obj any) bool {
//			m, ok := obj.(map[string]any)
//			return ok && m["public_id"] != nil
//		}),
//		looksee.WithCallback(func(name string, obj any, ctx looksee.Context) error {
//			ctx[name] = obj
//			return nil
//		}),
//	)
//	found, err := s.Scan(context.Background(), "pooply", nil)
//
// The returned Context holds everything the callback wrote, overlaid on
// the Scanner's static context and the per-call seed.
//
// # Error containment
//
// Only root resolution failure is fatal. A module that fails to load is
// reported through the import-error hook and skipped; a member whose
// predicate or callback fails is reported through the process-error hook
// and skipped. Overriding a hook and panicking inside it is the supported
// way to turn a contained failure class into an aborting one.
//
// # Recording
//
// With WithRecorder, every match is also written to a SQLite database
// (scans and matches tables), which makes the scanner usable as a
// registry builder. See [Recorder].
package looksee
