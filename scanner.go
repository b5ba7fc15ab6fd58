package looksee

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/jward/looksee/internal/runtime"
)

// Predicate decides whether a module member is interesting. It must not
// mutate the object it inspects.
type Predicate func(obj any) bool

// Callback handles one matched member. It may mutate ctx; an error (or a
// panic) is contained per member and reported through the process-error
// hook.
type Callback func(name string, obj any, ctx Context) error

// Hook signatures for the three contained-failure classes. The defaults
// log and carry on; a hook that panics aborts the scan, which is the
// supported way to make a contained class fatal.
type (
	IgnoreDirectoryHook func(dir string)
	ImportErrorHook     func(err error, modulePath string, ctx Context)
	ProcessErrorHook    func(err error, module *Module, ctx Context, name string, obj any)
)

// Scanner walks a tree of Risor modules relative to a dotted path,
// applying a predicate to every top-level member of every module it can
// load and piping matches to the callback. Scanning is strictly
// sequential: loading a module executes arbitrary top-level code, so
// concurrent loads are unsafe.
type Scanner struct {
	predicate Predicate
	callback  Callback
	log       Logger
	recorder  *Recorder

	root string
	fsys fs.FS

	loader *runtime.Loader

	// static is the long-lived seed; context is the snapshot of the most
	// recent scan's runtime context.
	static  Context
	context Context

	onIgnoreDirectory IgnoreDirectoryHook
	onImportError     ImportErrorHook
	onProcessError    ProcessErrorHook
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPredicate sets the match predicate. The default matches everything.
func WithPredicate(p Predicate) Option {
	return func(s *Scanner) {
		s.predicate = p
	}
}

// WithCallback sets the match callback. The default does nothing.
func WithCallback(cb Callback) Option {
	return func(s *Scanner) {
		s.callback = cb
	}
}

// WithLogger replaces the default logrus-backed logger.
func WithLogger(log Logger) Option {
	return func(s *Scanner) {
		s.log = log
	}
}

// WithRoot sets the directory dotted paths resolve under. Defaults to
// the current directory.
func WithRoot(dir string) Option {
	return func(s *Scanner) {
		s.root = dir
	}
}

// WithFS scans modules from an fs.FS instead of from disk. When set,
// WithRoot is ignored.
func WithFS(fsys fs.FS) Option {
	return func(s *Scanner) {
		s.fsys = fsys
	}
}

// WithStatic seeds the Scanner's static context. The mapping is copied;
// the caller keeps no alias into the Scanner.
func WithStatic(ctx Context) Option {
	return func(s *Scanner) {
		s.static = ctx.Clone()
	}
}

// WithRecorder additionally persists every match to a SQLite store.
func WithRecorder(r *Recorder) Option {
	return func(s *Scanner) {
		s.recorder = r
	}
}

// WithIgnoreDirectoryHook overrides the skipped-directory notification.
func WithIgnoreDirectoryHook(fn IgnoreDirectoryHook) Option {
	return func(s *Scanner) {
		s.onIgnoreDirectory = fn
	}
}

// WithImportErrorHook overrides per-module load failure handling.
func WithImportErrorHook(fn ImportErrorHook) Option {
	return func(s *Scanner) {
		s.onImportError = fn
	}
}

// WithProcessErrorHook overrides per-member failure handling.
func WithProcessErrorHook(fn ProcessErrorHook) Option {
	return func(s *Scanner) {
		s.onProcessError = fn
	}
}

// New creates a Scanner. With no options it matches every member of
// every module under the current directory and does nothing with them.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		predicate: func(any) bool { return true },
		callback:  func(string, any, Context) error { return nil },
		root:      ".",
		static:    Context{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = defaultLogger()
	}

	if s.fsys != nil {
		s.loader = runtime.NewLoader(runtime.WithFS(s.fsys))
	} else {
		s.loader = runtime.NewLoader(runtime.WithDir(s.root))
		s.fsys = os.DirFS(s.root)
	}

	s.context = s.static.Clone()
	return s
}

// Context returns a snapshot of the context produced by the most recent
// scan (the static context before any scan has run).
func (s *Scanner) Context() Context {
	return s.context.Clone()
}

// Scan resolves the dotted path to a module or package and scans it. The
// returned mapping is the static context overlaid with seed (seed keys
// win) plus everything the callback wrote. Resolution failure is fatal;
// every other failure is contained and reported through the hooks.
func (s *Scanner) Scan(ctx context.Context, dotted string, seed Context) (Context, error) {
	rt := s.static.Clone()
	rt.merge(seed)

	target, err := s.loader.Resolve(dotted)
	if err != nil {
		return nil, fmt.Errorf("looksee: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.Begin(dotted); err != nil {
			return nil, fmt.Errorf("looksee: %w", err)
		}
	}

	switch target.Kind {
	case runtime.TargetModule:
		// A leaf module short-circuits the directory walk entirely. Its
		// load failure is part of establishing the scan root, so it is
		// not contained.
		mod, err := s.loader.LoadFile(ctx, target.Path, target.File)
		if err != nil {
			return nil, fmt.Errorf("looksee: %w", err)
		}
		s.scanModule(mod, rt)
	case runtime.TargetPackage:
		s.walk(ctx, target.Dir, rt)
	}

	if s.recorder != nil {
		if err := s.recorder.Finish(); err != nil {
			s.log.Exception("finishing recorded scan", map[string]any{"error": err.Error()})
		}
	}

	s.context = rt.Clone()
	return rt.Clone(), nil
}

// walk traverses the package directory top-down. At each directory: the
// marker file may prune the subtree, and only init-bearing directories
// have their scripts loaded. Errors on individual modules are reported
// and skipped; the walk never aborts on one bad module.
func (s *Scanner) walk(ctx context.Context, pkgDir string, rt Context) {
	fs.WalkDir(s.fsys, pkgDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		entries, err := fs.ReadDir(s.fsys, p)
		if err != nil {
			return nil
		}

		names := make(map[string]bool, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names[e.Name()] = true
			}
		}

		if names[markerFileName] && readMarker(s.fsys, p).Ignore {
			s.ignoreDirectory(p)
			return fs.SkipDir
		}
		if !names[runtime.InitFileName] {
			// Not an importable package; keep descending for markers and
			// nested packages.
			return nil
		}

		pkgPath := strings.ReplaceAll(p, "/", ".")
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, runtime.SourceExt) {
				continue
			}
			modPath := pkgPath + "." + strings.TrimSuffix(name, runtime.SourceExt)
			mod, err := s.loader.LoadFile(ctx, modPath, path.Join(p, name))
			if err != nil {
				s.importError(err, modPath, rt)
				continue
			}
			s.scanModule(mod, rt)
		}
		return nil
	})
}

// scanModule applies the predicate to every member of a loaded module.
// One member's failure never stops the scan of the remaining members.
func (s *Scanner) scanModule(mod *Module, rt Context) {
	for _, m := range mod.Members() {
		s.scanMember(mod, m, rt)
	}
}

// scanMember is the per-member containment boundary: a panicking
// predicate or callback, a callback error, and a recorder error all land
// in the process-error hook.
func (s *Scanner) scanMember(mod *Module, m Member, rt Context) {
	defer func() {
		if r := recover(); r != nil {
			s.processError(fmt.Errorf("panic: %v", r), mod, rt, m.Name, m.Value)
		}
	}()
	if !s.match(m.Value) {
		return
	}
	if err := s.process(mod, m, rt); err != nil {
		s.processError(err, mod, rt, m.Name, m.Value)
	}
}

// match delegates to the predicate. A predicate panic propagates to
// scanMember's boundary, so predicate and callback failures share one
// containment policy.
func (s *Scanner) match(obj any) bool {
	return s.predicate(obj)
}

// process pipes one matched member to the callback and, when a recorder
// is configured, persists it.
func (s *Scanner) process(mod *Module, m Member, rt Context) error {
	s.log.Debug(fmt.Sprintf("processing %s in %s", m.Name, mod.File))
	if err := s.callback(m.Name, m.Value, rt); err != nil {
		return err
	}
	if s.recorder != nil {
		return s.recorder.Record(mod.Path, m.Name, m.Type, m.Value)
	}
	return nil
}

func (s *Scanner) ignoreDirectory(dir string) {
	if s.onIgnoreDirectory != nil {
		s.onIgnoreDirectory(dir)
		return
	}
	s.log.Info("ignoring directory: " + dir)
}

func (s *Scanner) importError(err error, modulePath string, rt Context) {
	if s.onImportError != nil {
		s.onImportError(err, modulePath, rt)
		return
	}
	s.log.Exception("encountered import error in "+modulePath, map[string]any{
		"error": err.Error(),
	})
}

func (s *Scanner) processError(err error, mod *Module, rt Context, name string, obj any) {
	if s.onProcessError != nil {
		s.onProcessError(err, mod, rt, name, obj)
		return
	}
	s.log.Exception("scanner encountered an error while scanning object", map[string]any{
		"module": mod.Path,
		"object": name,
		"type":   fmt.Sprintf("%T", obj),
		"error":  err.Error(),
	})
}
