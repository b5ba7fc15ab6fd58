package runtime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/risor-io/risor/builtins"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
	"github.com/risor-io/risor/vm"
)

const (
	// SourceExt is the extension a file must carry to be loaded as a module.
	SourceExt = ".risor"

	// InitFileName marks a directory as an importable package. The file is
	// itself loaded as a module of that package.
	InitFileName = "module.risor"
)

// ErrNotResolved reports that a dotted path maps to neither a package
// directory nor a module file under the search root.
var ErrNotResolved = errors.New("module path not resolved")

// Loader resolves dotted paths to Risor scripts and executes them, one
// fresh VM per module, so state never leaks between loads.
type Loader struct {
	dir  string
	fsys fs.FS

	// Baseline globals injected into every module. Their names are
	// subtracted from the VM's global table during member enumeration.
	globals  map[string]any
	injected map[string]bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDir configures the Loader to read modules from a directory on disk.
func WithDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.dir = dir
	}
}

// WithFS configures the Loader to read modules from an fs.FS instead of
// from disk. Also switches Risor import resolution to an FS importer.
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fsys = fsys
	}
}

// NewLoader creates a Loader rooted at the configured directory or fs.FS.
// With no options it loads from the current directory.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.fsys == nil {
		if l.dir == "" {
			l.dir = "."
		}
		l.fsys = os.DirFS(l.dir)
	}

	l.globals = map[string]any{
		"log": mustProxy(&logObject{prefix: "looksee"}),
	}
	for name, fn := range builtins.Builtins() {
		l.globals[name] = fn
	}
	l.injected = make(map[string]bool, len(l.globals))
	for name := range l.globals {
		l.injected[name] = true
	}
	return l
}

// TargetKind classifies what a dotted path resolved to.
type TargetKind int

const (
	// TargetPackage is a directory carrying the init file.
	TargetPackage TargetKind = iota
	// TargetModule is a single script file.
	TargetModule
)

// Target is the result of resolving a dotted path.
type Target struct {
	Kind TargetKind
	Path string // dotted path as given
	Dir  string // package directory, slash-relative to the root (packages only)
	File string // module file, slash-relative to the root (modules only)
}

// Resolve maps a dotted path to a package directory or a module file.
// A directory carrying the init file wins over a same-named script.
// Resolution failure is the one fatal error class of a scan.
func (l *Loader) Resolve(dotted string) (Target, error) {
	rel := strings.ReplaceAll(dotted, ".", "/")
	if dotted == "" || strings.ContainsAny(dotted, "/\\") || !fs.ValidPath(rel) {
		return Target{}, fmt.Errorf("%w: invalid path %q", ErrNotResolved, dotted)
	}

	if info, err := fs.Stat(l.fsys, rel); err == nil && info.IsDir() {
		if _, err := fs.Stat(l.fsys, path.Join(rel, InitFileName)); err == nil {
			return Target{Kind: TargetPackage, Path: dotted, Dir: rel}, nil
		}
	}
	if info, err := fs.Stat(l.fsys, rel+SourceExt); err == nil && !info.IsDir() {
		return Target{Kind: TargetModule, Path: dotted, File: rel + SourceExt}, nil
	}
	return Target{}, fmt.Errorf("%w: %s", ErrNotResolved, dotted)
}

// Load resolves a dotted path and loads the module it names. Package
// targets load their init file.
func (l *Loader) Load(ctx context.Context, dotted string) (*Module, error) {
	target, err := l.Resolve(dotted)
	if err != nil {
		return nil, err
	}
	if target.Kind == TargetPackage {
		return l.LoadFile(ctx, dotted, path.Join(target.Dir, InitFileName))
	}
	return l.LoadFile(ctx, dotted, target.File)
}

// LoadFile executes the script at file and returns it as a loaded module
// identified by the given dotted path.
func (l *Loader) LoadFile(ctx context.Context, dotted, file string) (*Module, error) {
	src, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("runtime: reading module %s: %w", dotted, err)
	}
	return l.eval(ctx, string(src), dotted, file)
}

// LoadSource executes Risor source directly. Useful for testing without
// script files.
func (l *Loader) LoadSource(ctx context.Context, source string) (*Module, error) {
	return l.eval(ctx, source, "<inline>", "<inline>")
}

func (l *Loader) eval(ctx context.Context, source, dotted, file string) (*Module, error) {
	// An empty module body defines no members; skip the VM entirely.
	if strings.TrimSpace(source) == "" {
		return &Module{Path: dotted, File: file}, nil
	}

	prog, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("runtime: parsing module %s: %w", dotted, err)
	}
	code, err := compiler.Compile(prog, compiler.WithGlobalNames(l.globalNames()))
	if err != nil {
		return nil, fmt.Errorf("runtime: compiling module %s: %w", dotted, err)
	}

	opts := []vm.Option{vm.WithGlobals(l.globals)}
	if imp := l.buildImporter(); imp != nil {
		opts = append(opts, vm.WithImporter(imp))
	}
	machine := vm.New(code, opts...)
	if err := machine.Run(ctx); err != nil {
		return nil, fmt.Errorf("runtime: running module %s: %w", dotted, err)
	}

	return &Module{Path: dotted, File: file, members: l.collectMembers(machine)}, nil
}

// collectMembers reads the VM's global table after execution, drops the
// injected baseline, and returns the remainder sorted by name.
func (l *Loader) collectMembers(machine *vm.VirtualMachine) []Member {
	var members []Member
	for _, name := range machine.GlobalNames() {
		if name == "" || l.injected[name] {
			continue
		}
		obj, err := machine.Get(name)
		if err != nil {
			continue
		}
		members = append(members, Member{
			Name:  name,
			Value: memberValue(obj),
			Type:  string(obj.Type()),
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members
}

// buildImporter returns a Risor importer so import statements inside
// scanned modules resolve against the same search root.
func (l *Loader) buildImporter() importer.Importer {
	globalNames := l.globalNames()
	if l.dir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   l.dir,
			Extensions:  []string{SourceExt},
		})
	}
	return importer.NewFSImporter(importer.FSImporterOptions{
		GlobalNames: globalNames,
		SourceFS:    l.fsys,
		Extensions:  []string{SourceExt},
	})
}

func (l *Loader) globalNames() []string {
	names := make([]string, 0, len(l.globals))
	for name := range l.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// memberValue converts a Risor object to its Go value. Objects without a
// Go representation (functions, proxies) come through as the object
// itself so predicates can still inspect them.
func memberValue(obj object.Object) any {
	if v := obj.Interface(); v != nil {
		return v
	}
	if _, ok := obj.(*object.NilType); ok {
		return nil
	}
	return obj
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
