package analyze

import (
	"fmt"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages. NeedDeps makes
// the loader type-check root packages from source; without it the build
// system compiles them for export data and reports the pre-expansion type
// errors as opaque fatal package errors instead of tolerable TypeErrors.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps

// LoaderConfig holds configuration for the package loader.
type LoaderConfig struct {
	// Dir is the directory in which to run the build system query.
	// Empty means the current directory.
	Dir string
	// BuildTags are additional build tags to enable while loading.
	// Invocation files conventionally carry the "assign" tag.
	BuildTags []string
	// Env is the environment to use for the build system query.
	// Nil means the current environment.
	Env []string
}

// Loader loads Go packages with syntax and type information.
//
// Unlike a conventional loader it tolerates type errors: a file containing
// unexpanded assign.With invocations cannot type-check (the Fields literal
// names fields the marker type does not have), and that is exactly the state
// the rewriter operates on. Parse and package-list errors are still fatal.
type Loader struct {
	cfg LoaderConfig
}

// NewLoader creates a new Loader.
func NewLoader(cfg LoaderConfig) *Loader {
	return &Loader{cfg: cfg}
}

// Load loads the packages matching the given patterns and wraps them for the
// rewrite pipeline. Patterns are standard Go package patterns
// (e.g., "./...", "assigngen/examples/profile").
func (l *Loader) Load(patterns ...string) ([]*Package, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  l.cfg.Dir,
		Env:  l.cfg.Env,
	}

	if len(l.cfg.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(l.cfg.BuildTags, ",")}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages matched %v", patterns)
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if fatalError(e) {
				errs = append(errs, e)
			}
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %v", errs)
	}

	var out []*Package
	for _, pkg := range pkgs {
		out = append(out, wrapPackage(pkg))
	}

	return out, nil
}

// fatalError reports whether a package error should abort loading.
// Type errors are expected in files that still contain invocations.
func fatalError(e packages.Error) bool {
	switch e.Kind {
	case packages.ListError, packages.ParseError:
		return true
	case packages.TypeError:
		return false
	default:
		// UnknownError: go list sometimes reports broken packages this way.
		// Treat it as fatal so genuinely broken inputs are not silently
		// rewritten.
		return true
	}
}

// wrapPackage converts a loaded packages.Package into the pipeline form.
func wrapPackage(pkg *packages.Package) *Package {
	p := &Package{
		PkgPath:   pkg.PkgPath,
		Name:      pkg.Name,
		Fset:      pkg.Fset,
		Types:     pkg.Types,
		TypesInfo: pkg.TypesInfo,
	}

	for i, syntax := range pkg.Syntax {
		name := ""
		if i < len(pkg.CompiledGoFiles) {
			name = pkg.CompiledGoFiles[i]
		}

		p.Files = append(p.Files, &File{
			Name:   name,
			Syntax: syntax,
			Pkg:    p,
		})
	}

	return p
}
