package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/printer"
	"go/token"
	"path/filepath"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"

	"assigngen/internal/analyze"
	"assigngen/internal/common"
	"assigngen/internal/diagnostic"
	"assigngen/internal/expand"
	"assigngen/internal/invocation"
)

// Error codes reported by the rewriter.
const (
	CodeExpand   = "rewrite/expand"
	CodeFormat   = "rewrite/format"
	CodeUntagged = "rewrite/untagged"
)

// Config holds configuration for the rewriter.
type Config struct {
	// Marker identifies the directive call to expand.
	Marker invocation.Marker
	// StripTag is the build tag removed from rewritten files. Empty
	// disables stripping.
	StripTag string
}

// DefaultConfig returns the default rewriter configuration.
func DefaultConfig() Config {
	return Config{
		Marker:   invocation.DefaultMarker(),
		StripTag: "assign",
	}
}

// Rewriter expands directive invocations file by file. Files are rewritten
// independently; no state is shared between them.
type Rewriter struct {
	cfg Config
}

// NewRewriter creates a Rewriter with the given configuration.
func NewRewriter(cfg Config) *Rewriter {
	return &Rewriter{cfg: cfg}
}

// Result is the outcome of rewriting one file.
type Result struct {
	// File is the input file.
	File *analyze.File
	// Content is the formatted rewritten source (nil when unchanged).
	Content []byte
	// Changed reports whether any invocation was expanded.
	Changed bool
	// Expanded is the number of invocations expanded.
	Expanded int
}

// RewriteFile expands every invocation in the file and returns the rewritten
// source. A file containing any malformed invocation is rejected whole: the
// result is unchanged and the shape errors are reported, so no partial
// expansion ever reaches the output.
func (r *Rewriter) RewriteFile(file *analyze.File) (*Result, diagnostic.Diagnostics) {
	res := &Result{File: file}

	scanner := invocation.NewScanner(r.cfg.Marker)
	invs, diags := scanner.Scan(file.Pkg.Fset, file.Syntax)

	if diags.HasErrors() || common.IsEmpty(invs) {
		return res, diags
	}

	if r.cfg.StripTag != "" && !hasTagConstraint(file.Syntax, r.cfg.StripTag) {
		// An untagged invocation file breaks every build between edits and
		// expansion runs.
		diags.AddWarning(CodeUntagged,
			fmt.Sprintf("file contains invocations but no %q build constraint", r.cfg.StripTag),
			file.Name)
	}

	tracked := make(map[*ast.CallExpr]bool, len(invs))
	for _, inv := range invs {
		tracked[inv.Call] = true
	}

	ctx := expand.NewContext(file)
	recordBaseTypes(file, invs, tracked, ctx)
	stmtCalls := statementEligible(file.Syntax, tracked)

	r.apply(file, ctx, tracked, stmtCalls, res, &diags)

	if diags.HasErrors() {
		return &Result{File: file}, diags
	}

	r.fixImports(file, ctx)

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, file.Pkg.Fset, file.Syntax); err != nil {
		diags.AddError(CodeFormat, "printing rewritten file: "+err.Error(), file.Name)

		return &Result{File: file}, diags
	}

	content, err := format.Source(buf.Bytes())
	if err != nil {
		// Best-effort: keep the unformatted output around for debugging.
		_ = writeDebugUnformatted(filepath.Dir(file.Name), filepath.Base(file.Name), buf.Bytes())
		diags.AddError(CodeFormat, "formatting rewritten file: "+err.Error(), file.Name)

		return &Result{File: file}, diags
	}
	if r.cfg.StripTag != "" {
		content = stripConstraint(content, r.cfg.StripTag)
	}

	res.Content = content
	res.Changed = res.Expanded > 0

	return res, diags
}

// apply walks the file bottom-up, expanding inner invocations before the
// ones that contain them.
func (r *Rewriter) apply(
	file *analyze.File,
	ctx *expand.Context,
	tracked map[*ast.CallExpr]bool,
	stmtCalls map[*ast.CallExpr]bool,
	res *Result,
	diags *diagnostic.Diagnostics,
) {
	astutil.Apply(file.Syntax, nil, func(c *astutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.CallExpr:
			if !tracked[n] || stmtCalls[n] {
				return true
			}

			expr, ok := r.expandExpr(file, ctx, n, diags)
			if ok {
				c.Replace(expr)
				res.Expanded++
			}

		case *ast.AssignStmt:
			call, ok := soleRhsCall(n, tracked, stmtCalls)
			if !ok {
				return true
			}

			if c.Index() < 0 {
				// Init statement of an if/for/switch: no room to hoist
				// statements, fall back to the expression form in place.
				expr, ok := r.expandExpr(file, ctx, call, diags)
				if ok {
					n.Rhs[0] = expr
					res.Expanded++
				}

				return true
			}

			stmts, local := expand.Stmts(invocation.FromValidCall(call), ctx)
			for _, stmt := range stmts {
				c.InsertBefore(stmt)
			}

			c.Replace(&ast.AssignStmt{
				Lhs: n.Lhs,
				Tok: n.Tok,
				Rhs: []ast.Expr{local},
			})
			res.Expanded++

		case *ast.DeclStmt:
			spec, call, ok := soleVarCall(n, tracked, stmtCalls)
			if !ok {
				return true
			}

			stmts, local := expand.Stmts(invocation.FromValidCall(call), ctx)
			for _, stmt := range stmts {
				c.InsertBefore(stmt)
			}

			spec.Values[0] = local
			res.Expanded++
		}

		return true
	})
}

// expandExpr builds the expression form for a call, reporting a diagnostic
// with a fix suggestion when the base type cannot be named here.
func (r *Rewriter) expandExpr(
	file *analyze.File,
	ctx *expand.Context,
	call *ast.CallExpr,
	diags *diagnostic.Diagnostics,
) (ast.Expr, bool) {
	expr, err := expand.Expr(invocation.FromValidCall(call), ctx)
	if err != nil {
		diags.AddErrorWithSuggestions(CodeExpand, err.Error(), file.Position(call.Pos()),
			"assign the result to a variable so the statement form can be used")

		return nil, false
	}

	return expr, true
}

// recordBaseTypes resolves each invocation's base type before expansion
// mutates the syntax. An invocation's value has its base's type, so when the
// base is itself a tracked invocation the chain is followed down to the
// innermost base expression, which the type info can still answer for.
func recordBaseTypes(
	file *analyze.File,
	invs []*invocation.Invocation,
	tracked map[*ast.CallExpr]bool,
	ctx *expand.Context,
) {
	for _, inv := range invs {
		base := inv.Base
		for {
			call, ok := base.(*ast.CallExpr)
			if !ok || !tracked[call] {
				break
			}

			base = call.Args[0]
		}

		if t := file.TypeOf(base); t != nil {
			ctx.BaseTypes[inv.Call] = t
		}
	}
}

// statementEligible marks tracked calls that are the sole right-hand side of
// a simple assignment or a single-variable var declaration inside a
// function. Those sites take the statement form of the expansion.
func statementEligible(file *ast.File, tracked map[*ast.CallExpr]bool) map[*ast.CallExpr]bool {
	eligible := make(map[*ast.CallExpr]bool)

	ast.Inspect(file, func(n ast.Node) bool {
		switch stmt := n.(type) {
		case *ast.AssignStmt:
			if call, ok := soleRhsCall(stmt, tracked, nil); ok {
				eligible[call] = true
			}

		case *ast.DeclStmt:
			if _, call, ok := soleVarCall(stmt, tracked, nil); ok {
				eligible[call] = true
			}
		}

		return true
	})

	return eligible
}

// soleRhsCall returns the tracked call when the assignment has exactly one
// left-hand side and the call as its only right-hand side. When expect is
// non-nil the call must additionally be marked in it.
func soleRhsCall(
	stmt *ast.AssignStmt,
	tracked map[*ast.CallExpr]bool,
	expect map[*ast.CallExpr]bool,
) (*ast.CallExpr, bool) {
	if !common.IsSingle(stmt.Lhs) || !common.IsSingle(stmt.Rhs) {
		return nil, false
	}

	call, ok := stmt.Rhs[0].(*ast.CallExpr)
	if !ok || !tracked[call] {
		return nil, false
	}

	if expect != nil && !expect[call] {
		return nil, false
	}

	return call, true
}

// soleVarCall matches `var x = assign.With(...)` declaration statements.
func soleVarCall(
	stmt *ast.DeclStmt,
	tracked map[*ast.CallExpr]bool,
	expect map[*ast.CallExpr]bool,
) (*ast.ValueSpec, *ast.CallExpr, bool) {
	decl, ok := stmt.Decl.(*ast.GenDecl)
	if !ok || decl.Tok != token.VAR || !common.IsSingle(decl.Specs) {
		return nil, nil, false
	}

	spec, ok := decl.Specs[0].(*ast.ValueSpec)
	if !ok || !common.IsSingle(spec.Names) || !common.IsSingle(spec.Values) {
		return nil, nil, false
	}

	call, ok := spec.Values[0].(*ast.CallExpr)
	if !ok || !tracked[call] {
		return nil, nil, false
	}

	if expect != nil && !expect[call] {
		return nil, nil, false
	}

	return spec, call, true
}

// fixImports adds imports demanded by rendered type names and drops the
// marker import once nothing references it anymore.
func (r *Rewriter) fixImports(file *analyze.File, ctx *expand.Context) {
	fset := file.Pkg.Fset

	for path, name := range ctx.Imports {
		if name == common.PkgAlias(path) {
			astutil.AddImport(fset, file.Syntax, path)
		} else {
			astutil.AddNamedImport(fset, file.Syntax, name, path)
		}
	}

	if astutil.UsesImport(file.Syntax, r.cfg.Marker.PkgPath) {
		return
	}

	// Collect first: deleting mutates the import lists.
	var names []string
	for _, imp := range file.Syntax.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != r.cfg.Marker.PkgPath {
			continue
		}

		name := ""
		if imp.Name != nil {
			name = imp.Name.Name
		}

		names = append(names, name)
	}

	for _, name := range names {
		astutil.DeleteNamedImport(fset, file.Syntax, name, r.cfg.Marker.PkgPath)
	}
}
