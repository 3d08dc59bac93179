package analyze

import (
	"go/ast"
	"go/token"
	"go/types"
)

// Package is a loaded Go package with the information the rewriter needs.
type Package struct {
	// PkgPath is the package import path.
	PkgPath string
	// Name is the package name.
	Name string
	// Fset is the file set the package was parsed into.
	Fset *token.FileSet
	// Types is the type-checked package (may contain errors for files with
	// unexpanded invocations).
	Types *types.Package
	// TypesInfo holds type information for expressions where type checking
	// succeeded.
	TypesInfo *types.Info
	// Files are the compiled Go files of the package, in load order.
	Files []*File
}

// File is a single parsed source file within a Package.
type File struct {
	// Name is the absolute path of the file.
	Name string
	// Syntax is the parsed file.
	Syntax *ast.File
	// Pkg is the package the file belongs to.
	Pkg *Package
}

// Position renders a token.Pos of this file as "file:line:col".
func (f *File) Position(pos token.Pos) string {
	if f.Pkg == nil || f.Pkg.Fset == nil || !pos.IsValid() {
		return f.Name
	}

	return f.Pkg.Fset.Position(pos).String()
}

// TypeOf returns the static type of an expression, or nil if type checking
// did not determine one (expected inside unexpanded invocations).
func (f *File) TypeOf(expr ast.Expr) types.Type {
	if f.Pkg == nil || f.Pkg.TypesInfo == nil {
		return nil
	}

	return f.Pkg.TypesInfo.TypeOf(expr)
}

// InnermostScope returns the innermost type-checker scope enclosing pos,
// or nil if scope information is unavailable.
func (f *File) InnermostScope(pos token.Pos) *types.Scope {
	if f.Pkg == nil || f.Pkg.Types == nil {
		return nil
	}

	scope := f.Pkg.Types.Scope()
	if scope == nil {
		return nil
	}

	if inner := scope.Innermost(pos); inner != nil {
		return inner
	}

	return scope
}
