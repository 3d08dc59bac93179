package expand

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"

	"assigngen/internal/analyze"
	"assigngen/internal/invocation"
)

// Error codes reported by the expander.
const (
	CodeBaseType = "expand/base-type"
)

// Context carries call-site information needed to build expansions for one
// file. Expansions are otherwise independent of each other: nothing is
// shared between invocation sites beyond the import set of the file they
// live in.
type Context struct {
	// File is the file being rewritten.
	File *analyze.File
	// Imports collects extra imports required by rendered type names,
	// keyed by import path; the value is the local name to import under.
	Imports map[string]string
	// BaseTypes overrides type lookup per invocation call. Expansion
	// proceeds bottom-up, so by the time an outer invocation is expanded
	// its base may already be a synthesized node the type info knows
	// nothing about; callers record the base types up front while the
	// syntax still matches the type info.
	BaseTypes map[*ast.CallExpr]types.Type
}

// NewContext creates a Context for a file.
func NewContext(file *analyze.File) *Context {
	return &Context{
		File:      file,
		Imports:   make(map[string]string),
		BaseTypes: make(map[*ast.CallExpr]types.Type),
	}
}

// Stmts builds the statement form of an expansion:
//
//	item := base
//	item.Name = value
//	item.Other = Other
//
// It returns the statements and an identifier for the bound local, which
// holds the invocation's value. The base expression appears exactly once
// and clauses are emitted in source order; duplicate clauses simply assign
// the same field twice, so the rightmost value wins.
//
// The statement form needs no type name, so it works even where the base
// type cannot be spelled at the call site.
func Stmts(inv *invocation.Invocation, ctx *Context) ([]ast.Stmt, *ast.Ident) {
	local := freshLocal(inv, ctx)

	stmts := make([]ast.Stmt, 0, len(inv.Clauses)+1)
	stmts = append(stmts, &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(local)},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{inv.Base},
	})

	for _, clause := range inv.Clauses {
		stmts = append(stmts, assignClause(local, clause))
	}

	return stmts, ast.NewIdent(local)
}

// Expr builds the expression form of an expansion:
//
//	func() T {
//		item := base
//		item.Name = value
//		return item
//	}()
//
// T is the static type of the base expression, rendered against the file's
// imports. Expr fails when that type is unknown (the base expression itself
// has a type error) or cannot be named at the call site; the statement form
// is the fallback to suggest in that case.
func Expr(inv *invocation.Invocation, ctx *Context) (ast.Expr, error) {
	typeStr, err := ctx.baseTypeString(inv)
	if err != nil {
		return nil, err
	}

	typeExpr, err := parser.ParseExpr(typeStr)
	if err != nil {
		return nil, fmt.Errorf("rendered base type %q does not parse: %w", typeStr, err)
	}

	zeroPos(typeExpr)

	stmts, result := Stmts(inv, ctx)
	body := append(stmts, &ast.ReturnStmt{Results: []ast.Expr{result}})

	return &ast.CallExpr{
		Fun: &ast.FuncLit{
			Type: &ast.FuncType{
				Params: &ast.FieldList{},
				Results: &ast.FieldList{
					List: []*ast.Field{{Type: typeExpr}},
				},
			},
			Body: &ast.BlockStmt{List: body},
		},
	}, nil
}

// assignClause emits the single-clause assignment: local.Name = value for a
// full clause, local.Name = Name for a shorthand clause. The shorthand
// identifier resolves in the enclosing scope at the call site; if no such
// variable exists the compiler reports it on the expanded code.
func assignClause(local string, clause invocation.Clause) ast.Stmt {
	value := clause.Value
	if clause.Shorthand() {
		value = ast.NewIdent(clause.Name)
	}

	return &ast.AssignStmt{
		Lhs: []ast.Expr{&ast.SelectorExpr{
			X:   ast.NewIdent(local),
			Sel: ast.NewIdent(clause.Name),
		}},
		Tok: token.ASSIGN,
		Rhs: []ast.Expr{value},
	}
}

// zeroPos clears position information from a freshly parsed expression.
// ParseExpr assigns offsets in its own file set; printed against the
// rewritten file's set those offsets force bogus line breaks inside the
// expression.
func zeroPos(node ast.Node) {
	ast.Inspect(node, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.Ident:
			e.NamePos = token.NoPos
		case *ast.BasicLit:
			e.ValuePos = token.NoPos
		case *ast.StarExpr:
			e.Star = token.NoPos
		case *ast.ParenExpr:
			e.Lparen, e.Rparen = token.NoPos, token.NoPos
		case *ast.Ellipsis:
			e.Ellipsis = token.NoPos
		case *ast.ArrayType:
			e.Lbrack = token.NoPos
		case *ast.MapType:
			e.Map = token.NoPos
		case *ast.ChanType:
			e.Begin, e.Arrow = token.NoPos, token.NoPos
		case *ast.StructType:
			e.Struct = token.NoPos
		case *ast.InterfaceType:
			e.Interface = token.NoPos
		case *ast.FuncType:
			e.Func = token.NoPos
		case *ast.IndexExpr:
			e.Lbrack, e.Rbrack = token.NoPos, token.NoPos
		case *ast.IndexListExpr:
			e.Lbrack, e.Rbrack = token.NoPos, token.NoPos
		case *ast.FieldList:
			e.Opening, e.Closing = token.NoPos, token.NoPos
		}

		return true
	})
}

// freshLocal picks a local name that collides neither with identifiers used
// inside the invocation nor with any name visible at the call site.
func freshLocal(inv *invocation.Invocation, ctx *Context) string {
	blocked := make(map[string]bool)

	ast.Inspect(inv.Call, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			blocked[id.Name] = true
		}

		return true
	})

	if ctx != nil && ctx.File != nil {
		for sc := ctx.File.InnermostScope(inv.Pos()); sc != nil; sc = sc.Parent() {
			for _, name := range sc.Names() {
				blocked[name] = true
			}
		}
	}

	name := "item"
	for i := 2; blocked[name]; i++ {
		name = fmt.Sprintf("item%d", i)
	}

	return name
}
