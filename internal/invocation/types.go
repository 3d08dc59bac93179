package invocation

import (
	"go/ast"
	"go/token"
)

// Marker identifies the directive call recognized by the scanner.
type Marker struct {
	// PkgPath is the import path of the marker package.
	PkgPath string
	// Func is the name of the directive function.
	Func string
	// Fields is the name of the clause-carrier type.
	Fields string
}

// DefaultMarker returns the marker for the bundled assign package.
func DefaultMarker() Marker {
	return Marker{
		PkgPath: "assigngen/assign",
		Func:    "With",
		Fields:  "Fields",
	}
}

// Clause is one field override inside an invocation.
type Clause struct {
	// Name is the field name being assigned.
	Name string
	// NamePos is the position of the field name.
	NamePos token.Pos
	// Value is the expression assigned to the field, or nil for a shorthand
	// clause (the field is assigned from the in-scope variable of the same
	// name).
	Value ast.Expr
}

// Shorthand reports whether the clause has no explicit value.
func (c Clause) Shorthand() bool {
	return c.Value == nil
}

// Invocation is one well-formed directive call found in a file.
type Invocation struct {
	// Call is the original call expression.
	Call *ast.CallExpr
	// Base is the base expression whose value is copied and mutated.
	Base ast.Expr
	// Clauses are the field clauses in source order. Always non-empty.
	Clauses []Clause
}

// Pos returns the position of the invocation.
func (inv *Invocation) Pos() token.Pos {
	return inv.Call.Pos()
}

// FromValidCall rebuilds an Invocation from a call that already passed shape
// checking. The rewriter expands invocations bottom-up, so by the time an
// outer invocation is expanded its base or clause values may have been
// replaced in place; re-reading the call picks those replacements up. The
// shape itself cannot have changed, so no validation is repeated.
func FromValidCall(call *ast.CallExpr) *Invocation {
	inv := &Invocation{
		Call: call,
		Base: call.Args[0],
	}

	lit := call.Args[1].(*ast.CompositeLit)
	for _, elt := range lit.Elts {
		switch e := elt.(type) {
		case *ast.KeyValueExpr:
			key := e.Key.(*ast.Ident)
			inv.Clauses = append(inv.Clauses, Clause{
				Name:    key.Name,
				NamePos: key.Pos(),
				Value:   e.Value,
			})

		case *ast.Ident:
			inv.Clauses = append(inv.Clauses, Clause{Name: e.Name, NamePos: e.Pos()})
		}
	}

	return inv
}
