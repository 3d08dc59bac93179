package invocation

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"

	"assigngen/internal/common"
	"assigngen/internal/diagnostic"
)

// Shape error codes reported by the scanner.
const (
	CodeArgCount      = "shape/arg-count"
	CodeFieldsLiteral = "shape/fields-literal"
	CodeEmptyClauses  = "shape/empty-clauses"
	CodeClauseKey     = "shape/clause-key"
	CodeClauseElement = "shape/clause-element"
)

// Scanner finds directive invocations in a file and validates their shape.
//
// Matching is purely syntactic: a call of the form alias.With(base,
// alias.Fields{...}) where alias is how the marker package is imported in
// the file. A local name shadowing the import alias would be misread; in
// practice directive files are small and do not shadow their imports.
type Scanner struct {
	marker Marker
}

// NewScanner creates a Scanner for the given marker.
func NewScanner(marker Marker) *Scanner {
	return &Scanner{marker: marker}
}

// Scan walks the file and returns every well-formed invocation in source
// order. Malformed invocations produce error diagnostics and are excluded
// from the result: no partial expansion is ever attempted for them.
func (s *Scanner) Scan(fset *token.FileSet, file *ast.File) ([]*Invocation, diagnostic.Diagnostics) {
	var (
		invs  []*Invocation
		diags diagnostic.Diagnostics
	)

	names := markerNames(file, s.marker.PkgPath)
	if len(names) == 0 {
		return nil, diags
	}

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		if !s.isMarkerCall(call, names) {
			return true
		}

		inv, invDiags := s.parseInvocation(fset, call, names)
		diags.Merge(invDiags)

		if inv != nil {
			invs = append(invs, inv)
		}

		return true
	})

	return invs, diags
}

// isMarkerCall reports whether the call's function is the directive selector.
func (s *Scanner) isMarkerCall(call *ast.CallExpr, names map[string]bool) bool {
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		if !ok {
			return false
		}

		return names[pkg.Name] && fun.Sel.Name == s.marker.Func

	case *ast.Ident:
		// Dot import: the directive is called as a bare identifier.
		return names["."] && fun.Name == s.marker.Func

	default:
		return false
	}
}

// parseInvocation validates the invocation shape and extracts its parts.
func (s *Scanner) parseInvocation(
	fset *token.FileSet,
	call *ast.CallExpr,
	names map[string]bool,
) (*Invocation, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	pos := position(fset, call.Pos())

	if len(call.Args) != 2 {
		diags.AddError(CodeArgCount,
			fmt.Sprintf("%s.%s takes a base expression and a %s literal, got %d arguments",
				common.PkgAlias(s.marker.PkgPath), s.marker.Func, s.marker.Fields, len(call.Args)),
			pos)

		return nil, diags
	}

	lit, ok := call.Args[1].(*ast.CompositeLit)
	if !ok || !s.isFieldsType(lit.Type, names) {
		diags.AddError(CodeFieldsLiteral,
			fmt.Sprintf("second argument must be a %s composite literal", s.marker.Fields),
			position(fset, call.Args[1].Pos()))

		return nil, diags
	}

	if common.IsEmpty(lit.Elts) {
		diags.AddError(CodeEmptyClauses,
			"at least one field clause is required",
			position(fset, lit.Pos()))

		return nil, diags
	}

	inv := &Invocation{
		Call: call,
		Base: call.Args[0],
	}

	for _, elt := range lit.Elts {
		clause, err := parseClause(elt)
		if err != nil {
			diags.AddError(err.code, err.msg, position(fset, elt.Pos()))
			continue
		}

		inv.Clauses = append(inv.Clauses, clause)
	}

	// Any malformed clause poisons the whole invocation.
	if diags.HasErrors() {
		return nil, diags
	}

	return inv, diags
}

// isFieldsType reports whether the literal type is the marker's Fields type.
func (s *Scanner) isFieldsType(typ ast.Expr, names map[string]bool) bool {
	switch t := typ.(type) {
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return false
		}

		return names[pkg.Name] && t.Sel.Name == s.marker.Fields

	case *ast.Ident:
		return names["."] && t.Name == s.marker.Fields

	default:
		return false
	}
}

// clauseError is a shape error local to a single clause element.
type clauseError struct {
	code string
	msg  string
}

func (e *clauseError) Error() string {
	return e.msg
}

// parseClause converts one composite-literal element into a Clause.
func parseClause(elt ast.Expr) (Clause, *clauseError) {
	switch e := elt.(type) {
	case *ast.KeyValueExpr:
		key, ok := e.Key.(*ast.Ident)
		if !ok {
			return Clause{}, &clauseError{
				code: CodeClauseKey,
				msg:  "field clause key must be an identifier",
			}
		}

		return Clause{Name: key.Name, NamePos: key.Pos(), Value: e.Value}, nil

	case *ast.Ident:
		// Shorthand clause: the field is assigned from the in-scope
		// variable of the same name.
		return Clause{Name: e.Name, NamePos: e.Pos()}, nil

	default:
		return Clause{}, &clauseError{
			code: CodeClauseElement,
			msg:  "field clause must be \"Name: value\" or a bare identifier",
		}
	}
}

// markerNames returns the local names under which the marker package is
// imported in the file. A dot import is recorded under ".".
func markerNames(file *ast.File, pkgPath string) map[string]bool {
	names := make(map[string]bool)

	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != pkgPath {
			continue
		}

		if imp.Name != nil {
			names[imp.Name.Name] = true
		} else {
			names[common.PkgAlias(pkgPath)] = true
		}
	}

	return names
}

// position renders a token.Pos, tolerating a nil file set in tests.
func position(fset *token.FileSet, pos token.Pos) string {
	if fset == nil || !pos.IsValid() {
		return ""
	}

	return fset.Position(pos).String()
}
