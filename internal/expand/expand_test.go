package expand

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assigngen/internal/analyze"
	"assigngen/internal/invocation"
)

// parseOnly wraps a parsed file without type information, the state the
// expander must tolerate for statement-form expansions.
func parseOnly(t *testing.T, src string) *analyze.File {
	t.Helper()

	fset := token.NewFileSet()
	syntax, err := parser.ParseFile(fset, "test.go", src, 0)
	require.NoError(t, err)

	return &analyze.File{
		Name:   "test.go",
		Syntax: syntax,
		Pkg:    &analyze.Package{Fset: fset},
	}
}

// typechecked wraps a parsed and type-checked file. Type errors are
// collected and ignored: files with unexpanded invocations never fully
// type-check, and that is the expander's normal operating state.
func typechecked(t *testing.T, src string) *analyze.File {
	t.Helper()

	fset := token.NewFileSet()
	syntax, err := parser.ParseFile(fset, "test.go", src, 0)
	require.NoError(t, err)

	info := &types.Info{
		Types:  make(map[ast.Expr]types.TypeAndValue),
		Defs:   make(map[*ast.Ident]types.Object),
		Uses:   make(map[*ast.Ident]types.Object),
		Scopes: make(map[ast.Node]*types.Scope),
	}

	conf := types.Config{Error: func(error) {}}
	pkg, _ := conf.Check("p", fset, []*ast.File{syntax}, info)

	return &analyze.File{
		Name:   "test.go",
		Syntax: syntax,
		Pkg: &analyze.Package{
			Name:      "p",
			Fset:      fset,
			Types:     pkg,
			TypesInfo: info,
		},
	}
}

func firstInvocation(t *testing.T, file *analyze.File) *invocation.Invocation {
	t.Helper()

	scanner := invocation.NewScanner(invocation.DefaultMarker())
	invs, diags := scanner.Scan(file.Pkg.Fset, file.Syntax)
	require.False(t, diags.HasErrors(), "fixture must be well-formed: %v", diags.Error())
	require.NotEmpty(t, invs)

	return invs[0]
}

func renderStmts(t *testing.T, stmts []ast.Stmt) []string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, token.NewFileSet(), stmts))

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return lines
}

func renderExpr(t *testing.T, expr ast.Expr) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, token.NewFileSet(), expr))

	return buf.String()
}

const fixture = `package p

import "assigngen/assign"

type Options struct {
	Name     string
	Retries  int
	Endpoint string
}

func defaults() Options { return Options{} }
`

func TestStmts_ClauseOrderAndSingleEvaluation(t *testing.T) {
	file := parseOnly(t, fixture+`
func f(name string, Retries int) {
	opts := assign.With(defaults(), assign.Fields{
		Name: name,
		Retries,
		Endpoint: "x",
	})
	_ = opts
}
`)

	inv := firstInvocation(t, file)
	stmts, result := Stmts(inv, NewContext(file))

	lines := renderStmts(t, stmts)
	require.Equal(t, []string{
		"item := defaults()",
		"item.Name = name",
		"item.Retries = Retries",
		`item.Endpoint = "x"`,
	}, lines)

	assert.Equal(t, "item", result.Name)

	// The base expression is bound exactly once, whatever the clause count.
	assert.Equal(t, 1, strings.Count(strings.Join(lines, "\n"), "defaults()"))
}

func TestStmts_ShorthandEquivalence(t *testing.T) {
	shorthand := parseOnly(t, fixture+`
func f(Retries int) {
	opts := assign.With(defaults(), assign.Fields{Retries})
	_ = opts
}
`)
	explicit := parseOnly(t, fixture+`
func f(Retries int) {
	opts := assign.With(defaults(), assign.Fields{Retries: Retries})
	_ = opts
}
`)

	short, _ := Stmts(firstInvocation(t, shorthand), NewContext(shorthand))
	full, _ := Stmts(firstInvocation(t, explicit), NewContext(explicit))

	assert.Equal(t, renderStmts(t, full), renderStmts(t, short))
}

func TestStmts_DuplicateClausesLastWriteWins(t *testing.T) {
	file := parseOnly(t, fixture+`
func f() {
	opts := assign.With(defaults(), assign.Fields{
		Endpoint: "fallback",
		Endpoint: "primary",
	})
	_ = opts
}
`)

	stmts, _ := Stmts(firstInvocation(t, file), NewContext(file))
	lines := renderStmts(t, stmts)

	// Both assignments are emitted in source order; the host language's
	// assignment semantics make the rightmost value win.
	require.Equal(t, []string{
		"item := defaults()",
		`item.Endpoint = "fallback"`,
		`item.Endpoint = "primary"`,
	}, lines)
}

func TestStmts_FreshLocalAvoidsInvocationIdents(t *testing.T) {
	file := parseOnly(t, fixture+`
func f(item Options, item2 string) {
	opts := assign.With(item, assign.Fields{Name: item2})
	_ = opts
}
`)

	stmts, result := Stmts(firstInvocation(t, file), NewContext(file))

	assert.Equal(t, "item3", result.Name)
	assert.Equal(t, "item3 := item", renderStmts(t, stmts)[0])
}

func TestStmts_FreshLocalAvoidsScopeNames(t *testing.T) {
	file := typechecked(t, fixture+`
func f(name string) {
	item := 1
	_ = item
	opts := assign.With(defaults(), assign.Fields{Name: name})
	_ = opts
}
`)

	stmts, result := Stmts(firstInvocation(t, file), NewContext(file))

	// "item" is taken by a variable visible at the call site.
	assert.Equal(t, "item2", result.Name)
	assert.Equal(t, "item2 := defaults()", renderStmts(t, stmts)[0])
}

func TestExpr_TypedFunctionLiteral(t *testing.T) {
	file := typechecked(t, fixture+`
func g(o Options) Options { return o }

func f(name string) Options {
	return g(assign.With(defaults(), assign.Fields{Name: name}))
}
`)

	expr, err := Expr(firstInvocation(t, file), NewContext(file))
	require.NoError(t, err)

	out := renderExpr(t, expr)
	assert.Contains(t, out, "func() Options {")
	assert.Contains(t, out, "item := defaults()")
	assert.Contains(t, out, "item.Name = name")
	assert.Contains(t, out, "return item")
	assert.True(t, strings.HasSuffix(out, "}()"), "expansion must be immediately invoked: %s", out)
	assert.Equal(t, 1, strings.Count(out, "defaults()"))
}

func TestExpr_FailsWithoutTypeInfo(t *testing.T) {
	file := parseOnly(t, fixture+`
func f() {
	g(assign.With(defaults(), assign.Fields{Name: "n"}))
}
`)

	_, err := Expr(firstInvocation(t, file), NewContext(file))
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeBaseType)
}

func TestExpr_RejectsMultiValuedBase(t *testing.T) {
	file := typechecked(t, fixture+`
func multi() (Options, error) { return Options{}, nil }

func f() {
	g(assign.With(multi(), assign.Fields{Name: "n"}))
}
`)

	_, err := Expr(firstInvocation(t, file), NewContext(file))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multi-valued")
}
