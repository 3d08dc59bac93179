package rewrite_test

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assigngen/internal/analyze"
	"assigngen/internal/rewrite"
)

// rewriteExample loads an example package under the assign tag and rewrites
// its invocation file.
func rewriteExample(t *testing.T, pkgPath, filename string) string {
	t.Helper()

	loader := analyze.NewLoader(analyze.LoaderConfig{BuildTags: []string{"assign"}})
	pkgs, err := loader.Load(pkgPath)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	var target *analyze.File
	for _, file := range pkgs[0].Files {
		if strings.HasSuffix(file.Name, filename) {
			target = file
		}
	}

	require.NotNil(t, target, "%s not found in %s", filename, pkgPath)

	rewriter := rewrite.NewRewriter(rewrite.DefaultConfig())
	res, diags := rewriter.RewriteFile(target)
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %v", diags.Error())
	require.True(t, res.Changed)

	if testing.Verbose() {
		t.Log(spew.Sdump(res.Expanded, diags))
	}

	return string(res.Content)
}

func TestExamples_ProfileStatementForm(t *testing.T) {
	out := rewriteExample(t, "assigngen/examples/profile", "update.go")

	// Worker: statement-position invocation with full and shorthand clauses.
	assert.Contains(t, out, "item := Defaults()")
	assert.Contains(t, out, "item.Name = name")
	assert.Contains(t, out, "item.Retries = Retries")
	assert.Contains(t, out, "item.Timeout = 10 * time.Second")
	assert.Contains(t, out, "opts := item")

	// Pinned: return-position invocation, duplicate clauses in order.
	assert.Contains(t, out, "func() Options {")
	assert.Less(t,
		strings.Index(out, "item.Endpoint = fallback"),
		strings.Index(out, "item.Endpoint = primary"))

	// The directive surface is gone from the output.
	assert.NotContains(t, out, "assign.With")
	assert.NotContains(t, out, "assigngen/assign")
	assert.NotContains(t, out, "//go:build assign")

	// Each base expression is evaluated exactly once.
	assert.Equal(t, 2, strings.Count(out, "Defaults()"))
}

func TestExamples_JobsExpressionForm(t *testing.T) {
	out := rewriteExample(t, "assigngen/examples/jobs", "enqueue.go")

	// Argument-position invocation across packages: the function literal is
	// typed with the qualified name.
	assert.Contains(t, out, "func() profile.Options {")
	assert.Contains(t, out, "item := profile.Defaults()")
	assert.Contains(t, out, "item.Name = queue")
	assert.Contains(t, out, "return item")

	assert.NotContains(t, out, "assign.With")
	assert.Contains(t, out, `"assigngen/examples/profile"`)
}
