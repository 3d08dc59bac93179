package analyze

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadExamples(t *testing.T) {
	loader := NewLoader(LoaderConfig{BuildTags: []string{"assign"}})

	pkgs, err := loader.Load("assigngen/examples/profile", "assigngen/examples/jobs")
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	var profile *Package
	for _, pkg := range pkgs {
		if pkg.PkgPath == "assigngen/examples/profile" {
			profile = pkg
		}
	}

	require.NotNil(t, profile)
	assert.Equal(t, "profile", profile.Name)

	// With the assign tag enabled, the invocation file is part of the
	// package even though it cannot type-check yet.
	var hasUpdate bool
	for _, file := range profile.Files {
		require.NotNil(t, file.Syntax)
		assert.Same(t, profile, file.Pkg)

		if strings.HasSuffix(file.Name, "update.go") {
			hasUpdate = true
		}
	}

	assert.True(t, hasUpdate, "update.go should be loaded under the assign tag")
}

func TestLoader_TagExcludesInvocationFiles(t *testing.T) {
	loader := NewLoader(LoaderConfig{})

	pkgs, err := loader.Load("assigngen/examples/profile")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	for _, file := range pkgs[0].Files {
		assert.False(t, strings.HasSuffix(file.Name, "update.go"),
			"update.go must be excluded without the assign tag")
	}
}

func TestLoader_BadPattern(t *testing.T) {
	loader := NewLoader(LoaderConfig{BuildTags: []string{"assign"}})

	_, err := loader.Load("assigngen/does/not/exist")
	assert.Error(t, err)
}

func TestFile_Position(t *testing.T) {
	loader := NewLoader(LoaderConfig{BuildTags: []string{"assign"}})

	pkgs, err := loader.Load("assigngen/examples/profile")
	require.NoError(t, err)

	file := pkgs[0].Files[0]
	pos := file.Position(file.Syntax.Package)

	assert.Contains(t, pos, ".go:")
}
