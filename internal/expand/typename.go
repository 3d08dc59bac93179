package expand

import (
	"fmt"
	"go/types"
	"strconv"

	"assigngen/internal/common"
	"assigngen/internal/invocation"
)

// baseTypeString renders the static type of the invocation's base expression
// as it must be spelled in this file, registering any imports the spelling
// needs.
func (ctx *Context) baseTypeString(inv *invocation.Invocation) (string, error) {
	t := ctx.BaseTypes[inv.Call]
	if t == nil {
		t = ctx.File.TypeOf(inv.Base)
	}

	if t == nil {
		return "", fmt.Errorf("[%s] cannot determine the type of the base expression", CodeBaseType)
	}

	if basic, ok := t.(*types.Basic); ok && basic.Kind() == types.Invalid {
		return "", fmt.Errorf("[%s] base expression has an invalid type", CodeBaseType)
	}

	if err := ctx.checkNameable(t, make(map[types.Type]bool)); err != nil {
		return "", fmt.Errorf("[%s] %w", CodeBaseType, err)
	}

	return types.TypeString(t, ctx.qualifier), nil
}

// qualifier maps a package to the name it is (or will be) imported under in
// the current file. The current package qualifies to the empty string.
func (ctx *Context) qualifier(pkg *types.Package) string {
	if pkg == nil || (ctx.File.Pkg != nil && pkg == ctx.File.Pkg.Types) {
		return ""
	}

	if name, ok := ctx.fileImportName(pkg.Path()); ok {
		return name
	}

	if name, ok := ctx.Imports[pkg.Path()]; ok {
		return name
	}

	name := ctx.unusedImportName(pkg.Name())
	ctx.Imports[pkg.Path()] = name

	return name
}

// fileImportName returns the local name of an existing import of path in the
// file, if any.
func (ctx *Context) fileImportName(path string) (string, bool) {
	if ctx.File == nil || ctx.File.Syntax == nil {
		return "", false
	}

	for _, imp := range ctx.File.Syntax.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != path {
			continue
		}

		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}

			return imp.Name.Name, true
		}

		return common.PkgAlias(path), true
	}

	return "", false
}

// unusedImportName disambiguates a preferred import name against the names
// already taken by the file's imports and by pending registrations.
func (ctx *Context) unusedImportName(preferred string) string {
	taken := make(map[string]bool)

	if ctx.File != nil && ctx.File.Syntax != nil {
		for _, imp := range ctx.File.Syntax.Imports {
			if imp.Name != nil {
				taken[imp.Name.Name] = true
				continue
			}

			if p, err := strconv.Unquote(imp.Path.Value); err == nil {
				taken[common.PkgAlias(p)] = true
			}
		}
	}

	for _, name := range ctx.Imports {
		taken[name] = true
	}

	name := preferred
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s%d", preferred, i)
	}

	return name
}

// checkNameable reports an error when a type cannot be spelled at the call
// site, which rules out the expression form of the expansion. Named types
// are nameable when exported or local to the current package; structural
// types are checked component-wise.
func (ctx *Context) checkNameable(t types.Type, seen map[types.Type]bool) error {
	if t == nil || seen[t] {
		return nil
	}

	seen[t] = true

	switch tt := t.(type) {
	case *types.Basic:
		return nil

	case *types.Named:
		if err := ctx.checkNameableObj(tt.Obj()); err != nil {
			return err
		}

		args := tt.TypeArgs()
		for i := 0; i < args.Len(); i++ {
			if err := ctx.checkNameable(args.At(i), seen); err != nil {
				return err
			}
		}

		return nil

	case *types.Alias:
		return ctx.checkNameableObj(tt.Obj())

	case *types.TypeParam:
		return nil

	case *types.Pointer:
		return ctx.checkNameable(tt.Elem(), seen)

	case *types.Slice:
		return ctx.checkNameable(tt.Elem(), seen)

	case *types.Array:
		return ctx.checkNameable(tt.Elem(), seen)

	case *types.Chan:
		return ctx.checkNameable(tt.Elem(), seen)

	case *types.Map:
		if err := ctx.checkNameable(tt.Key(), seen); err != nil {
			return err
		}

		return ctx.checkNameable(tt.Elem(), seen)

	case *types.Struct:
		for i := 0; i < tt.NumFields(); i++ {
			if err := ctx.checkNameable(tt.Field(i).Type(), seen); err != nil {
				return err
			}
		}

		return nil

	case *types.Interface:
		for i := 0; i < tt.NumEmbeddeds(); i++ {
			if err := ctx.checkNameable(tt.EmbeddedType(i), seen); err != nil {
				return err
			}
		}

		for i := 0; i < tt.NumExplicitMethods(); i++ {
			if err := ctx.checkNameable(tt.ExplicitMethod(i).Type(), seen); err != nil {
				return err
			}
		}

		return nil

	case *types.Signature:
		for i := 0; i < tt.Params().Len(); i++ {
			if err := ctx.checkNameable(tt.Params().At(i).Type(), seen); err != nil {
				return err
			}
		}

		for i := 0; i < tt.Results().Len(); i++ {
			if err := ctx.checkNameable(tt.Results().At(i).Type(), seen); err != nil {
				return err
			}
		}

		return nil

	case *types.Tuple:
		return fmt.Errorf("base expression is multi-valued")

	default:
		return fmt.Errorf("base type %s cannot be named at the call site", t)
	}
}

// checkNameableObj validates that a named type's identifier is visible here.
func (ctx *Context) checkNameableObj(obj *types.TypeName) error {
	if obj == nil || obj.Pkg() == nil {
		// Builtins like error.
		return nil
	}

	if ctx.File.Pkg != nil && obj.Pkg() == ctx.File.Pkg.Types {
		return nil
	}

	if !obj.Exported() {
		return fmt.Errorf("base type names unexported type %s.%s", obj.Pkg().Path(), obj.Name())
	}

	return nil
}
