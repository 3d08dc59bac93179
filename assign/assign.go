// Package assign provides the directive surface for assigngen, a code
// generator that rewrites declarative field-override expressions into plain
// field assignments.
//
// A With call produces a copy of a base value with the listed fields
// overwritten. It is useful for struct types that cannot be rebuilt with a
// composite literal at the call site, typically because they carry unexported
// fields or are meant to be constructed only through their own package:
//
//	opts := assign.With(profile.Defaults(), assign.Fields{
//		Name:    "worker",
//		Retries: 3,
//	})
//
// assigngen replaces every With call before the package is built. The call
// above expands to the equivalent of
//
//	item := profile.Defaults()
//	item.Name = "worker"
//	item.Retries = 3
//	opts := item
//
// The base expression is evaluated exactly once, fields are assigned in the
// order they are written, and the result has the static type of the base
// expression. A Fields element without a value is shorthand for assigning a
// variable of the same name from the enclosing scope: Fields{Retries} means
// item.Retries = Retries.
//
// Files containing With calls do not type-check until they are expanded, so
// they conventionally carry a build constraint:
//
//	//go:build assign
//
// The generator loads packages with that tag enabled and strips the
// constraint from rewritten output. See the assigngen command for usage.
package assign

// Fields carries the field clauses of a With invocation. Its composite
// literal is the recognized clause syntax: a keyed element (Name: value)
// overwrites a field with an expression, and a bare identifier element
// (Name) overwrites a field with the in-scope variable of the same name.
// At least one clause is required.
//
// Fields has no runtime representation; the generator consumes the literal
// syntactically and never constructs a value of this type.
type Fields struct{}

// With returns base with the fields listed in the Fields literal
// overwritten. It is a directive recognized by assigngen, not a runtime
// function: the generator replaces every call before the package is built,
// so this stub is never reached in an expanded program.
func With[T any](base T, fields Fields) T {
	panic("assign.With call was not expanded; run assigngen")
}
