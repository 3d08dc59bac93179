// Package invocation finds assign.With directive calls in parsed files and
// validates them against the accepted grammar:
//
//	assign.With(base, assign.Fields{
//		Name: value,   // full clause
//		Other,         // shorthand clause
//	})
//
// A well-formed invocation has exactly two arguments, a Fields composite
// literal as the second, and at least one clause. Each clause is either a
// keyed element with an identifier key or a bare identifier. Anything else
// is a shape error; shape errors exclude the whole invocation from
// expansion.
//
// The scanner does not validate field names, types, or shorthand variables.
// Those are ordinary compile errors on the expanded output and are left to
// the Go compiler.
package invocation
