// Package diagnostic provides structured errors and warnings for the
// assigngen rewrite pipeline.
//
// Only shape problems are reported here: invocations that do not match the
// accepted grammar, and base expressions whose type cannot be named at the
// call site. Semantic problems in expanded code (unknown fields, type
// mismatches, missing shorthand variables) are deliberately left to the Go
// compiler, which attributes them to the rewritten source.
package diagnostic
