// Package analyze provides package loading for the assign rewriter.
//
// It uses golang.org/x/tools/go/packages with AST and go/types to expose
// per-file syntax, positions, and (best-effort) type information. Type
// errors are tolerated because files with unexpanded invocations cannot
// type-check yet; parse and list errors remain fatal.
package analyze
