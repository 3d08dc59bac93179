// Package expand builds the replacement code for a single assign.With
// invocation.
//
// Every expansion binds a fresh local to the base expression (one
// evaluation, whatever the clause count), assigns each clause field in
// source order, and yields the local. Two forms exist:
//
//   - statement form, for invocations consumed by a simple assignment or
//     var declaration: plain statements, no type name required;
//   - expression form, for every other position: an immediately invoked
//     function literal returning the base expression's static type.
//
// The expander performs no semantic validation. Unknown fields, type
// mismatches, and missing shorthand variables become ordinary compile
// errors on the expanded code.
package expand
