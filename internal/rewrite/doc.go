// Package rewrite orchestrates expansion at the file level.
//
// For each file it scans for invocations, expands them bottom-up (inner
// invocations before the ones containing them), repairs the import list,
// strips the directive build constraint, and produces formatted source.
// A file with any malformed invocation is rejected whole.
//
// Statement-position invocations (x := assign.With(...), var x =
// assign.With(...)) expand to plain statements; all other positions get an
// immediately invoked function literal typed by the base expression.
package rewrite
