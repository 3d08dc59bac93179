package rewrite

import (
	"bytes"
	"go/ast"
	"go/build/constraint"
	"strings"
)

// stripConstraint removes build-constraint lines that gate a file on exactly
// the given tag. Rewritten files no longer need the tag: the whole point of
// the constraint is to keep unexpanded invocations out of ordinary builds.
// Constraints combining the tag with other terms are left alone.
func stripConstraint(src []byte, tag string) []byte {
	lines := bytes.SplitAfter(src, []byte("\n"))

	var (
		out     [][]byte
		dropped bool
	)

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := string(bytes.TrimSpace(line))

		// Constraints only appear before the package clause; copy the rest
		// of the file verbatim once it is reached.
		if strings.HasPrefix(trimmed, "package ") {
			out = append(out, lines[i:]...)

			break
		}

		if isTagConstraint(trimmed, tag) {
			dropped = true
			continue
		}

		// Collapse the blank line a dropped constraint leaves behind.
		if dropped && trimmed == "" {
			dropped = false
			continue
		}

		dropped = false
		out = append(out, line)
	}

	return bytes.Join(out, nil)
}

// hasTagConstraint reports whether the file's header carries a build
// constraint whose expression mentions the tag. Comments after the package
// clause cannot be constraints and are not inspected.
func hasTagConstraint(file *ast.File, tag string) bool {
	for _, group := range file.Comments {
		if group.Pos() >= file.Package {
			break
		}

		for _, c := range group.List {
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				continue
			}

			if exprUsesTag(expr, tag) {
				return true
			}
		}
	}

	return false
}

// exprUsesTag reports whether a constraint expression references the tag.
func exprUsesTag(expr constraint.Expr, tag string) bool {
	switch e := expr.(type) {
	case *constraint.TagExpr:
		return e.Tag == tag
	case *constraint.NotExpr:
		return exprUsesTag(e.X, tag)
	case *constraint.AndExpr:
		return exprUsesTag(e.X, tag) || exprUsesTag(e.Y, tag)
	case *constraint.OrExpr:
		return exprUsesTag(e.X, tag) || exprUsesTag(e.Y, tag)
	default:
		return false
	}
}

// isTagConstraint reports whether the line is a //go:build or // +build
// constraint consisting of exactly the given tag.
func isTagConstraint(line, tag string) bool {
	if !constraint.IsGoBuild(line) && !constraint.IsPlusBuild(line) {
		return false
	}

	expr, err := constraint.Parse(line)
	if err != nil {
		return false
	}

	tagExpr, ok := expr.(*constraint.TagExpr)

	return ok && tagExpr.Tag == tag
}
