// Package main provides the CLI entrypoint for assigngen.
//
// assigngen is a codegen tool that:
//   - Parses Go packages (AST + go/types), tolerating the type errors that
//     unexpanded directives provoke
//   - Finds assign.With(base, assign.Fields{...}) invocations
//   - Expands each one into plain field assignments on a fresh local
//   - Writes the rewritten files back (or prints them)
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"assigngen/internal/analyze"
	"assigngen/internal/common"
	"assigngen/internal/config"
	"assigngen/internal/diagnostic"
	"assigngen/internal/rewrite"
)

var (
	writeFlag  = flag.Bool("w", false, "write rewritten files in place instead of printing to stdout (also settable in the config file)")
	listFlag   = flag.Bool("l", false, "list files that would change, without writing")
	tagsFlag   = flag.String("tags", "", "comma-separated build tags to enable while loading (overrides config)")
	configFlag = flag.String("config", "", "path to the configuration file (default: "+config.DefaultFileName+" if present)")
	verbose    = flag.Bool("v", false, "report the number of expanded invocations per file")
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: assigngen [flags] [packages]")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := run(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "assigngen:", err)
		os.Exit(1)
	}
}

func run(patterns []string) error {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}

	buildTags := cfg.Tags
	if *tagsFlag != "" {
		buildTags = strings.Split(*tagsFlag, ",")
	}

	loader := analyze.NewLoader(analyze.LoaderConfig{BuildTags: buildTags})

	pkgs, err := loader.Load(patterns...)
	if err != nil {
		return err
	}

	stripTag := ""
	if tag, ok := common.First(buildTags); ok {
		stripTag = tag
	}

	rewriter := rewrite.NewRewriter(rewrite.Config{
		Marker:   cfg.InvocationMarker(),
		StripTag: stripTag,
	})

	var (
		all     diagnostic.Diagnostics
		results []*rewrite.Result
	)

	for _, pkg := range pkgs {
		for _, file := range pkg.Files {
			if cfg.Excluded(file.Name) {
				continue
			}

			res, diags := rewriter.RewriteFile(file)
			printDiags(diags)
			all.Merge(diags)

			if res == nil || !res.Changed {
				continue
			}

			if *verbose {
				fmt.Fprintf(os.Stderr, "%s: expanded %d invocation(s)\n", file.Name, res.Expanded)
			}

			results = append(results, res)
		}
	}

	if all.HasErrors() {
		return fmt.Errorf("%d error(s)", len(all.Errors))
	}

	switch {
	case *listFlag:
		for _, res := range results {
			fmt.Println(res.File.Name)
		}

	case *writeFlag || cfg.Write:
		if err := rewrite.WriteResults(results); err != nil {
			return err
		}

	default:
		for _, res := range results {
			os.Stdout.Write(res.Content)
		}
	}

	return nil
}

func printDiags(diags diagnostic.Diagnostics) {
	for _, d := range diags.Errors {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d)
	}

	for _, d := range diags.Warnings {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d)
	}
}
