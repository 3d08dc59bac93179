package rewrite

import (
	"fmt"
	"os"
)

// File permission constant.
const filePerm = 0o644

// WriteResults writes every changed result back to its source file.
func WriteResults(results []*Result) error {
	for _, res := range results {
		if !res.Changed {
			continue
		}

		err := os.WriteFile(res.File.Name, res.Content, filePerm)
		if err != nil {
			return fmt.Errorf("writing file %s: %w", res.File.Name, err)
		}
	}

	return nil
}
