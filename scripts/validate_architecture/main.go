// validate_architecture checks the module's import layering rules and
// exits non-zero when a forbidden edge exists.
package main

import (
	"fmt"
	"io"
	"os"

	"geomcore/internal/validation"
)

const modulePath = "geomcore"

func main() {
	os.Exit(run(os.Args, os.Stderr, validation.Check))
}

func run(args []string, stderr io.Writer, check func(string, []validation.Rule, ...string) ([]validation.Violation, error)) int {
	dir := "."
	if len(args) >= 2 && args[1] != "" {
		dir = args[1]
	}
	viols, err := check(dir, validation.DefaultRules(modulePath), "./...")
	if err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Layering check failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	if len(viols) > 0 {
		if _, err := fmt.Fprintf(stderr, "Found %d layering violations:\n", len(viols)); err != nil {
			return 1
		}
		for _, v := range viols {
			if _, err := fmt.Fprintf(stderr, "  %s\n", v); err != nil {
				return 1
			}
		}
		return 1
	}
	return 0
}
