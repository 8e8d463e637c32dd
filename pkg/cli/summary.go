package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/platinummonkey/protodoc/pkg/site"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	noticeColor  = color.New(color.FgCyan)
	mutedColor   = color.New(color.Faint)
)

// printSummary writes a short human readable report of one build
func printSummary(w io.Writer, result *site.BuildResult, elapsed time.Duration) {
	if result == nil {
		return
	}

	if len(result.Converted) == 0 && len(result.Removed) == 0 {
		mutedColor.Fprintf(w, "No changes in %d proto files\n", result.Sources)
		return
	}

	successColor.Fprintf(w, "Generated %d of %d pages", len(result.Generated), len(result.Converted))
	fmt.Fprintf(w, " from %d sources in %s\n", result.Sources, elapsed.Round(time.Millisecond))

	for _, path := range result.Removed {
		noticeColor.Fprintf(w, "  removed %s\n", path)
	}

	if len(result.Failed) > 0 {
		failureColor.Fprintf(w, "%d files failed:\n", len(result.Failed))
		for _, failed := range result.Failed {
			fmt.Fprintf(w, "  %s: %v\n", failed.Path, failed.Err)
		}
	}

	if result.NavUpdated {
		noticeColor.Fprintln(w, "Navigation updated")
	}
}
