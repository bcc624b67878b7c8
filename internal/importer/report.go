package importer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// Banner is the three-way presentation state of a completed import.
type Banner string

const (
	BannerAllSucceeded Banner = "all_succeeded"
	BannerAllFailed    Banner = "all_failed"
	BannerPartial      Banner = "partial"
)

// Classify reduces a summary to its banner state. No computation happens
// here beyond the two count comparisons.
func Classify(s *model.ImportSummary) Banner {
	switch {
	case s.FailureCount == 0:
		return BannerAllSucceeded
	case s.SuccessCount == 0:
		return BannerAllFailed
	default:
		return BannerPartial
	}
}

// Headline returns the operator-facing banner text for a banner state.
func Headline(b Banner) string {
	switch b {
	case BannerAllSucceeded:
		return "Import complete"
	case BannerAllFailed:
		return "Import failed"
	default:
		return "Import completed with errors"
	}
}

// FormatSummary writes the banner, counts and failed-row table for a
// completed import.
func FormatSummary(w io.Writer, s *model.ImportSummary) {
	fmt.Fprintf(w, "%s: %d imported, %d failed\n", Headline(Classify(s)), s.SuccessCount, s.FailureCount)

	if len(s.Errors) == 0 {
		return
	}

	fmt.Fprintf(w, "\nFailed rows (%d):\n", len(s.Errors))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tNAME\tERROR")
	for _, e := range s.Errors {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Row, e.Name, e.Reason)
	}
	tw.Flush() //nolint:errcheck
}
