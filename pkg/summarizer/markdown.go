package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/ideamans/go-l10n"
)

// MarkdownFormatter renders a Summary as Markdown.
type MarkdownFormatter struct {
	translate func(string) string
}

// NewMarkdownFormatter creates a MarkdownFormatter whose labels follow the
// current go-l10n language.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{translate: l10n.T}
}

// WithTranslator replaces the label translation function.
func (f *MarkdownFormatter) WithTranslator(translate func(string) string) *MarkdownFormatter {
	f.translate = translate
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Conversion Report"))
	fmt.Fprintf(&b, "- %s: %s\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))
	if s.Version != "" {
		fmt.Fprintf(&b, "- %s: %s\n", t("Version"), s.Version)
	}
	if s.Job.ID != "" {
		fmt.Fprintf(&b, "- %s: `%s`\n", t("Job"), s.Job.ID)
	}
	if s.Job.Format != "" {
		fmt.Fprintf(&b, "- %s: %s\n", t("Format"), s.Job.Format)
	}
	if s.Job.Quality != "" {
		fmt.Fprintf(&b, "- %s: %s\n", t("Quality"), s.Job.Quality)
	}

	if s.Totals.Requested > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Batch"))
		fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
		fmt.Fprintf(&b, "| %s | %d |\n", t("Requested"), s.Totals.Requested)
		fmt.Fprintf(&b, "| %s | %d |\n", t("Converted"), s.Totals.Succeeded)
		fmt.Fprintf(&b, "| %s | %d |\n", t("Failed"), s.Totals.Failed)
		fmt.Fprintf(&b, "| %s | %s |\n", t("Output size"), units.HumanSize(float64(s.Totals.Bytes)))
		if s.Totals.Elapsed > 0 {
			fmt.Fprintf(&b, "| %s | %s |\n", t("Elapsed"), s.Totals.Elapsed.Round(time.Millisecond))
		}
	}

	if len(s.Failures) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Failures"))
		fmt.Fprintf(&b, "| %s | %s | %s |\n|---|---|---|\n", t("Source"), t("Kind"), t("Message"))
		for _, fail := range s.Failures {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(fail.Ref), fail.Kind, escapeCell(fail.Message))
		}
	}

	if len(s.Runs) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Animations"))
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n|---|---|---|---|---|---|\n",
			t("Source"), t("Output"), t("Frames"), t("Canvas"), t("Size"), t("Filters"))
		for _, r := range s.Runs {
			filters := "-"
			if len(r.Filters) > 0 {
				filters = strings.Join(r.Filters, " → ")
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %dx%d | %s | %s |\n",
				escapeCell(r.Source), escapeCell(r.Output), r.FrameCount, r.Width, r.Height,
				units.HumanSize(float64(r.Bytes)), filters)
		}
	}

	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

var _ Formatter = (*MarkdownFormatter)(nil)
