package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/clauseguard/internal/model"
)

const disclaimer = "Risk indicators produced by transparent, rule-based heuristics. This is not legal advice; consult a qualified lawyer before acting on it."

var titleCaser = cases.Title(language.English)

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a renderer that prints summaries to stdout
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, out: os.Stdout}
}

// NewRendererTo creates a renderer that prints summaries to w
func NewRendererTo(includeFooter bool, w io.Writer) *Renderer {
	return &Renderer{includeFooter: includeFooter, out: w}
}

// JSON returns the indented report JSON
func JSON(report *model.ContractReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// RenderJSON writes the report as JSON
func (r *Renderer) RenderJSON(report *model.ContractReport, path string) error {
	data, err := JSON(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.ContractReport, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered LLM summary
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	return writeFile(path, []byte(markdown))
}

// Markdown renders the report for human review
func (r *Renderer) Markdown(report *model.ContractReport) string {
	var b strings.Builder

	b.WriteString("# Contract Risk Report\n\n")
	fmt.Fprintf(&b, "- **Contract type:** %s (confidence %.2f)\n", contractLabel(report), report.ContractTypeConfidence)
	fmt.Fprintf(&b, "- **Composite risk:** %d/100 (%s)\n", report.CompositeScore, report.RiskBand)
	fmt.Fprintf(&b, "- **Clauses analyzed:** %d\n", len(report.Clauses))
	fmt.Fprintf(&b, "- **Language:** %s\n", report.Language)
	if report.CatalogVersion != "" {
		fmt.Fprintf(&b, "- **Rule catalog:** %s (`%s`)\n", report.CatalogVersion, shortHash(report.CatalogHash))
	}
	b.WriteString("\n")

	if len(report.Parties) > 0 {
		b.WriteString("## Parties\n\n")
		for _, p := range report.Parties {
			fmt.Fprintf(&b, "- %s", p.Name)
			if len(p.Aliases) > 0 {
				fmt.Fprintf(&b, " (\"%s\")", strings.Join(p.Aliases, "\", \""))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	if len(report.Findings) == 0 {
		b.WriteString("No risky clauses found.\n\n")
	}
	for _, f := range report.Findings {
		heading := fmt.Sprintf("Clause %d", f.ClauseIndex+1)
		if f.Marker != "" {
			heading += " (" + f.Marker + ")"
		}
		fmt.Fprintf(&b, "### %s: %s [%s, %d]\n\n", heading, label(string(f.Category)), f.Severity, f.Score)
		fmt.Fprintf(&b, "> %s\n\n", f.Excerpt)
		fmt.Fprintf(&b, "%s\n\n", f.Explanation)
		for _, s := range f.Suggestions {
			fmt.Fprintf(&b, "- Suggestion: %s\n", s)
		}
		if len(f.Suggestions) > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "_Rules: %s_\n\n", strings.Join(f.RuleIDs, ", "))
	}

	if len(report.MissingProtections) > 0 {
		b.WriteString("## Missing Protections\n\n")
		for _, g := range report.MissingProtections {
			fmt.Fprintf(&b, "- **%s**", g.Description)
			if g.Suggestion != "" {
				fmt.Fprintf(&b, ": %s", g.Suggestion)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(report.Glossary) > 0 {
		b.WriteString("## Glossary\n\n")
		for _, t := range report.Glossary {
			fmt.Fprintf(&b, "- %s: %s\n", t.Term, t.Meaning)
		}
		b.WriteString("\n")
	}

	if len(report.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, d := range report.Diagnostics {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", d.Level, d.Code, d.Message)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "_%s_\n", disclaimer)
		if report.InputHash != "" {
			fmt.Fprintf(&b, "\n_Input %s, report %s_\n", shortHash(report.InputHash), report.ID)
		}
	}

	return b.String()
}

// RenderSummary prints a short summary
func (r *Renderer) RenderSummary(report *model.ContractReport) {
	fmt.Fprintf(r.out, "Contract type: %s (%.2f)\n", contractLabel(report), report.ContractTypeConfidence)
	fmt.Fprintf(r.out, "Composite risk: %d/100 [%s]\n", report.CompositeScore, report.RiskBand)
	fmt.Fprintf(r.out, "Clauses: %d, findings: %d, missing protections: %d\n",
		len(report.Clauses), len(report.Findings), len(report.MissingProtections))

	for i, f := range report.Findings {
		if i >= 5 {
			fmt.Fprintf(r.out, "  ... and %d more\n", len(report.Findings)-5)
			break
		}
		fmt.Fprintf(r.out, "  - Clause %d %-8s %3d  %s\n", f.ClauseIndex+1, f.Severity, f.Score, label(string(f.Category)))
	}
}

// label turns "unilateral-termination" into "Unilateral Termination"
// contractLabel is the contract type with its sub-type, e.g. "Lease / Leave And License"
func contractLabel(report *model.ContractReport) string {
	if report.ContractSubType == "" {
		return label(string(report.ContractType))
	}
	return label(string(report.ContractType)) + " / " + label(report.ContractSubType)
}

func label(s string) string {
	if s == "" {
		return "Unknown"
	}
	if s == string(model.CategoryIPTransfer) {
		return "IP Transfer"
	}
	if s == string(model.ContractNDA) {
		return "NDA"
	}
	return titleCaser.String(strings.ReplaceAll(s, "-", " "))
}

func shortHash(h string) string {
	h = strings.TrimPrefix(h, "sha256:")
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
