package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/worker"
)

// Explainer produces the optional plain-language summary of a finished
// report. Failures never fail the analysis; they surface as warnings.
type Explainer struct {
	provider Provider
	config   Config
	limiter  *worker.Limiter
}

// NewExplainer creates an explainer. A disabled provider yields an
// explainer whose IsEnabled returns false.
func NewExplainer(config Config) (*Explainer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Explainer{
		provider: provider,
		config:   config,
		limiter:  worker.NewLimiter(config.RequestsPerSecond, config.Burst),
	}, nil
}

// IsEnabled reports whether a provider is configured
func (e *Explainer) IsEnabled() bool {
	return e != nil && e.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (e *Explainer) ProviderName() string {
	if !e.IsEnabled() {
		return ""
	}
	return e.provider.Name()
}

// Explain generates the summary for a scored report. It returns nil when
// disabled. The report itself is never modified.
func (e *Explainer) Explain(ctx context.Context, report model.ContractReport) (*model.LLMSummary, error) {
	if !e.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Enabled:          true,
		Provider:         e.provider.Name(),
		Model:            e.config.Model,
		StrictReferences: e.config.StrictReferences,
	}

	if len(report.Findings) == 0 {
		summary.Warnings = append(summary.Warnings, "No risk findings to explain; provider was not called")
		return summary, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, e.limiterKey()); err != nil {
			summary.Failed = true
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM explanation failed: %v", err))
			return summary, nil
		}
	}

	if !e.provider.IsAvailable(ctx) {
		summary.Enabled = false
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM provider %s is not available", e.provider.Name()))
		return summary, nil
	}

	allowed := AllowedClauses(report)
	resp, err := e.provider.Explain(ctx, ExplainRequest{
		Report:         report,
		AllowedClauses: allowed,
		Model:          e.config.Model,
		MaxTokens:      e.config.MaxTokens,
	})
	if err != nil {
		summary.Failed = true
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM explanation failed: %v", err))
		return summary, nil
	}

	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.SummaryMD = resp.Summary
	for _, n := range resp.CitedClauses {
		summary.ReferencedClauses = append(summary.ReferencedClauses, n-1)
	}
	summary.Warnings = append(summary.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d clause references", len(resp.CitedClauses)),
	)

	return summary, nil
}

func (e *Explainer) limiterKey() string {
	if e.config.BaseURL != "" {
		return e.config.BaseURL
	}
	return e.provider.Name()
}

// RenderSeparateMarkdown renders the summary as a standalone Markdown
// document, kept apart from the deterministic report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder

	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This text was written by a language model from the findings of the report. ")
	b.WriteString("Risk scores and findings were determined independently by the rule catalog and are not affected by it. ")
	b.WriteString("It is not legal advice.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Reference Mode:** %t\n\n", summary.StrictReferences)

	b.WriteString("## Summary\n\n")
	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n\n")
	}

	if len(summary.ReferencedClauses) > 0 {
		refs := make([]string, 0, len(summary.ReferencedClauses))
		for _, idx := range summary.ReferencedClauses {
			refs = append(refs, fmt.Sprintf("Clause %d", idx+1))
		}
		fmt.Fprintf(&b, "Referenced: %s\n\n", strings.Join(refs, ", "))
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
