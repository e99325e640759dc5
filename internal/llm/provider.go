package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Explain turns the ranked findings into a plain-language summary
	Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExplainRequest contains the input for an explanation
type ExplainRequest struct {
	// Report is the finished, scored report. The explanation never changes it.
	Report model.ContractReport

	// AllowedClauses is the STRICT allowlist of clause numbers (1-based, as
	// shown to the reader) the model may reference
	AllowedClauses []int

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExplainResponse contains the model's output
type ExplainResponse struct {
	// Summary is the generated explanation text
	Summary string

	// CitedClauses are the clause numbers the model actually referenced
	CitedClauses []int

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictReferences rejects output citing clauses outside the findings
	StrictReferences bool

	// MaxTokens for response generation
	MaxTokens int

	// Client-side rate limit per endpoint (0 = unlimited)
	RequestsPerSecond float64
	Burst             int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:         "", // Disabled by default
		Model:            "",
		Timeout:          30,
		StrictReferences: true,
		MaxTokens:        1000,
	}
}

const systemPrompt = "You explain contract risk reports to non-lawyers in plain language. You never give legal advice and never change or dispute the scores you are given."

// maxPromptFindings bounds how many findings are sent to the model
const maxPromptFindings = 10

// BuildPrompt constructs the default explanation prompt
func BuildPrompt(report model.ContractReport, allowed []int) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are explaining a contract risk report. The scores were computed by fixed, transparent rules and are final.

CRITICAL RULES:
1. You MUST ONLY refer to clauses from this allowed list, written as "Clause N":
%s

2. DO NOT invent clauses, laws, amounts or deadlines that are not in the findings below.
3. Do not give legal advice. Suggest points to negotiate or to check with a lawyer.
4. Do not restate or dispute the scores.

Report Summary:
- Contract type: %s%s (confidence %.2f)
- Composite risk: %d/100 (%s)
- Clauses analyzed: %d
- Risk findings: %d

Findings:
`, joinClauses(allowed), report.ContractType, subTypeSuffix(report.ContractSubType), report.ContractTypeConfidence, report.CompositeScore, report.RiskBand, len(report.Clauses), len(report.Findings))

	for i, f := range report.Findings {
		if i >= maxPromptFindings {
			fmt.Fprintf(&b, "... and %d more findings\n", len(report.Findings)-maxPromptFindings)
			break
		}
		fmt.Fprintf(&b, "- Clause %d [%s, %s, score %d]: %s\n  Text: %q\n", f.ClauseIndex+1, f.Category, f.Severity, f.Score, f.Explanation, f.Excerpt)
	}

	if len(report.MissingProtections) > 0 {
		b.WriteString("\nMissing protections:\n")
		for _, g := range report.MissingProtections {
			fmt.Fprintf(&b, "- %s\n", g.Description)
		}
	}

	b.WriteString("\nWrite 4-6 sentences: what the biggest risks are, why they matter to the weaker party and what to ask for instead.")

	return b.String()
}

// AllowedClauses returns the 1-based clause numbers of the report's findings
func AllowedClauses(report model.ContractReport) []int {
	out := make([]int, 0, len(report.Findings))
	for _, f := range report.Findings {
		out = append(out, f.ClauseIndex+1)
	}
	return out
}

func subTypeSuffix(subType string) string {
	if subType == "" {
		return ""
	}
	return "/" + subType
}

func joinClauses(clauses []int) string {
	if len(clauses) == 0 {
		return "(No findings to reference)"
	}
	var b strings.Builder
	for i, c := range clauses {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more clauses", len(clauses)-20)
			break
		}
		fmt.Fprintf(&b, "\n- Clause %d", c)
	}
	return b.String()
}
