package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/clauseguard/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *ExplainResponse
	err       error
	calls     int
	lastReq   ExplainRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func hasWarning(warnings []string, parts ...string) bool {
	for _, w := range warnings {
		ok := true
		for _, p := range parts {
			if !strings.Contains(w, p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestNewExplainer_DisabledProvider(t *testing.T) {
	explainer, err := NewExplainer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if explainer.IsEnabled() {
		t.Error("Expected explainer to be disabled")
	}
	if explainer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	summary, err := explainer.Explain(context.Background(), testReport())
	if err != nil || summary != nil {
		t.Errorf("Expected nil summary and no error, got %v, %v", summary, err)
	}
}

func TestNewExplainer_UnknownProvider(t *testing.T) {
	if _, err := NewExplainer(Config{Provider: "watson"}); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestExplainer_ProviderUnavailable(t *testing.T) {
	explainer := &Explainer{
		provider: &MockProvider{name: "test-provider", available: false},
		config:   Config{StrictReferences: true},
	}

	summary, err := explainer.Explain(context.Background(), testReport())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary object with warnings")
	}
	if summary.Enabled {
		t.Error("Expected summary to be marked as disabled")
	}
	if !hasWarning(summary.Warnings, "not available") {
		t.Errorf("Expected warning to mention provider unavailability: %v", summary.Warnings)
	}
}

func TestExplainer_Success(t *testing.T) {
	mock := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &ExplainResponse{
			Summary:      "Clause 3 is one-sided.",
			CitedClauses: []int{1, 3},
			Model:        "test-model",
			TokensUsed:   150,
		},
	}
	explainer := &Explainer{
		provider: mock,
		config:   Config{Model: "test-model", StrictReferences: true},
	}

	report := testReport()
	summary, err := explainer.Explain(context.Background(), report)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !summary.Enabled || summary.Provider != "test-provider" || summary.Model != "test-model" {
		t.Errorf("Unexpected summary header: %+v", summary)
	}
	if !summary.StrictReferences {
		t.Error("Expected strict reference mode to be recorded")
	}
	if summary.SummaryMD != "Clause 3 is one-sided." {
		t.Errorf("Unexpected summary text: %s", summary.SummaryMD)
	}

	// Referenced clauses are stored as clause indexes
	if len(summary.ReferencedClauses) != 2 || summary.ReferencedClauses[0] != 0 || summary.ReferencedClauses[1] != 2 {
		t.Errorf("Unexpected referenced clauses: %v", summary.ReferencedClauses)
	}

	if !hasWarning(summary.Warnings, "Tokens used") {
		t.Error("Expected warning about tokens used")
	}
	if !hasWarning(summary.Warnings, "Verified", "clause references") {
		t.Error("Expected warning about verified references")
	}

	if got := mock.lastReq.AllowedClauses; len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Errorf("Expected allowlist [3 1], got %v", got)
	}
	if report.CompositeScore != 72 || report.LLM != nil {
		t.Error("Explain must not modify the report")
	}
}

func TestExplainer_ProviderError(t *testing.T) {
	explainer := &Explainer{
		provider: &MockProvider{name: "test-provider", available: true, err: errors.New("API rate limit exceeded")},
		config:   Config{StrictReferences: true},
	}

	summary, err := explainer.Explain(context.Background(), testReport())
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if summary == nil || !summary.Enabled {
		t.Fatal("Expected enabled summary with error warning")
	}
	if !hasWarning(summary.Warnings, "failed", "rate limit") {
		t.Errorf("Expected warning to mention error: %v", summary.Warnings)
	}
	if !summary.Failed {
		t.Error("Expected summary to be marked failed")
	}
}

func TestExplainer_NoFindingsSkipsProvider(t *testing.T) {
	mock := &MockProvider{name: "test-provider", available: true}
	explainer := &Explainer{provider: mock, config: Config{}}

	summary, err := explainer.Explain(context.Background(), model.ContractReport{RiskBand: model.BandLow})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if mock.calls != 0 {
		t.Error("Expected provider not to be called without findings")
	}
	if summary.SummaryMD != "" {
		t.Error("Expected empty summary")
	}
	if summary.Failed {
		t.Error("Skipping the provider is not a failure")
	}
}

func TestExplainer_RateLimitedContextCancel(t *testing.T) {
	explainer, err := NewExplainer(Config{Provider: "ollama", Model: "m", BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("NewExplainer: %v", err)
	}
	explainer.provider = &MockProvider{name: "ollama", available: true, response: &ExplainResponse{Summary: "ok"}}

	if _, err := explainer.Explain(context.Background(), testReport()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, _ := explainer.Explain(ctx, testReport())
	if !hasWarning(summary.Warnings, "failed") {
		t.Errorf("Expected rate limiter failure warning, got %v", summary.Warnings)
	}
	if !summary.Failed {
		t.Error("Expected summary to be marked failed")
	}
}

func TestRenderSeparateMarkdown(t *testing.T) {
	if RenderSeparateMarkdown(nil) != "" {
		t.Error("Expected empty markdown when nil")
	}
	if RenderSeparateMarkdown(&model.LLMSummary{Enabled: false}) != "" {
		t.Error("Expected empty markdown when disabled")
	}

	md := RenderSeparateMarkdown(&model.LLMSummary{
		Enabled:           true,
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		StrictReferences:  true,
		SummaryMD:         "This is the generated summary content.",
		ReferencedClauses: []int{2},
		Warnings:          []string{"Tokens used: 150", "Verified 1 clause references"},
	})

	for _, section := range []string{
		"# LLM Summary",
		"GENERATED CONTENT",
		"openai",
		"gpt-4o-mini",
		"Strict Reference Mode:** true",
		"This is the generated summary content.",
		"Referenced: Clause 3",
		"## Notes",
		"Tokens used: 150",
		"determined independently",
	} {
		if !strings.Contains(md, section) {
			t.Errorf("Expected markdown to contain %q", section)
		}
	}

	empty := RenderSeparateMarkdown(&model.LLMSummary{Enabled: true, Provider: "p"})
	if !strings.Contains(empty, "No summary generated") {
		t.Error("Expected message about no summary")
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	report := testReport()
	report.MissingProtections = []model.Gap{{ID: "liability-cap", Description: "No limitation of liability clause"}}

	prompt := BuildPrompt(report, AllowedClauses(report))

	for _, element := range []string{
		"CRITICAL RULES",
		"MUST ONLY refer to clauses from this allowed list",
		"- Clause 3",
		"- Clause 1",
		"Contract type: employment",
		"Composite risk: 72/100 (High)",
		"Clauses analyzed: 4",
		"Clause 3 [unilateral-termination, Critical, score 95]",
		"No limitation of liability clause",
	} {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain %q", element)
		}
	}
}

func TestBuildPrompt_NoFindings(t *testing.T) {
	prompt := BuildPrompt(model.ContractReport{}, nil)
	if !strings.Contains(prompt, "No findings to reference") {
		t.Error("Expected message about no findings")
	}
}

func TestJoinClauses_Truncates(t *testing.T) {
	clauses := make([]int, 25)
	for i := range clauses {
		clauses[i] = i + 1
	}
	result := joinClauses(clauses)
	if !strings.Contains(result, "and 5 more clauses") {
		t.Error("Expected truncation message for many clauses")
	}
	if strings.Contains(result, "Clause 21") {
		t.Error("Expected clause 21 to be truncated")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Errorf("Expected provider to be empty (disabled), got '%s'", config.Provider)
	}
	if !config.StrictReferences {
		t.Error("Expected strict references to be enabled by default")
	}
	if config.Timeout <= 0 || config.MaxTokens <= 0 {
		t.Error("Expected positive timeout and max tokens")
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:          "anthropic",
		Model:             "claude",
		StrictReferences:  true,
		RequestsPerSecond: 2,
		Burst:             3,
		HTTPSProxy:        "http://proxy:3128",
	})
	if cfg.Provider != "anthropic" || !cfg.StrictReferences || cfg.RequestsPerSecond != 2 || cfg.Burst != 3 || cfg.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}
