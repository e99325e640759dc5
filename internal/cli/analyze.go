package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/pipeline"
)

// ErrRiskThreshold is returned when a report reaches the --fail-on band
var ErrRiskThreshold = errors.New("risk threshold reached")

var (
	outJSON     string
	outMD       string
	language    string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	rulesPath   string
	maxFindings int
	workers     int
	taggerURL   string
	auditPath   string
	failOn      string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url|->",
	Short: "Analyze one contract and generate a risk report",
	Long: `Analyze reads one contract (plain text, Markdown or HTML) and:
- Splits it into clauses
- Classifies each clause and the contract type
- Extracts parties, dates, amounts, durations and jurisdictions
- Scores each clause against the rule catalog
- Reports missing protections for the contract type

Example:
  clauseguard analyze contract.txt
  clauseguard analyze contract.txt --json report.json --md report.md
  clauseguard analyze https://example.com/terms.html --lang en
  cat contract.txt | clauseguard analyze - --fail-on high
  clauseguard analyze contract.txt --llm --llm-provider ollama --llm-model llama3`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path (empty to skip)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	analyzeCmd.Flags().StringVar(&failOn, "fail-on", "", "exit non-zero when the composite band is at least this (low, medium, high, critical)")

	addEngineFlags(analyzeCmd)
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
}

// addEngineFlags registers the flags shared by analyze and batch
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&language, "lang", "", "document language (en, hi-normalized); detected when empty")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the report cache")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule catalog YAML (default: embedded catalog)")
	cmd.Flags().IntVar(&maxFindings, "max-findings", 0, "cap the number of findings (0 = all)")
	cmd.Flags().IntVar(&workers, "workers", 0, "per-clause worker count (0 = config)")
	cmd.Flags().StringVar(&taggerURL, "tagger-url", "", "remote named-entity tagger endpoint")
	cmd.Flags().StringVar(&auditPath, "audit", "", "append an audit record to this .jsonl or .db file")

	// LLM flags
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the plain-language LLM summary")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

// buildConfig loads the config and applies the flags the user set
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Engine.DefaultLanguage = model.Language(language)
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if flags.Changed("rules") {
		cfg.Rules.Path = rulesPath
	}
	if flags.Changed("max-findings") {
		cfg.Engine.MaxFindings = maxFindings
	}
	if workers > 0 {
		cfg.Engine.Workers = workers
	}
	if flags.Changed("tagger-url") {
		cfg.Engine.TaggerURL = taggerURL
	}
	if auditPath != "" {
		cfg.Audit.Enabled = true
		cfg.Audit.Path = auditPath
		cfg.Audit.Driver = auditDriver(auditPath)
	}
	cfg.Output.Verbose = verbose

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		if llmModel != "" {
			cfg.LLM.Model = llmModel
		}
		cfg.LLM.StrictReferences = true // Always enforce

		applyProviderEnv(cfg)
		switch cfg.LLM.Provider {
		case "openai":
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	threshold, err := parseBand(failOn)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	report, err := engine.AnalyzeSource(ctx, source)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Segmented %d clauses\n", len(report.Clauses))
		fmt.Fprintf(os.Stderr, "✓ Identified %d parties\n", len(report.Parties))
		fmt.Fprintf(os.Stderr, "✓ Composite risk: %d/100 [%s]\n", report.CompositeScore, report.RiskBand)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if err := pipeline.RenderReport(renderer, report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if threshold != "" && report.RiskBand.Rank() >= threshold.Rank() {
		return fmt.Errorf("%w: %s >= %s", ErrRiskThreshold, report.RiskBand, threshold)
	}
	return nil
}

// parseBand parses a --fail-on value; empty means no threshold
func parseBand(s string) (model.RiskBand, error) {
	if s == "" {
		return "", nil
	}
	for _, b := range []model.RiskBand{model.BandLow, model.BandMedium, model.BandHigh, model.BandCritical} {
		if strings.EqualFold(s, string(b)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("invalid risk band %q (want low, medium, high or critical)", s)
}
