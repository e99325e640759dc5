package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/clauseguard/internal/audit"
	"github.com/ppiankov/clauseguard/internal/cache"
	"github.com/ppiankov/clauseguard/internal/classify"
	"github.com/ppiankov/clauseguard/internal/extract"
	"github.com/ppiankov/clauseguard/internal/llm"
	"github.com/ppiankov/clauseguard/internal/loader"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/normalize"
	"github.com/ppiankov/clauseguard/internal/rules"
	"github.com/ppiankov/clauseguard/internal/score"
	"github.com/ppiankov/clauseguard/internal/segment"
	"github.com/ppiankov/clauseguard/internal/util"
	"github.com/ppiankov/clauseguard/internal/worker"
)

// Engine runs the full analysis: normalize, segment, classify the
// contract, then classify, extract and score every clause on a worker
// pool, and finally aggregate into a report
type Engine struct {
	cfg       *model.Config
	store     *rules.Store
	segmenter *segment.Segmenter
	extractor *extract.EntityExtractor
	loader    *loader.Loader
	cache     cache.Cache
	audit     audit.Sink
	explainer *llm.Explainer
	logger    *slog.Logger

	// taggerID names the tagger in cache keys
	taggerID string
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the logger (default slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStore serves catalogs from an existing store
func WithStore(s *rules.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithTagger replaces the named-entity tagger. nil disables tagging.
func WithTagger(t extract.Tagger) Option {
	return func(e *Engine) {
		e.extractor = extract.NewEntityExtractor(t, e.cfg.Engine.TaggerTimeout)
		e.taggerID = "none"
		if t != nil {
			e.taggerID = t.Name()
		}
	}
}

// WithCache replaces the report cache. nil disables caching.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithAuditSink replaces the audit sink
func WithAuditSink(s audit.Sink) Option {
	return func(e *Engine) { e.audit = s }
}

// WithExplainer replaces the LLM explainer. nil disables explanations.
func WithExplainer(x *llm.Explainer) Option {
	return func(e *Engine) { e.explainer = x }
}

// NewEngine builds an engine from configuration. Optional collaborators
// that fail to initialize (LLM provider) are logged and left disabled.
func NewEngine(cfg *model.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		segmenter: segment.New(cfg.Engine.MinStructuralMarkers),
		logger:    slog.Default(),
	}

	var tagger extract.Tagger = extract.NewHeuristicTagger()
	if cfg.Engine.TaggerURL != "" {
		tagger = extract.NewRemoteTagger(cfg.Engine.TaggerURL, cfg.Engine.TaggerTimeout)
	}
	e.extractor = extract.NewEntityExtractor(tagger, cfg.Engine.TaggerTimeout)
	e.taggerID = tagger.Name()
	if cfg.Engine.TaggerURL != "" {
		e.taggerID += "@" + cfg.Engine.TaggerURL
	}

	if cfg.Cache.Enabled {
		e.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, util.ExpandHome(cfg.Cache.Dir), cfg.Cache.DiskTTL)
	}

	fetcher := loader.NewFetcher(
		cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.MaxBytes,
		cfg.Fetch.HTTPProxy, cfg.Fetch.HTTPSProxy, cfg.Fetch.NoProxy,
	)
	if cfg.Fetch.RespectRobots {
		fetcher.RespectRobots()
	}
	e.loader = loader.New(fetcher)

	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		store, err := rules.OpenStore(cfg.Rules.Path)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		e.store = store
	}

	if e.audit == nil {
		sink, err := audit.Open(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("open audit sink: %w", err)
		}
		e.audit = sink
	}

	if e.explainer == nil && cfg.LLM.Provider != "" {
		x, err := llm.NewExplainer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			e.logger.Warn("LLM provider disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			e.explainer = x
		}
	}

	return e, nil
}

// Store returns the catalog store, for reloads
func (e *Engine) Store() *rules.Store {
	return e.store
}

// Close releases the audit sink
func (e *Engine) Close() error {
	if e.audit == nil {
		return nil
	}
	return e.audit.Close()
}

// Analyze analyzes one contract. lang may be empty to detect it.
// The returned report is never nil when err is nil.
func (e *Engine) Analyze(ctx context.Context, text string, lang model.Language) (*model.ContractReport, error) {
	return e.analyze(ctx, text, lang, "")
}

// AnalyzeSource loads a file, "-" or URL and analyzes its text in the
// configured default language, detecting it when none is set
func (e *Engine) AnalyzeSource(ctx context.Context, source string) (*model.ContractReport, error) {
	doc, err := e.loader.Load(ctx, source)
	if err != nil {
		return nil, &model.DocumentError{Stage: "load", Err: err}
	}
	return e.analyze(ctx, doc.Text, e.cfg.Engine.DefaultLanguage, source)
}

func (e *Engine) analyze(ctx context.Context, text string, lang model.Language, source string) (*model.ContractReport, error) {
	started := time.Now()
	logger := e.logger.With("source", source)

	norm, err := normalize.Normalize(text, lang)
	if err != nil {
		return nil, &model.DocumentError{Stage: "normalize", Err: err}
	}

	catalog := e.store.Current()
	inputHash := util.DigestWithPrefix([]byte(norm.Text))

	cacheKey := cache.ReportKey(inputHash, catalog.Hash, norm.Language, e.optionsKey())
	if e.cache != nil {
		if report, ok := cache.GetReport(e.cache, cacheKey); ok {
			logger.Debug("report cache hit", "input_hash", inputHash)
			e.writeAudit(ctx, logger, report, source, started)
			return report, nil
		}
	}

	seg, err := e.segmenter.Segment(norm.Text)
	if err != nil {
		return nil, err
	}
	logger.Debug("segmented", "strategy", seg.Strategy, "clauses", len(seg.Clauses), "language", norm.Language)

	ct := classify.NewContractClassifier(catalog).Classify(norm.Text, norm.Language)

	clauses, err := e.analyzeClauses(ctx, catalog, seg.Clauses, ct.Type, norm.Language)
	if err != nil {
		return nil, err
	}

	doc := model.Document{
		Text:         norm.Text,
		Language:     norm.Language,
		ContractType: ct.Type,
		Clauses:      clauses,
	}
	parties := extract.BuildRegistry(doc.Clauses)

	agg := score.NewAggregator(catalog, e.cfg.Engine.MaxFindings)
	report := agg.Aggregate(doc)
	report.ContractTypeConfidence = ct.Confidence
	report.ContractSubType = ct.SubType
	if parties != nil {
		report.Parties = parties
	}
	report.MissingProtections = agg.MissingProtections(doc)
	report.Diagnostics = documentDiagnostics(seg.Strategy, ct, clauses)
	report.ID = uuid.NewString()
	report.CatalogVersion = catalog.Version
	report.CatalogHash = catalog.Hash
	report.InputHash = inputHash
	report.AnalyzedAt = time.Now().UTC()
	report.Principles = model.DefaultPrinciples()
	report.Glossary = norm.Glossary

	if e.explainer.IsEnabled() {
		summary, err := e.explainer.Explain(ctx, report)
		if err != nil {
			logger.Warn("LLM explanation failed", "error", err)
		}
		if summary != nil {
			report.LLM = summary
			if !summary.Enabled {
				report.Diagnostics = append(report.Diagnostics, model.Diagnostic{
					Code:    model.DiagLLMUnavailable,
					Level:   model.DiagnosticInfo,
					Message: fmt.Sprintf("LLM provider %s is not available; report produced without explanation", summary.Provider),
				})
			}
		}
	}

	switch {
	case e.cache == nil:
	case degraded(&report):
		logger.Debug("degraded report not cached", "input_hash", inputHash)
	default:
		if err := cache.PutReport(e.cache, cacheKey, &report, 0); err != nil {
			logger.Warn("cache write failed", "error", err)
		}
	}

	e.writeAudit(ctx, logger, &report, source, started)

	logger.Info("contract analyzed",
		"report_id", report.ID,
		"contract_type", report.ContractType,
		"clauses", len(report.Clauses),
		"findings", len(report.Findings),
		"composite", report.CompositeScore,
		"band", report.RiskBand,
		"duration", time.Since(started),
	)

	return &report, nil
}

func (e *Engine) writeAudit(ctx context.Context, logger *slog.Logger, report *model.ContractReport, source string, started time.Time) {
	if err := e.audit.Write(ctx, audit.NewRecord(report, source, time.Since(started))); err != nil {
		logger.Warn("audit write failed", "error", err)
	}
}

// analyzeClauses runs one clauseJob per clause and restores document order
func (e *Engine) analyzeClauses(ctx context.Context, catalog *rules.Catalog, clauses []model.Clause, ct model.ContractType, lang model.Language) ([]model.Clause, error) {
	classifier := classify.NewClauseClassifier(catalog)
	scorer := score.NewScorer(catalog)

	pool := worker.NewPool(ctx, e.cfg.Engine.Workers)
	pool.Start()
	for _, c := range clauses {
		pool.Submit(&clauseJob{
			clause:     c,
			ct:         ct,
			lang:       lang,
			classifier: classifier,
			extractor:  e.extractor,
			scorer:     scorer,
		})
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze clauses: %w", err)
	}

	out := make([]model.Clause, len(clauses))
	filled := make([]bool, len(clauses))
	for _, r := range results {
		cr, ok := r.(*clauseResult)
		if !ok || cr.clause.Index < 0 || cr.clause.Index >= len(out) {
			continue
		}
		if cr.err != nil {
			e.logger.Error("clause analysis failed", "clause", cr.clause.Index, "error", cr.err)
		}
		out[cr.clause.Index] = cr.clause
		filled[cr.clause.Index] = true
	}
	for i, ok := range filled {
		if !ok {
			return nil, &model.DocumentError{Stage: "analyze", Err: fmt.Errorf("clause %d produced no result", i)}
		}
	}
	return out, nil
}

// optionsKey captures the settings that change report content
func (e *Engine) optionsKey() string {
	llmKey := ""
	if e.explainer.IsEnabled() {
		llmKey = e.explainer.ProviderName() + "/" + e.cfg.LLM.Model
	}
	return fmt.Sprintf("max_findings=%d;markers=%d;tagger=%s;tagger_timeout=%s;llm=%s",
		e.cfg.Engine.MaxFindings,
		e.cfg.Engine.MinStructuralMarkers,
		e.taggerID,
		e.cfg.Engine.TaggerTimeout,
		llmKey,
	)
}

// degraded reports whether an optional collaborator failed while producing
// the report. Such reports are returned but not cached.
func degraded(report *model.ContractReport) bool {
	for _, d := range report.Diagnostics {
		if d.Code == model.DiagEntityDegraded || d.Code == model.DiagLLMUnavailable {
			return true
		}
	}
	return report.LLM != nil && report.LLM.Failed
}

// documentDiagnostics summarizes clause-level notes for the report
func documentDiagnostics(strategy segment.Strategy, ct model.ContractTypeResult, clauses []model.Clause) []model.Diagnostic {
	var diags []model.Diagnostic

	if strategy != segment.StrategyStructural {
		diags = append(diags, model.Diagnostic{
			Code:    "segmentation-fallback",
			Level:   model.DiagnosticInfo,
			Message: fmt.Sprintf("no numbered clause structure found; split by %s", strategy),
		})
	}
	if ct.Type == model.ContractUnknown {
		diags = append(diags, model.Diagnostic{
			Code:    "contract-type-unknown",
			Level:   model.DiagnosticInfo,
			Message: "contract type could not be determined; only generic rules were applied",
		})
	}

	var degraded, ambiguous, failed int
	for _, c := range clauses {
		for _, d := range c.Diagnostics {
			switch d.Code {
			case model.DiagEntityDegraded:
				degraded++
			case model.DiagAmbiguousClassification:
				ambiguous++
			case model.DiagClauseError:
				failed++
			}
		}
	}
	if degraded > 0 {
		diags = append(diags, model.Diagnostic{
			Code:    model.DiagEntityDegraded,
			Level:   model.DiagnosticWarning,
			Message: fmt.Sprintf("named-entity tagger unavailable for %d clauses; pattern entities only", degraded),
		})
	}
	if ambiguous > 0 {
		diags = append(diags, model.Diagnostic{
			Code:    model.DiagAmbiguousClassification,
			Level:   model.DiagnosticWarning,
			Message: fmt.Sprintf("%d clauses matched several categories equally", ambiguous),
		})
	}
	if failed > 0 {
		diags = append(diags, model.Diagnostic{
			Code:    model.DiagClauseError,
			Level:   model.DiagnosticError,
			Message: fmt.Sprintf("%d clauses could not be analyzed and were scored 0", failed),
		})
	}
	return diags
}

// IsDocumentError reports whether err is a document-level failure
func IsDocumentError(err error) bool {
	var de *model.DocumentError
	return errors.As(err, &de)
}
