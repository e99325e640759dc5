// Package audit keeps an append-only trail of analyses. Records carry
// hashes and the report summary, never the contract text itself.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/clauseguard/internal/model"
)

// maxRecordedRules bounds the rule ids copied into a record
const maxRecordedRules = 10

// Record is one audit event for a completed analysis
type Record struct {
	ID             string             `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	ReportID       string             `json:"report_id"`
	Source         string             `json:"source,omitempty"`
	InputHash      string             `json:"input_hash"`
	CatalogVersion string             `json:"catalog_version"`
	CatalogHash    string             `json:"catalog_hash"`
	Language       model.Language     `json:"language"`
	ContractType   model.ContractType `json:"contract_type"`
	CompositeScore int                `json:"composite_score"`
	RiskBand       model.RiskBand     `json:"risk_band"`
	ClauseCount    int                `json:"clause_count"`
	FindingCount   int                `json:"finding_count"`
	GapCount       int                `json:"gap_count"`
	RuleIDs        []string           `json:"rule_ids,omitempty"`
	LLMUsed        bool               `json:"llm_used"`
	DurationMS     int64              `json:"duration_ms"`
}

// NewRecord summarizes a report into an audit record
func NewRecord(report *model.ContractReport, source string, duration time.Duration) Record {
	rec := Record{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		ReportID:       report.ID,
		Source:         source,
		InputHash:      report.InputHash,
		CatalogVersion: report.CatalogVersion,
		CatalogHash:    report.CatalogHash,
		Language:       report.Language,
		ContractType:   report.ContractType,
		CompositeScore: report.CompositeScore,
		RiskBand:       report.RiskBand,
		ClauseCount:    len(report.Clauses),
		FindingCount:   len(report.Findings),
		GapCount:       len(report.MissingProtections),
		LLMUsed:        report.LLM != nil && report.LLM.Enabled && report.LLM.SummaryMD != "",
		DurationMS:     duration.Milliseconds(),
	}

	seen := make(map[string]bool)
	for _, f := range report.Findings {
		for _, id := range f.RuleIDs {
			if seen[id] || len(rec.RuleIDs) >= maxRecordedRules {
				continue
			}
			seen[id] = true
			rec.RuleIDs = append(rec.RuleIDs, id)
		}
	}
	return rec
}

// Sink persists audit records
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Open creates the sink selected by the config. A disabled audit config
// returns a no-op sink.
func Open(cfg model.AuditConfig) (Sink, error) {
	if !cfg.Enabled {
		return nopSink{}, nil
	}
	switch cfg.Driver {
	case "", "jsonl":
		return NewJSONLSink(cfg.Path)
	case "sqlite":
		return NewSQLiteSink(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown audit driver: %s (supported: jsonl, sqlite)", cfg.Driver)
	}
}

type nopSink struct{}

func (nopSink) Write(context.Context, Record) error { return nil }

func (nopSink) Recent(context.Context, int) ([]Record, error) { return nil, nil }

func (nopSink) Close() error { return nil }
