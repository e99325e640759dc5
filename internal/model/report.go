package model

import "time"

// ContractReport is the complete analysis result for one contract.
// Field names of the first block are the stable output contract consumed
// by the UI, the PDF exporter and the audit logger.
type ContractReport struct {
	ContractType           ContractType  `json:"contract_type"`
	ContractTypeConfidence float64       `json:"contract_type_confidence"`
	ContractSubType        string        `json:"contract_sub_type,omitempty"`
	CompositeScore         int           `json:"composite_score"` // 0-100
	RiskBand               RiskBand      `json:"risk_band"`
	Findings               []RiskFinding `json:"findings"`
	Clauses                []Clause      `json:"clauses"`

	ID                 string       `json:"id"`
	Language           Language     `json:"language"`
	Parties            []Party      `json:"parties"`
	MissingProtections []Gap        `json:"missing_protections,omitempty"` // Advisory, never scored
	Diagnostics        []Diagnostic `json:"diagnostics,omitempty"`
	CatalogVersion     string       `json:"catalog_version"`
	CatalogHash        string       `json:"catalog_hash"`
	InputHash          string       `json:"input_hash"`
	AnalyzedAt         time.Time    `json:"analyzed_at"`
	Principles         Principles   `json:"principles"`

	Glossary []GlossaryTerm `json:"glossary,omitempty"` // Hindi legal terms found in the input

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM explanation (never affects score)
}

// RiskBand is the ordinal risk level shared by clauses and reports
type RiskBand string

const (
	BandLow      RiskBand = "Low"
	BandMedium   RiskBand = "Medium"
	BandHigh     RiskBand = "High"
	BandCritical RiskBand = "Critical"
)

// Band thresholds (inclusive lower bounds)
const (
	MediumThreshold   = 25
	HighThreshold     = 50
	CriticalThreshold = 75
)

// BandForScore maps a 0-100 score onto its band
func BandForScore(score int) RiskBand {
	switch {
	case score >= CriticalThreshold:
		return BandCritical
	case score >= HighThreshold:
		return BandHigh
	case score >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Rank returns the ordinal position of the band (Low=0 .. Critical=3)
func (b RiskBand) Rank() int {
	switch b {
	case BandCritical:
		return 3
	case BandHigh:
		return 2
	case BandMedium:
		return 1
	default:
		return 0
	}
}

// ClauseRisk is the scorer's numeric and ordinal verdict for one clause
type ClauseRisk struct {
	Score int      `json:"score"` // 0-100
	Band  RiskBand `json:"band"`
}

// RiskReason explains one matched heuristic rule
type RiskReason struct {
	RuleID       string `json:"rule_id"`
	Title        string `json:"title,omitempty"`
	Explanation  string `json:"explanation"`
	Contribution int    `json:"contribution"`
	Suggestion   string `json:"suggestion,omitempty"`
	LawReference string `json:"law_reference,omitempty"`
}

// RiskFinding is the aggregated, ranked view of a risky clause
type RiskFinding struct {
	ClauseIndex int      `json:"clause_index"`
	Marker      string   `json:"marker,omitempty"`
	Category    Category `json:"category"`
	Severity    RiskBand `json:"severity"`
	Score       int      `json:"score"`
	RuleIDs     []string `json:"rule_ids"`
	Explanation string   `json:"explanation"`
	Suggestions []string `json:"suggestions,omitempty"`
	Excerpt     string   `json:"excerpt"`
}

// Gap is a protective clause the contract appears to lack
type Gap struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// GlossaryTerm is a recognized Hindi legal term and its English meaning
type GlossaryTerm struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
}

// Principles documents how the report should be read
type Principles struct {
	NotLegalAdvice bool `json:"not_legal_advice"` // Risk indicators, not legal determinations
	Transparent    bool `json:"transparent"`      // Every score traces to named rules
	Deterministic  bool `json:"deterministic"`    // Same input and catalog, same report
}

// DefaultPrinciples returns the standard report principles
func DefaultPrinciples() Principles {
	return Principles{
		NotLegalAdvice: true,
		Transparent:    true,
		Deterministic:  true,
	}
}

// LLMSummary contains the optional plain-language explanation.
// It is produced after scoring and is never read back by the engine.
type LLMSummary struct {
	Enabled           bool     `json:"enabled"`
	Provider          string   `json:"provider,omitempty"`
	Model             string   `json:"model,omitempty"`
	StrictReferences  bool     `json:"strict_references"`
	SummaryMD         string   `json:"summary_md,omitempty"`
	ReferencedClauses []int    `json:"referenced_clauses,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	Failed            bool     `json:"failed,omitempty"` // Provider call failed; no summary
}
