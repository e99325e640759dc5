package score

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/rules"
)

// excerptRunes bounds the clause excerpt carried by a finding
const excerptRunes = 200

// Aggregator combines clause scores into the contract-level verdict
type Aggregator struct {
	catalog     *rules.Catalog
	maxFindings int
}

// NewAggregator creates an aggregator. maxFindings <= 0 keeps every finding.
func NewAggregator(catalog *rules.Catalog, maxFindings int) *Aggregator {
	return &Aggregator{catalog: catalog, maxFindings: maxFindings}
}

// Aggregate fills the core report fields for a fully scored document:
// composite score, band, ranked findings and clauses
func (a *Aggregator) Aggregate(doc model.Document) model.ContractReport {
	composite := a.Composite(doc.Clauses)

	clauses := doc.Clauses
	if clauses == nil {
		clauses = []model.Clause{}
	}

	return model.ContractReport{
		ContractType:   doc.ContractType,
		CompositeScore: composite,
		RiskBand:       model.BandForScore(composite),
		Findings:       a.Findings(doc.Clauses),
		Clauses:        clauses,
		Language:       doc.Language,
		Parties:        []model.Party{},
	}
}

// Composite is the category-weighted mean of clause scores, lifted by the
// critical bonus and floor when any clause is Critical. The result is
// rounded and clamped to [0,100].
func (a *Aggregator) Composite(clauses []model.Clause) int {
	var (
		sum, weights float64
		critical     bool
	)
	for _, c := range clauses {
		w := a.catalog.Scoring.Weight(c.Category)
		sum += w * float64(c.Risk.Score)
		weights += w
		if c.Risk.Band == model.BandCritical {
			critical = true
		}
	}

	var composite float64
	if weights > 0 {
		composite = sum / weights
	}
	if critical {
		composite = math.Max(math.Min(100, composite+float64(a.catalog.Scoring.CriticalBonus)), float64(a.catalog.Scoring.CriticalFloor))
	}

	score := int(math.Round(composite))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// Findings lists clauses with a positive score, most severe band first and
// document order within a band
func (a *Aggregator) Findings(clauses []model.Clause) []model.RiskFinding {
	findings := []model.RiskFinding{}
	for _, c := range clauses {
		if c.Risk.Score <= 0 {
			continue
		}
		findings = append(findings, finding(c))
	}

	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := findings[i].Severity.Rank(), findings[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return findings[i].ClauseIndex < findings[j].ClauseIndex
	})

	if a.maxFindings > 0 && len(findings) > a.maxFindings {
		findings = findings[:a.maxFindings]
	}
	return findings
}

func finding(c model.Clause) model.RiskFinding {
	f := model.RiskFinding{
		ClauseIndex: c.Index,
		Marker:      c.Marker,
		Category:    c.Category,
		Severity:    c.Risk.Band,
		Score:       c.Risk.Score,
		RuleIDs:     []string{},
		Excerpt:     excerpt(c.Text),
	}

	var explanations []string
	seen := make(map[string]bool)
	for _, r := range c.Reasons {
		f.RuleIDs = append(f.RuleIDs, r.RuleID)
		explanations = append(explanations, r.Explanation)
		if r.Suggestion != "" && !seen[r.Suggestion] {
			seen[r.Suggestion] = true
			f.Suggestions = append(f.Suggestions, r.Suggestion)
		}
	}
	f.Explanation = strings.Join(explanations, " ")
	return f
}

// MissingProtections reports the catalog's protective checks that no part
// of the contract satisfies. Short documents are skipped; gaps never
// affect any score.
func (a *Aggregator) MissingProtections(doc model.Document) []model.Gap {
	if len(doc.Clauses) < a.catalog.GapMinClauses || len(doc.Clauses) == 0 {
		return nil
	}

	text := doc.Text
	if text == "" {
		parts := make([]string, len(doc.Clauses))
		for i, c := range doc.Clauses {
			parts[i] = c.Text
		}
		text = strings.Join(parts, "\n")
	}

	var gaps []model.Gap
	for _, g := range a.catalog.Gaps {
		if anyMatch(g.Any, text) {
			continue
		}
		gaps = append(gaps, model.Gap{ID: g.ID, Description: g.Description, Suggestion: g.Suggestion})
	}
	return gaps
}

// excerpt collapses whitespace and truncates to excerptRunes
func excerpt(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(s) <= excerptRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:excerptRunes])) + "…"
}
