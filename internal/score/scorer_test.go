package score

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/rules"
)

func ruleIDs(reasons []model.RiskReason) []string {
	ids := make([]string, len(reasons))
	for i, r := range reasons {
		ids[i] = r.RuleID
	}
	return ids
}

func duration(days float64) model.Entity {
	return model.Entity{Type: model.EntityDuration, Number: days}
}

func amount(n float64) model.Entity {
	return model.Entity{Type: model.EntityAmount, Number: n, Currency: "INR"}
}

func TestScoreUnilateralTermination(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	clause := model.Clause{
		Text:     "This Agreement may be terminated by the Company at any time without notice.",
		Category: model.CategoryUnilateralTermination,
	}

	risk, reasons := s.Score(clause, model.ContractUnknown)
	assert.Equal(t, 95, risk.Score)
	assert.Equal(t, model.BandCritical, risk.Band)
	assert.Equal(t, []string{"termination-without-notice", "unilateral-termination", "termination-at-will"}, ruleIDs(reasons))

	for _, r := range reasons {
		assert.NotEmpty(t, r.Explanation)
		assert.NotEmpty(t, r.Suggestion)
		assert.Positive(t, r.Contribution)
	}
}

func TestScoreMutualTermination(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	clause := model.Clause{
		Text:     "Either party may terminate this Agreement by giving thirty (30) days written notice.",
		Category: model.CategoryTermination,
		Entities: []model.Entity{duration(30)},
	}

	risk, reasons := s.Score(clause, model.ContractService)
	assert.Equal(t, 0, risk.Score)
	assert.Equal(t, model.BandLow, risk.Band)
	assert.Empty(t, reasons)
}

func TestScoreDurationThresholds(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	text := "Either party may terminate this Agreement on notice of the stated period."

	short := model.Clause{Text: text, Category: model.CategoryTermination, Entities: []model.Entity{duration(7)}}
	risk, reasons := s.Score(short, model.ContractUnknown)
	assert.Equal(t, 15, risk.Score)
	assert.Equal(t, []string{"short-notice-period"}, ruleIDs(reasons))

	// max_duration_days is strictly below
	edge := model.Clause{Text: text, Category: model.CategoryTermination, Entities: []model.Entity{duration(15)}}
	risk, _ = s.Score(edge, model.ContractUnknown)
	assert.Equal(t, 0, risk.Score)

	none := model.Clause{Text: text, Category: model.CategoryTermination}
	risk, _ = s.Score(none, model.ContractUnknown)
	assert.Equal(t, 0, risk.Score, "duration conditions need a duration entity")
}

func TestScoreAmountThreshold(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	text := "The Vendor shall pay a penalty for each day of delay."

	large := model.Clause{Text: text, Category: model.CategoryPenalty, Entities: []model.Entity{amount(1000000)}}
	risk, reasons := s.Score(large, model.ContractVendor)
	assert.Equal(t, 70, risk.Score)
	assert.Equal(t, model.BandHigh, risk.Band)
	assert.Equal(t, []string{"penalty-without-cap", "excessive-penalty-amount"}, ruleIDs(reasons))

	small := model.Clause{Text: text, Category: model.CategoryPenalty, Entities: []model.Entity{amount(499999)}}
	risk, _ = s.Score(small, model.ContractVendor)
	assert.Equal(t, 50, risk.Score)

	capped := model.Clause{Text: text, Category: model.CategoryPenalty, Entities: []model.Entity{
		amount(1000000),
		{Type: model.EntityLiabilityCap, Value: "INR 500000.00", Number: 500000},
	}}
	risk, reasons = s.Score(capped, model.ContractVendor)
	assert.Equal(t, 20, risk.Score)
	assert.Equal(t, []string{"excessive-penalty-amount"}, ruleIDs(reasons))
}

func TestScoreIgnoresAmountInsideLiabilityCap(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	text := "The Vendor shall pay a penalty of Rs. 10,000 per day of delay, and its aggregate liability shall not exceed Rs. 5,00,000."

	span := func(e model.Entity, sub string) model.Entity {
		e.Start = strings.Index(text, sub)
		e.End = e.Start + len(sub)
		return e
	}
	clause := model.Clause{Text: text, Category: model.CategoryPenalty, Entities: []model.Entity{
		span(amount(10000), "Rs. 10,000"),
		span(amount(500000), "Rs. 5,00,000"),
		span(model.Entity{Type: model.EntityLiabilityCap, Value: "INR 500000.00", Number: 500000}, "liability shall not exceed Rs. 5,00,000"),
	}}

	_, reasons := s.Score(clause, model.ContractVendor)
	assert.NotContains(t, ruleIDs(reasons), "excessive-penalty-amount")

	clause.Entities[0] = span(amount(1000000), "Rs. 10,000")
	_, reasons = s.Score(clause, model.ContractVendor)
	assert.Contains(t, ruleIDs(reasons), "excessive-penalty-amount")
}

func TestScoreCapsAt100(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	clause := model.Clause{
		Text:     "This Agreement shall automatically renew for successive terms unless a party opts out 15 days before expiry.",
		Category: model.CategoryRenewal,
		Entities: []model.Entity{duration(15)},
	}

	risk, reasons := s.Score(clause, model.ContractService)
	assert.Equal(t, 100, risk.Score)
	assert.Equal(t, model.BandCritical, risk.Band)
	assert.Equal(t, []string{"auto-renewal-short-opt-out", "auto-renewal"}, ruleIDs(reasons))
}

func TestScoreContractSpecificRules(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	clause := model.Clause{
		Text:     "The Employee shall serve a minimum service period of two years or repay training costs.",
		Category: model.CategoryObligation,
	}

	risk, reasons := s.Score(clause, model.ContractEmployment)
	assert.Equal(t, 30, risk.Score)
	assert.Equal(t, []string{"employment-bond"}, ruleIDs(reasons))

	for _, ct := range []model.ContractType{model.ContractUnknown, model.ContractLease} {
		risk, _ = s.Score(clause, ct)
		assert.Equal(t, 0, risk.Score, "employment rule must not fire for %s", ct)
	}
}

func TestScoreSignatureBlock(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	clause := model.Clause{
		Text:     "IN WITNESS WHEREOF the parties have signed this Agreement on the date first written above.",
		Category: model.CategoryOther,
	}
	risk, reasons := s.Score(clause, model.ContractUnknown)
	assert.Equal(t, 0, risk.Score)
	assert.Equal(t, model.BandLow, risk.Band)
	assert.Empty(t, reasons)
}

const monotoneCatalog = `
version: test
classifier: {threshold: 0.3, normalizer: 1.0}
categories:
  - category: obligation
    patterns:
      - {pattern: 'shall', weight: 0.5}
contract_types: {threshold: 0.35, normalizer: 6}
scoring: {critical_bonus: 15, critical_floor: 60}
risk_rules:
  - id: a
    severity: 10
    explanation: a
    when: {any: ['alpha']}
  - id: b
    severity: 20
    explanation: b
    when: {any: ['beta']}
  - id: zero
    severity: 0
    explanation: informational
    when: {any: ['alpha']}
`

func TestScoreMonotone(t *testing.T) {
	c, err := rules.Parse([]byte(monotoneCatalog))
	require.NoError(t, err)
	s := NewScorer(c)

	base := model.Clause{Text: "alpha", Category: model.CategoryObligation}
	more := model.Clause{Text: "alpha beta", Category: model.CategoryObligation}

	r1, reasons1 := s.Score(base, model.ContractUnknown)
	r2, reasons2 := s.Score(more, model.ContractUnknown)
	assert.Equal(t, 10, r1.Score)
	assert.Equal(t, 30, r2.Score)
	assert.GreaterOrEqual(t, r2.Score, r1.Score)
	assert.Equal(t, []string{"a", "zero"}, ruleIDs(reasons1))
	assert.Equal(t, []string{"a", "b", "zero"}, ruleIDs(reasons2))
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(rules.MustDefault())
	clause := model.Clause{
		Text:     "The Employee shall not engage in any competing business in India for 2 years after leaving.",
		Category: model.CategoryNonCompete,
		Entities: []model.Entity{duration(730)},
	}
	first, firstReasons := s.Score(clause, model.ContractEmployment)
	for i := 0; i < 10; i++ {
		r, reasons := s.Score(clause, model.ContractEmployment)
		assert.Equal(t, first, r)
		assert.Equal(t, firstReasons, reasons)
	}
	assert.Positive(t, first.Score)
}
