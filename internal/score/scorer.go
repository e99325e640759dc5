package score

import (
	"regexp"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/rules"
)

// Scorer applies the catalog's risk rules to one classified clause.
// It holds no state between calls: the verdict depends only on the clause
// (category, entities, text), the contract type and the catalog.
type Scorer struct {
	catalog *rules.Catalog
}

// NewScorer creates a scorer for the given catalog
func NewScorer(catalog *rules.Catalog) *Scorer {
	return &Scorer{catalog: catalog}
}

// Score evaluates every applicable rule. The clause score is the sum of the
// matched severities capped at 100; reasons come back in catalog order.
func (s *Scorer) Score(clause model.Clause, ct model.ContractType) (model.ClauseRisk, []model.RiskReason) {
	var (
		total   int
		reasons []model.RiskReason
	)

	for _, rule := range s.catalog.Rules {
		if !rule.AppliesTo(clause.Category, ct) {
			continue
		}
		if !matches(rule.When, clause) {
			continue
		}
		total += rule.Severity
		reasons = append(reasons, model.RiskReason{
			RuleID:       rule.ID,
			Title:        rule.Title,
			Explanation:  rule.Explanation,
			Contribution: rule.Severity,
			Suggestion:   rule.Suggestion,
			LawReference: rule.LawReference,
		})
	}

	if total > 100 {
		total = 100
	}
	return model.ClauseRisk{Score: total, Band: model.BandForScore(total)}, reasons
}

// matches evaluates a rule condition against a clause
func matches(c rules.Condition, clause model.Clause) bool {
	text := clause.Text

	for _, re := range c.All {
		if !re.MatchString(text) {
			return false
		}
	}
	if len(c.Any) > 0 && !anyMatch(c.Any, text) {
		return false
	}
	if anyMatch(c.None, text) {
		return false
	}

	for _, t := range c.RequiresEntities {
		if !hasEntity(clause.Entities, t) {
			return false
		}
	}
	for _, t := range c.AbsentEntities {
		if hasEntity(clause.Entities, t) {
			return false
		}
	}

	if c.MaxDurationDays != nil && !anyNumber(clause.Entities, model.EntityDuration, func(n float64) bool { return n < *c.MaxDurationDays }) {
		return false
	}
	if c.MinDurationDays != nil && !anyNumber(clause.Entities, model.EntityDuration, func(n float64) bool { return n >= *c.MinDurationDays }) {
		return false
	}
	if c.MinAmount != nil && !anyNumber(chargedAmounts(clause.Entities), model.EntityAmount, func(n float64) bool { return n >= *c.MinAmount }) {
		return false
	}
	return true
}

// chargedAmounts drops amounts that only state a liability cap
func chargedAmounts(entities []model.Entity) []model.Entity {
	var caps []model.Entity
	for _, e := range entities {
		if e.Type == model.EntityLiabilityCap && e.End > e.Start {
			caps = append(caps, e)
		}
	}
	if len(caps) == 0 {
		return entities
	}

	out := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		if e.Type == model.EntityAmount && insideAny(e, caps) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func insideAny(e model.Entity, spans []model.Entity) bool {
	for _, s := range spans {
		if e.Start >= s.Start && e.End <= s.End {
			return true
		}
	}
	return false
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func hasEntity(entities []model.Entity, t model.EntityType) bool {
	for _, e := range entities {
		if e.Type == t {
			return true
		}
	}
	return false
}

func anyNumber(entities []model.Entity, t model.EntityType, ok func(float64) bool) bool {
	for _, e := range entities {
		if e.Type == t && ok(e.Number) {
			return true
		}
	}
	return false
}
