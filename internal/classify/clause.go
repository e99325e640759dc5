package classify

import (
	"math"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/rules"
)

// tieEpsilon absorbs float noise when comparing summed weights
const tieEpsilon = 1e-9

// ClauseClassifier assigns a category to one clause using the catalog's
// weighted patterns. It is a pure function of its inputs.
type ClauseClassifier struct {
	catalog *rules.Catalog
}

// NewClauseClassifier creates a classifier bound to one catalog snapshot
func NewClauseClassifier(catalog *rules.Catalog) *ClauseClassifier {
	return &ClauseClassifier{catalog: catalog}
}

// Classify scores every category and returns the highest one if it reaches
// the threshold, otherwise unclassified. Categories are ranked by their raw
// weight sums, so two strong categories that both saturate at confidence 1
// are still told apart. Equal sums go to the category declared first and
// are flagged as ambiguous.
func (c *ClauseClassifier) Classify(text string, lang model.Language, ct model.ContractType) model.Classification {
	result := model.Classification{
		Category: model.CategoryUnclassified,
		Scores:   make(map[model.Category]float64, len(c.catalog.Categories)),
	}

	best := -1
	bestSum := 0.0
	tied := false
	matched := make(map[model.Category][]string)

	for i, cat := range c.catalog.Categories {
		sum := 0.0
		for _, p := range cat.Patterns {
			if !p.Applies(lang, ct) || !p.MatchString(text) {
				continue
			}
			sum += p.Weight
			matched[cat.Name] = append(matched[cat.Name], p.Source)
		}
		if sum == 0 {
			continue
		}

		result.Scores[cat.Name] = confidence(sum, c.catalog.ClassifierNormalizer)

		switch {
		case best < 0 || sum > bestSum+tieEpsilon:
			best, bestSum, tied = i, sum, false
		case math.Abs(sum-bestSum) <= tieEpsilon:
			tied = true
		}
	}

	if best < 0 {
		return result
	}
	bestScore := result.Scores[c.catalog.Categories[best].Name]
	if bestScore+tieEpsilon < c.catalog.ClassifierThreshold {
		return result
	}

	name := c.catalog.Categories[best].Name
	result.Category = name
	result.Confidence = bestScore
	result.Matched = matched[name]
	result.Ambiguous = tied
	return result
}

// confidence normalizes a weight sum into [0,1] rounded to 4 places
func confidence(sum, normalizer float64) float64 {
	if normalizer <= 0 {
		normalizer = 1
	}
	v := sum / normalizer
	if v > 1 {
		v = 1
	}
	return math.Round(v*10000) / 10000
}
