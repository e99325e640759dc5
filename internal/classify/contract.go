package classify

import (
	"math"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/rules"
)

// ContractClassifier detects the overall agreement type from whole-document
// signals: title lines, recurring vocabulary and party-role phrasing
type ContractClassifier struct {
	catalog *rules.Catalog
}

// NewContractClassifier creates a contract type classifier
func NewContractClassifier(catalog *rules.Catalog) *ContractClassifier {
	return &ContractClassifier{catalog: catalog}
}

// Classify returns the best contract type, or unknown below the threshold.
// Title patterns count once, multiplied when found in the title lines.
// Vocabulary patterns count per occurrence up to the configured cap.
// A known type also gets the catalog's sub-type for it, if any.
func (c *ContractClassifier) Classify(text string, lang model.Language) model.ContractTypeResult {
	settings := c.catalog.ContractTypes
	title := titleRegion(text, settings.TitleLines)

	result := model.ContractTypeResult{Type: model.ContractUnknown}
	bestScore := 0.0
	var (
		bestType       *rules.ContractType
		bestIndicators []string
	)

	for _, typ := range settings.Types {
		raw := 0.0
		var indicators []string
		for _, p := range typ.Patterns {
			if !p.Applies(lang, "") {
				continue
			}
			if p.Title {
				switch {
				case title != "" && p.MatchString(title):
					raw += p.Weight * settings.TitleMultiplier
					indicators = append(indicators, p.Source)
				case p.MatchString(text):
					raw += p.Weight
					indicators = append(indicators, p.Source)
				}
				continue
			}
			if n := p.CountMatches(text, settings.MaxOccurrences); n > 0 {
				raw += p.Weight * float64(n)
				indicators = append(indicators, p.Source)
			}
		}

		score := confidence(raw, settings.Normalizer)
		if score > bestScore+tieEpsilon {
			result.Type = typ.Type
			bestType = typ
			bestScore = score
			bestIndicators = indicators
		}
	}

	if result.Type == model.ContractUnknown || bestScore+tieEpsilon < settings.Threshold {
		return model.ContractTypeResult{Type: model.ContractUnknown}
	}
	result.SubType = bestType.SubTypeOf(text)
	result.Confidence = math.Min(bestScore, 1)
	result.Indicators = bestIndicators
	return result
}

// titleRegion returns the first n non-blank lines
func titleRegion(text string, n int) string {
	if n <= 0 {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return strings.Join(lines, "\n")
}
