package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/clauseguard/internal/model"
)

// DefaultTaggerTimeout bounds a single tagger call
const DefaultTaggerTimeout = 2 * time.Second

// EntityExtractor pulls structured entities from one clause: lexical
// patterns first, then tagger spans, then overlap deduplication
type EntityExtractor struct {
	tagger  Tagger
	timeout time.Duration
}

// NewEntityExtractor creates an extractor. tagger may be nil for
// pattern-only extraction.
func NewEntityExtractor(tagger Tagger, timeout time.Duration) *EntityExtractor {
	if timeout <= 0 {
		timeout = DefaultTaggerTimeout
	}
	return &EntityExtractor{tagger: tagger, timeout: timeout}
}

// Extract returns the clause's entities sorted by offset. When the tagger
// fails, the pattern entities are still returned together with an error
// wrapping model.ErrEntityExtractionDegraded.
func (e *EntityExtractor) Extract(ctx context.Context, text string) ([]model.Entity, error) {
	entities := patternEntities(text)

	var degraded error
	if e.tagger != nil {
		tagged, err := e.tag(ctx, text)
		if err != nil {
			degraded = fmt.Errorf("%w: %s tagger: %v", model.ErrEntityExtractionDegraded, e.tagger.Name(), err)
		} else {
			entities = append(entities, tagged...)
		}
	}

	return Dedupe(entities), degraded
}

func (e *EntityExtractor) tag(ctx context.Context, text string) ([]model.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	spans, err := e.tagger.Tag(ctx, text)
	if err != nil {
		return nil, err
	}

	var out []model.Entity
	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		if ent, ok := spanEntity(text, s); ok {
			out = append(out, ent)
		}
	}
	return out, nil
}

var jurisdictionContext = regexp.MustCompile(`(?i)\b(?:jurisdiction|courts?|governed|laws?\s+of|arbitration|seat|venue)\b`)

// spanEntity maps a tagger span onto the entity model
func spanEntity(text string, s Span) (model.Entity, bool) {
	raw := text[s.Start:s.End]
	ent := model.Entity{
		Text:   raw,
		Start:  s.Start,
		End:    s.End,
		Source: model.SourceTagger,
	}

	switch s.Label {
	case LabelPerson, LabelOrg:
		name := cleanPartyName(raw)
		if name == "" {
			return ent, false
		}
		ent.Type = model.EntityParty
		ent.Value = name
	case LabelGPE:
		if !jurisdictionContext.MatchString(text) {
			return ent, false
		}
		ent.Type = model.EntityJurisdiction
		ent.Value = strings.TrimSpace(raw)
	case LabelDate:
		dates := extractDates(raw)
		if len(dates) == 0 {
			return ent, false
		}
		ent.Type = model.EntityDate
		ent.Value = dates[0].Value
	case LabelMoney:
		amounts := extractAmounts(raw)
		if len(amounts) == 0 {
			return ent, false
		}
		ent.Type = model.EntityAmount
		ent.Value = amounts[0].Value
		ent.Number = amounts[0].Number
		ent.Currency = amounts[0].Currency
	default:
		return ent, false
	}
	return ent, true
}

// Dedupe merges overlapping entities of the same type, keeping the longest
// span. Equal lengths keep the earlier one; a defined alias survives the merge.
func Dedupe(entities []model.Entity) []model.Entity {
	sorted := make([]model.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Len() != sorted[j].Len() {
			return sorted[i].Len() > sorted[j].Len()
		}
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Source == model.SourcePattern && sorted[j].Source != model.SourcePattern
	})

	kept := make([]model.Entity, 0, len(sorted))
	for _, cand := range sorted {
		merged := false
		for i := range kept {
			if kept[i].Type == cand.Type && kept[i].Overlaps(cand) {
				if kept[i].Alias == "" && cand.Alias != "" {
					kept[i].Alias = cand.Alias
				}
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, cand)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Start != kept[j].Start {
			return kept[i].Start < kept[j].Start
		}
		return kept[i].Type < kept[j].Type
	})
	return kept
}
