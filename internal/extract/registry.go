package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
)

// BuildRegistry clusters party entities across all clauses into a
// contract-level registry and sets each party entity's PartyRef.
//
// Clustering is exact after normalization (case, whitespace, surrounding
// punctuation, a leading "the" or "M/s"). "ABC Pvt Ltd" and "ABC Private
// Limited" stay separate parties; there is no fuzzy matching.
func BuildRegistry(clauses []model.Clause) []model.Party {
	var parties []model.Party
	byKey := make(map[string]int)

	lookup := func(name string) (int, bool) {
		idx, ok := byKey[normalizeParty(name)]
		return idx, ok
	}

	for ci := range clauses {
		for ei := range clauses[ci].Entities {
			ent := &clauses[ci].Entities[ei]
			if ent.Type != model.EntityParty {
				continue
			}

			idx, ok := lookup(ent.Value)
			if !ok && ent.Alias != "" {
				idx, ok = lookup(ent.Alias)
			}
			if !ok {
				key := normalizeParty(ent.Value)
				if key == "" {
					continue
				}
				idx = len(parties)
				parties = append(parties, model.Party{
					ID:   fmt.Sprintf("party-%d", idx+1),
					Name: ent.Value,
				})
				byKey[key] = idx
			}

			p := &parties[idx]
			if ent.Alias != "" {
				aliasKey := normalizeParty(ent.Alias)
				if _, taken := byKey[aliasKey]; !taken && aliasKey != "" {
					byKey[aliasKey] = idx
					p.Aliases = append(p.Aliases, ent.Alias)
				}
			}
			if len(p.Clauses) == 0 || p.Clauses[len(p.Clauses)-1] != clauses[ci].Index {
				p.Clauses = append(p.Clauses, clauses[ci].Index)
			}
			ent.PartyRef = p.ID
		}
	}
	return parties
}

// normalizeParty lowercases, collapses whitespace and strips decoration
func normalizeParty(name string) string {
	s := strings.ToLower(strings.Join(strings.Fields(name), " "))
	s = strings.Trim(s, ` .,;:"'“”()`)
	for _, prefix := range []string{"the ", "m/s. ", "m/s "} {
		s = strings.TrimPrefix(s, prefix)
	}
	return strings.TrimSpace(s)
}
