package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/clauseguard/internal/model"
)

// Strategy names how a document was split
type Strategy string

const (
	StrategyStructural Strategy = "structural"
	StrategyParagraph  Strategy = "paragraph"
	StrategySentence   Strategy = "sentence"
	StrategyWhole      Strategy = "whole"
)

// DefaultMinStructuralMarkers is the marker count below which headings are ignored
const DefaultMinStructuralMarkers = 2

// markerPattern matches a clause heading at the start of a line:
// "1.", "2)", "3.1", "3.1.2.", "(a)", "b)", "IV.", "(iii)", "Section 4",
// "Article 12.", "Clause 7:", "धारा 5"
var markerPattern = regexp.MustCompile(`(?m)^[ \t]*(` +
	`\d+(?:\.\d+)+\.?` +
	`|\d+[.):]` +
	`|\((?:[a-z]|[ivx]+)\)` +
	`|[a-z]\)` +
	`|[IVXLC]+[.)]` +
	`|(?i:section|article|clause)\s+\d+(?:\.\d+)*[.:]?` +
	`|धारा\s+[\d०-९]+[.:]?` +
	`)(?:[ \t]|$)`)

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)

// abbreviations that end with a period without ending a sentence
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "hon": true,
	"jr": true, "sr": true, "st": true, "no": true, "nos": true, "rs": true,
	"pvt": true, "ltd": true, "co": true, "inc": true, "corp": true, "llp": true,
	"vs": true, "viz": true, "etc": true, "sec": true, "art": true, "cl": true,
	"para": true, "approx": true, "govt": true, "dept": true, "i.e": true,
	"e.g": true, "u/s": true, "w.e.f": true,
}

// Result is the segmentation of one document
type Result struct {
	Clauses  []model.Clause
	Strategy Strategy
}

// Segmenter splits normalized contract text into clauses.
// Every clause satisfies Text == text[Start:End].
type Segmenter struct {
	minMarkers int
}

// New creates a segmenter. minMarkers <= 0 selects the default.
func New(minMarkers int) *Segmenter {
	if minMarkers <= 0 {
		minMarkers = DefaultMinStructuralMarkers
	}
	return &Segmenter{minMarkers: minMarkers}
}

// Segment splits text using structural markers when there are enough of
// them, falling back to paragraphs, then sentences, then the whole text.
func (s *Segmenter) Segment(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &model.DocumentError{Stage: "segment", Err: model.ErrEmptyDocument}
	}

	res := &Result{}
	if spans := s.structural(text); len(spans) > 0 {
		res.Strategy = StrategyStructural
		res.Clauses = build(text, spans)
	} else if spans := paragraphs(text); len(spans) >= 2 {
		res.Strategy = StrategyParagraph
		res.Clauses = build(text, spans)
	} else if spans := sentences(text); len(spans) >= 2 {
		res.Strategy = StrategySentence
		res.Clauses = build(text, spans)
	} else {
		res.Strategy = StrategyWhole
		res.Clauses = build(text, []span{trimSpan(text, span{start: 0, end: len(text)})})
	}

	if len(res.Clauses) == 0 {
		return nil, &model.DocumentError{Stage: "segment", Err: model.ErrSegmentationFailure}
	}
	return res, nil
}

type span struct {
	start, end int
	marker     string
}

func (s *Segmenter) structural(text string) []span {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < s.minMarkers {
		return nil
	}

	var spans []span
	if pre := trimSpan(text, span{start: 0, end: matches[0][2]}); pre.end > pre.start {
		spans = append(spans, pre)
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][2]
		}
		sp := trimSpan(text, span{start: m[2], end: end})
		if sp.end <= sp.start {
			continue
		}
		sp.marker = text[m[2]:m[3]]
		spans = append(spans, sp)
	}
	return spans
}

func paragraphs(text string) []span {
	var spans []span
	start := 0
	for _, loc := range paragraphBreak.FindAllStringIndex(text, -1) {
		if sp := trimSpan(text, span{start: start, end: loc[0]}); sp.end > sp.start {
			spans = append(spans, sp)
		}
		start = loc[1]
	}
	if sp := trimSpan(text, span{start: start, end: len(text)}); sp.end > sp.start {
		spans = append(spans, sp)
	}
	return spans
}

// sentences splits on terminal punctuation followed by whitespace, skipping
// known abbreviations, initials and decimal points
func sentences(text string) []span {
	var spans []span
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size
		if isTerminator(r) && next < len(text) {
			nr, _ := utf8.DecodeRuneInString(text[next:])
			if unicode.IsSpace(nr) && !(r == '.' && isAbbreviation(text[start:i])) {
				if sp := trimSpan(text, span{start: start, end: next}); sp.end > sp.start {
					spans = append(spans, sp)
				}
				start = next
			}
		}
		i = next
	}
	if sp := trimSpan(text, span{start: start, end: len(text)}); sp.end > sp.start {
		spans = append(spans, sp)
	}
	return spans
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '।'
}

// isAbbreviation reports whether the word before a period is an abbreviation
// or a single-letter initial
func isAbbreviation(before string) bool {
	idx := strings.LastIndexFunc(before, unicode.IsSpace)
	word := strings.ToLower(strings.TrimLeft(before[idx+1:], "(\"'"))
	if word == "" {
		return false
	}
	if utf8.RuneCountInString(word) == 1 && unicode.IsLetter([]rune(word)[0]) {
		return true
	}
	return abbreviations[word]
}

func trimSpan(text string, sp span) span {
	for sp.start < sp.end {
		r, size := utf8.DecodeRuneInString(text[sp.start:sp.end])
		if !unicode.IsSpace(r) {
			break
		}
		sp.start += size
	}
	for sp.end > sp.start {
		r, size := utf8.DecodeLastRuneInString(text[sp.start:sp.end])
		if !unicode.IsSpace(r) {
			break
		}
		sp.end -= size
	}
	return sp
}

func build(text string, spans []span) []model.Clause {
	clauses := make([]model.Clause, 0, len(spans))
	for _, sp := range spans {
		clauses = append(clauses, model.Clause{
			Index:    len(clauses),
			Text:     text[sp.start:sp.end],
			Start:    sp.start,
			End:      sp.end,
			Marker:   strings.TrimSpace(sp.marker),
			Category: model.CategoryUnclassified,
			Entities: []model.Entity{},
			Risk:     model.ClauseRisk{Band: model.BandLow},
		})
	}
	return clauses
}
