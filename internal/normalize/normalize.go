// Package normalize prepares raw contract text for segmentation: Unicode
// NFC, consistent line endings and spacing, Devanagari digits and an
// English gloss for common Hindi legal terms.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/clauseguard/internal/model"
)

// hindiThreshold is the Devanagari share of letters above which a text is
// treated as Hindi-normalized
const hindiThreshold = 0.2

var spaceReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\t", " ",
	"\f", "\n",
	"\u00a0", " ", // no-break space
	"\u2007", " ",
	"\u202f", " ",
	"\u200b", "", // zero-width space
	"\ufeff", "",
)

// Result is the normalized text and its detected language
type Result struct {
	Text     string
	Language model.Language
	Glossary []model.GlossaryTerm
}

// Normalize applies NFC and whitespace normalization, converts Devanagari
// digits, detects the language and, for Hindi text, glosses known legal
// terms. lang overrides detection when non-empty.
func Normalize(text string, lang model.Language) (*Result, error) {
	if lang != "" && !lang.Valid() {
		return nil, model.ErrUnsupportedLanguage
	}

	out := norm.NFC.String(text)
	out = spaceReplacer.Replace(out)
	out = Digits(out)
	out = trimLines(out)

	if lang == "" {
		lang, _ = DetectLanguage(out)
	}

	res := &Result{Text: out, Language: lang}
	if lang == model.LanguageHindiNormalized {
		res.Glossary = Terms(out)
		res.Text = Gloss(out)
	}
	return res, nil
}

// Digits converts Devanagari digits (०-९) to ASCII
func Digits(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= '०' && r <= '९' {
			return '0' + (r - '०')
		}
		return r
	}, text)
}

// DetectLanguage classifies text as English or Hindi-normalized by the
// share of Devanagari characters. The second value is that share.
func DetectLanguage(text string) (model.Language, float64) {
	var deva, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r):
			deva++
		case r <= unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}
	if deva+latin == 0 {
		return model.LanguageEnglish, 0
	}
	ratio := float64(deva) / float64(deva+latin)
	if ratio > hindiThreshold {
		return model.LanguageHindiNormalized, ratio
	}
	return model.LanguageEnglish, ratio
}

// trimLines strips trailing spaces and collapses interior runs of spaces
func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = collapseSpaces(strings.TrimRight(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func collapseSpaces(line string) string {
	if !strings.Contains(line, "  ") {
		return line
	}
	indent := len(line) - len(strings.TrimLeft(line, " "))
	return line[:indent] + strings.Join(strings.Fields(line[indent:]), " ")
}
