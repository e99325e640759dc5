package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
)

// glossary maps Hindi legal terms to the English word the rule catalog
// matches on. Structural words such as धारा are left out so that section
// markers survive glossing.
var glossary = map[string]string{
	"अनुबंध":        "agreement",
	"करार":          "agreement",
	"पक्षकार":       "party",
	"प्रथम पक्ष":    "first party",
	"द्वितीय पक्ष":  "second party",
	"साक्षी":        "witness",
	"गवाह":          "witness",
	"शर्तें":        "terms and conditions",
	"दायित्व":       "liability",
	"जिम्मेदारी":    "responsibility",
	"क्षतिपूर्ति":   "indemnity",
	"हर्जाना":       "damages",
	"जुर्माना":      "penalty",
	"समाप्ति":       "termination",
	"रद्द":          "cancellation",
	"नवीनीकरण":      "renewal",
	"अवधि":          "term",
	"भुगतान":        "payment",
	"वेतन":          "salary",
	"गोपनीयता":      "confidentiality",
	"विवाद":         "dispute",
	"मध्यस्थता":     "arbitration",
	"न्यायालय":      "court",
	"क्षेत्राधिकार": "jurisdiction",
	"अधिनियम":       "act",
	"हस्ताक्षर":     "signature",
	"बाध्यकारी":     "binding",
	"स्वामित्व":     "ownership",
	"हस्तांतरण":     "transfer",
	"लाइसेंस":       "license",
	"पट्टा":         "lease",
	"किराया":        "rent",
	"जमानत":         "security deposit",
	"प्रतिभूति":     "security",
	"ऋण":            "loan",
	"ब्याज":         "interest",
	"चूक":           "default",
	"उल्लंघन":       "breach",
	"बल मज़ूर":      "force majeure",
	"अप्रत्याशित":   "unforeseen",
}

var glossaryPattern = compileGlossary()

// compileGlossary builds one alternation with longer terms first so that
// "प्रथम पक्ष" wins over any shorter overlapping term
func compileGlossary() *regexp.Regexp {
	terms := make([]string, 0, len(glossary))
	for t := range glossary {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

// Gloss inserts the English meaning after each known Hindi term, as in
// "समाप्ति (termination)". Already glossed terms are left alone, so Gloss
// is idempotent.
func Gloss(text string) string {
	matches := glossaryPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		term := text[m[0]:m[1]]
		suffix := " (" + glossary[term] + ")"
		b.WriteString(text[last:m[1]])
		if !strings.HasPrefix(text[m[1]:], suffix) {
			b.WriteString(suffix)
		}
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// Terms lists the known Hindi terms present in text, in order of first
// appearance
func Terms(text string) []model.GlossaryTerm {
	var out []model.GlossaryTerm
	seen := make(map[string]bool)
	for _, m := range glossaryPattern.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, model.GlossaryTerm{Term: m, Meaning: glossary[m]})
	}
	return out
}
