package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/clauseguard/internal/model"
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

const monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

var (
	// 15/01/2024, 15-01-24, 15.01.2024 (day first, Indian convention)
	numericDate = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4}|\d{2})\b`)
	isoDate     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// 15th January 2024, 1 Jan, 2024, 5th day of March 2024
	dayMonthDate = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:day\s+of\s+)?(` + monthNames + `)\.?,?\s+(\d{4})\b`)
	// January 15, 2024
	monthDayDate = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)

	amountPrefix = regexp.MustCompile(`(?i)(₹|\$|€|£|\b(?:rs\.?|inr|usd|us\$|eur|gbp|rupees))\s*(\d[\d,]*(?:\.\d+)?)(?:\s*(lakhs?|lacs?|crores?|million|mn|thousand|cr)\b)?(?:\s*(?:/-|only))?`)
	amountSuffix = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(lakhs?|lacs?|crores?|million|thousand)?\s*(rupees|inr|dollars|usd)\b`)

	durationPattern = regexp.MustCompile(`(?i)\b(\d{1,4}|` + numberWordsAlt + `)(?:\s*\((\d{1,4})\))?[\s-]*(?:(?:calendar|working|business|clear)\s+)?(days?|weeks?|months?|years?)\b`)

	jurisdictionPattern = regexp.MustCompile(`(?i:\b(?:courts?\s+(?:at|of|in)|jurisdiction\s+of\s+(?:the\s+)?(?:courts?\s+(?:at|of|in)\s+)?|laws?\s+of|seat\s+of\s+(?:the\s+)?arbitration\s+(?:shall\s+be|is|will\s+be)|venue\s+of\s+(?:the\s+)?arbitration\s+(?:shall\s+be|is|will\s+be)|arbitration\s+(?:at|in)))\s+(?i:the\s+(?:state\s+of\s+)?)?([A-Z][A-Za-z]+(?:[ \t]+[A-Z][A-Za-z]+){0,2})`)

	liabilityCapPattern = regexp.MustCompile(`(?i)\bliability\b[^.;]{0,80}?\b(?:shall\s+not\s+(?:in\s+any\s+event\s+)?exceed|(?:is|be|shall\s+be)\s+limited\s+to|capped\s+at|not\s+exceeding)\s+((?:rs\.|\.\d|[^.\n;]){1,120})`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"fifteen": 15, "eighteen": 18, "twenty": 20, "thirty": 30, "forty-five": 45,
	"sixty": 60, "ninety": 90,
}

const numberWordsAlt = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|fifteen|eighteen|twenty|thirty|forty-five|sixty|ninety`

// party name: optional honorific, then capitalized words
const partyName = `(?:(?:M/s\.?|Mr\.?|Mrs\.?|Ms\.?|Dr\.?|Shri|Smt\.?)[ \t]+)?[A-Z][A-Za-z0-9&'.-]*(?:[ \t]+(?:[A-Z][A-Za-z0-9&'.-]*|of|&))*`

var (
	betweenParties = regexp.MustCompile(`\b(?i:between)\s+(?:the\s+)?(` + partyName + `)[^.]{0,160}?\b(?i:and)\s+(?:the\s+)?(` + partyName + `)`)
	// (hereinafter referred to as the "Company")
	aliasPattern     = regexp.MustCompile(`\(\s*(?i:hereinafter|herein)\s+(?i:referred\s+to\s+as\s+|called\s+)?(?i:the\s+)?["“']?([A-Z][A-Za-z ]{1,40}?)["”']?\s*\)`)
	partyNamePattern = regexp.MustCompile(partyName)
	// where the text introducing the party before an alias starts
	partyBoundary = regexp.MustCompile(`(?i:\bbetween\s|\band\s)|[);\n]`)
	// Party A: Name / Employer: Name / Name: Name
	labelledParty = regexp.MustCompile(`(?m)^[ \t]*(?i:party\s+[a-z12]|first\s+party|second\s+party|employer|employee|lessor|lessee|landlord|tenant|vendor|client|service\s+provider|licensor|licensee|buyer|seller|name)[ \t]*:[ \t]*(` + partyName + `)`)
)

// patternEntities runs the lexical extractors over one clause
func patternEntities(text string) []model.Entity {
	var out []model.Entity
	out = append(out, extractDates(text)...)
	out = append(out, extractAmounts(text)...)
	out = append(out, extractDurations(text)...)
	out = append(out, extractJurisdictions(text)...)
	out = append(out, extractLiabilityCaps(text)...)
	out = append(out, extractParties(text)...)
	return out
}

func extractDates(text string) []model.Entity {
	var out []model.Entity
	add := func(m []int, y, mo, d int) {
		iso, ok := isoDay(y, time.Month(mo), d)
		if !ok {
			return
		}
		out = append(out, patternEntity(model.EntityDate, iso, text, m[0], m[1]))
	}

	for _, m := range isoDate.FindAllStringSubmatchIndex(text, -1) {
		add(m, atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), atoi(text[m[6]:m[7]]))
	}
	for _, m := range numericDate.FindAllStringSubmatchIndex(text, -1) {
		add(m, year(text[m[6]:m[7]]), atoi(text[m[4]:m[5]]), atoi(text[m[2]:m[3]]))
	}
	for _, m := range dayMonthDate.FindAllStringSubmatchIndex(text, -1) {
		mo := months[strings.ToLower(text[m[4]:m[5]])]
		add(m, atoi(text[m[6]:m[7]]), int(mo), atoi(text[m[2]:m[3]]))
	}
	for _, m := range monthDayDate.FindAllStringSubmatchIndex(text, -1) {
		mo := months[strings.ToLower(text[m[2]:m[3]])]
		add(m, atoi(text[m[6]:m[7]]), int(mo), atoi(text[m[4]:m[5]]))
	}
	return out
}

// isoDay validates a calendar day and formats it as YYYY-MM-DD
func isoDay(y int, m time.Month, d int) (string, bool) {
	if m < time.January || m > time.December || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != m {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func year(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

func extractAmounts(text string) []model.Entity {
	var out []model.Entity
	for _, m := range amountPrefix.FindAllStringSubmatchIndex(text, -1) {
		cur := currencyCode(text[m[2]:m[3]])
		mult := ""
		if m[6] >= 0 {
			mult = text[m[6]:m[7]]
		}
		n, ok := parseAmount(text[m[4]:m[5]], mult)
		if !ok {
			continue
		}
		out = append(out, amountEntity(text, m[0], m[1], cur, n))
	}
	for _, m := range amountSuffix.FindAllStringSubmatchIndex(text, -1) {
		mult := ""
		if m[4] >= 0 {
			mult = text[m[4]:m[5]]
		}
		n, ok := parseAmount(text[m[2]:m[3]], mult)
		if !ok {
			continue
		}
		out = append(out, amountEntity(text, m[0], m[1], currencyCode(text[m[6]:m[7]]), n))
	}
	return out
}

func amountEntity(text string, start, end int, currency string, n float64) model.Entity {
	e := patternEntity(model.EntityAmount, fmt.Sprintf("%s %.2f", currency, n), text, start, end)
	e.Number = n
	e.Currency = currency
	return e
}

// parseAmount parses "10,00,000" style numbers with an optional Indian or
// western multiplier word
func parseAmount(digits, multiplier string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.TrimSuffix(strings.ToLower(multiplier), ".") {
	case "lakh", "lakhs", "lac", "lacs":
		n *= 100_000
	case "crore", "crores", "cr":
		n *= 10_000_000
	case "million", "mn":
		n *= 1_000_000
	case "thousand":
		n *= 1_000
	}
	return n, true
}

func currencyCode(sym string) string {
	switch strings.TrimSuffix(strings.ToLower(sym), ".") {
	case "$", "usd", "us$", "dollars":
		return "USD"
	case "€", "eur":
		return "EUR"
	case "£", "gbp":
		return "GBP"
	default:
		return "INR"
	}
}

func extractDurations(text string) []model.Entity {
	var out []model.Entity
	for _, m := range durationPattern.FindAllStringSubmatchIndex(text, -1) {
		qty := strings.ToLower(text[m[2]:m[3]])
		n, ok := numberWords[qty]
		if !ok {
			n = atoi(qty)
		}
		if m[4] >= 0 {
			n = atoi(text[m[4]:m[5]])
		}
		if n <= 0 {
			continue
		}
		unit := strings.TrimSuffix(strings.ToLower(text[m[6]:m[7]]), "s")
		days := float64(n) * unitDays(unit)

		value := fmt.Sprintf("%d %s", n, unit)
		if n != 1 {
			value += "s"
		}
		e := patternEntity(model.EntityDuration, value, text, m[0], m[1])
		e.Number = days
		out = append(out, e)
	}
	return out
}

// unitDays converts a duration unit to days (months are 30, years 365)
func unitDays(unit string) float64 {
	switch unit {
	case "week":
		return 7
	case "month":
		return 30
	case "year":
		return 365
	default:
		return 1
	}
}

func extractJurisdictions(text string) []model.Entity {
	var out []model.Entity
	for _, m := range jurisdictionPattern.FindAllStringSubmatchIndex(text, -1) {
		place := strings.TrimSpace(text[m[2]:m[3]])
		if place == "" || stopPlaces[strings.ToLower(place)] {
			continue
		}
		out = append(out, patternEntity(model.EntityJurisdiction, place, text, m[2], m[3]))
	}
	return out
}

// stopPlaces are capitalized words that follow "laws of" without naming a place
var stopPlaces = map[string]bool{
	"the": true, "this": true, "such": true, "any": true, "company": true,
	"agreement": true, "competent": true,
}

func extractLiabilityCaps(text string) []model.Entity {
	var out []model.Entity
	for _, m := range liabilityCapPattern.FindAllStringSubmatchIndex(text, -1) {
		tail := text[m[2]:m[3]]
		if amounts := extractAmounts(tail); len(amounts) > 0 {
			a := amounts[0]
			e := patternEntity(model.EntityLiabilityCap, a.Value, text, m[0], m[2]+a.End)
			e.Number = a.Number
			e.Currency = a.Currency
			out = append(out, e)
			continue
		}
		// Non-monetary cap such as "the fees paid in the preceding twelve months"
		tail = strings.TrimSpace(tail)
		if tail == "" {
			continue
		}
		out = append(out, patternEntity(model.EntityLiabilityCap, tail, text, m[0], m[2]+len(tail)))
	}
	return out
}

func extractParties(text string) []model.Entity {
	var out []model.Entity
	for _, m := range aliasPattern.FindAllStringSubmatchIndex(text, -1) {
		from := 0
		for _, b := range partyBoundary.FindAllStringIndex(text[:m[0]], -1) {
			from = b[1]
		}
		loc := partyNamePattern.FindStringIndex(text[from:m[0]])
		if loc == nil {
			continue
		}
		start, end := from+loc[0], from+loc[1]
		name := cleanPartyName(text[start:end])
		if name == "" {
			continue
		}
		e := patternEntity(model.EntityParty, name, text, start, start+len(name))
		e.Alias = strings.TrimSpace(text[m[2]:m[3]])
		out = append(out, e)
	}
	for _, m := range betweenParties.FindAllStringSubmatchIndex(text, -1) {
		for _, g := range [][2]int{{m[2], m[3]}, {m[4], m[5]}} {
			if name := cleanPartyName(text[g[0]:g[1]]); name != "" {
				out = append(out, patternEntity(model.EntityParty, name, text, g[0], g[1]))
			}
		}
	}
	for _, m := range labelledParty.FindAllStringSubmatchIndex(text, -1) {
		if name := cleanPartyName(text[m[2]:m[3]]); name != "" {
			out = append(out, patternEntity(model.EntityParty, name, text, m[2], m[3]))
		}
	}
	return out
}

// cleanPartyName trims punctuation and rejects generic role words
func cleanPartyName(s string) string {
	s = strings.TrimSpace(strings.TrimRight(s, " ,;:"))
	if s == "" || genericParties[strings.ToLower(s)] {
		return ""
	}
	return s
}

var genericParties = map[string]bool{
	"party": true, "parties": true, "company": true, "employee": true,
	"employer": true, "vendor": true, "client": true, "lessor": true,
	"lessee": true, "it": true, "this": true, "whereas": true,
}

func patternEntity(t model.EntityType, value, text string, start, end int) model.Entity {
	return model.Entity{
		Type:   t,
		Value:  value,
		Text:   text[start:end],
		Start:  start,
		End:    end,
		Source: model.SourcePattern,
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
