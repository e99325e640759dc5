package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauseguard/internal/model"
)

func TestNormalizeWhitespace(t *testing.T) {
	in := "1.  The  term is\tone year.  \r\n2. Rent is due\u200b monthly.\r\n\r\n"
	res, err := Normalize(in, "")
	require.NoError(t, err)
	assert.Equal(t, "1. The term is one year.\n2. Rent is due monthly.", res.Text)
	assert.Equal(t, model.LanguageEnglish, res.Language)
	assert.Empty(t, res.Glossary)
}

func TestNormalizeNFC(t *testing.T) {
	res, err := Normalize("Cafe\u0301 lease", "")
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 lease", res.Text)
}

func TestNormalizeRejectsUnknownLanguage(t *testing.T) {
	_, err := Normalize("text", model.Language("fr"))
	assert.True(t, errors.Is(err, model.ErrUnsupportedLanguage))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "धारा 5. अवधि 12 माह", Digits("धारा ५. अवधि १२ माह"))
	assert.Equal(t, "no change 42", Digits("no change 42"))
}

func TestDetectLanguage(t *testing.T) {
	lang, ratio := DetectLanguage("This Agreement is made at Mumbai.")
	assert.Equal(t, model.LanguageEnglish, lang)
	assert.Zero(t, ratio)

	lang, ratio = DetectLanguage("यह अनुबंध कंपनी और कर्मचारी के बीच है।")
	assert.Equal(t, model.LanguageHindiNormalized, lang)
	assert.Equal(t, 1.0, ratio)

	lang, _ = DetectLanguage("")
	assert.Equal(t, model.LanguageEnglish, lang)
}

func TestGloss(t *testing.T) {
	got := Gloss("अनुबंध की समाप्ति पर प्रथम पक्ष भुगतान करेगा")
	assert.Equal(t, "अनुबंध (agreement) की समाप्ति (termination) पर प्रथम पक्ष (first party) भुगतान (payment) करेगा", got)
	assert.Equal(t, got, Gloss(got), "glossing twice changes nothing")

	assert.Equal(t, "धारा 5", Gloss("धारा 5"), "section markers are not glossed")
}

func TestNormalizeHindi(t *testing.T) {
	res, err := Normalize("धारा १. कंपनी द्वारा समाप्ति\nधारा २. मध्यस्थता", "")
	require.NoError(t, err)
	assert.Equal(t, model.LanguageHindiNormalized, res.Language)
	assert.Equal(t, "धारा 1. कंपनी द्वारा समाप्ति (termination)\nधारा 2. मध्यस्थता (arbitration)", res.Text)
	assert.Equal(t, []model.GlossaryTerm{
		{Term: "समाप्ति", Meaning: "termination"},
		{Term: "मध्यस्थता", Meaning: "arbitration"},
	}, res.Glossary)

	forced, err := Normalize("The Company may terminate.", model.LanguageHindiNormalized)
	require.NoError(t, err)
	assert.Equal(t, model.LanguageHindiNormalized, forced.Language)
	assert.Equal(t, "The Company may terminate.", forced.Text)
}
