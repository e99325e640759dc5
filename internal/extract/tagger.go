package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/clauseguard/internal/util"
)

// Label is a named-entity tag produced by a Tagger
type Label string

const (
	LabelPerson Label = "PERSON"
	LabelOrg    Label = "ORG"
	LabelDate   Label = "DATE"
	LabelMoney  Label = "MONEY"
	LabelGPE    Label = "GPE"
)

// Span is one tagged region of the input, as byte offsets
type Span struct {
	Label Label  `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Tagger is a generic named-entity capability: given text, produce spans
// tagged PERSON/ORG/DATE/MONEY/GPE. Implementations may be unavailable;
// the extractor degrades to pattern-only output when Tag fails.
type Tagger interface {
	Name() string
	Tag(ctx context.Context, text string) ([]Span, error)
}

// HeuristicTagger is the built-in offline tagger. It recognizes
// organisations by legal suffix, persons by honorific and places from a
// gazetteer of Indian and common foreign venues.
type HeuristicTagger struct{}

// NewHeuristicTagger creates the built-in tagger
func NewHeuristicTagger() *HeuristicTagger {
	return &HeuristicTagger{}
}

var (
	orgPattern = regexp.MustCompile(`\b(?:[A-Z][A-Za-z0-9&'-]*\.?[ \t]+){1,6}(?:Pvt\.?[ \t]+Ltd\.?|Private[ \t]+Limited|Limited|Ltd\.?|LLP|Inc\.?|Corporation|Corp\.?|Technologies|Solutions|Industries|Enterprises|Bank)`)

	personPattern = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Shri|Smt|Sri)\.?[ \t]+[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){0,3}`)

	gpePattern = regexp.MustCompile(`\b(?:New[ \t]+Delhi|Delhi|Mumbai|Bombay|Bengaluru|Bangalore|Chennai|Madras|Kolkata|Calcutta|Hyderabad|Pune|Ahmedabad|Jaipur|Lucknow|Noida|Gurugram|Gurgaon|Chandigarh|Kochi|Indore|Bhopal|Nagpur|Maharashtra|Karnataka|Tamil[ \t]+Nadu|Kerala|Telangana|Gujarat|Rajasthan|Uttar[ \t]+Pradesh|West[ \t]+Bengal|Haryana|Punjab|India|London|England|Singapore|New[ \t]+York|Delaware|California|Hong[ \t]+Kong|Dubai)\b`)
)

// Name returns the tagger name
func (t *HeuristicTagger) Name() string {
	return "heuristic"
}

// Tag returns ORG, PERSON and GPE spans
func (t *HeuristicTagger) Tag(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var spans []Span
	collect := func(re *regexp.Regexp, label Label) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{Label: label, Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]})
		}
	}
	collect(orgPattern, LabelOrg)
	collect(personPattern, LabelPerson)
	collect(gpePattern, LabelGPE)
	return spans, nil
}

// RemoteTagger calls an HTTP named-entity service.
//
// Request:  POST {endpoint} {"text": "..."}
// Response: {"entities": [{"label": "ORG", "start": 0, "end": 12}]}
//
// Offsets in the response are character (rune) offsets, as produced by
// most NLP toolkits, and are converted to byte offsets here.
type RemoteTagger struct {
	endpoint   string
	httpClient *http.Client
}

type remoteTagRequest struct {
	Text string `json:"text"`
}

type remoteTagResponse struct {
	Entities []struct {
		Label string `json:"label"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	} `json:"entities"`
}

// NewRemoteTagger creates a tagger for the given endpoint
func NewRemoteTagger(endpoint string, timeout time.Duration) *RemoteTagger {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RemoteTagger{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc("", "", ""),
			},
		},
	}
}

// Name returns the tagger name
func (t *RemoteTagger) Name() string {
	return "remote"
}

// Tag posts the text to the service and maps its spans
func (t *RemoteTagger) Tag(ctx context.Context, text string) ([]Span, error) {
	body, err := json.Marshal(remoteTagRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tagger error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed remoteTagResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	offsets := runeOffsets(text)
	spans := make([]Span, 0, len(parsed.Entities))
	for _, e := range parsed.Entities {
		if e.Start < 0 || e.End <= e.Start || e.End >= len(offsets) {
			continue
		}
		start, end := offsets[e.Start], offsets[e.End]
		spans = append(spans, Span{
			Label: Label(strings.ToUpper(e.Label)),
			Start: start,
			End:   end,
			Text:  text[start:end],
		})
	}
	return spans, nil
}

// runeOffsets maps rune index to byte offset, including the end position
func runeOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}
