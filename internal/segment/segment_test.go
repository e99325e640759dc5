package segment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauseguard/internal/model"
)

func assertOffsets(t *testing.T, text string, clauses []model.Clause) {
	t.Helper()
	for i, c := range clauses {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, text[c.Start:c.End], c.Text, "clause %d", i)
		if i > 0 {
			assert.GreaterOrEqual(t, c.Start, clauses[i-1].End, "clauses must not overlap")
		}
	}
}

func TestSegmentStructural(t *testing.T) {
	text := "EMPLOYMENT AGREEMENT\n\n" +
		"1. Term. The employment starts on 1 April 2024.\n" +
		"2. Salary. The Employee shall be paid Rs. 50,000 per month.\n" +
		"3. Termination. This Agreement may be terminated by the Company at any time without notice.\n"

	res, err := New(2).Segment(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyStructural, res.Strategy)
	require.Len(t, res.Clauses, 4)

	assert.Equal(t, "EMPLOYMENT AGREEMENT", res.Clauses[0].Text)
	assert.Empty(t, res.Clauses[0].Marker)
	assert.Equal(t, "1.", res.Clauses[1].Marker)
	assert.Equal(t, "3.", res.Clauses[3].Marker)
	assert.Contains(t, res.Clauses[3].Text, "without notice")
	assertOffsets(t, text, res.Clauses)
}

func TestSegmentMixedMarkers(t *testing.T) {
	text := "Section 1. Definitions apply.\n" +
		"(a) Company means ABC Pvt. Ltd.\n" +
		"(b) Employee means the person named above.\n" +
		"Article 2: Duties\n" +
		"IV. Miscellaneous provisions apply.\n" +
		"3.1 Payment is due monthly.\n"

	res, err := New(2).Segment(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyStructural, res.Strategy)

	var markers []string
	for _, c := range res.Clauses {
		markers = append(markers, c.Marker)
	}
	assert.Equal(t, []string{"Section 1.", "(a)", "(b)", "Article 2:", "IV.", "3.1"}, markers)
	assertOffsets(t, text, res.Clauses)
}

func TestSegmentSingleMarkerFallsBack(t *testing.T) {
	text := "1. The parties agree as follows.\n\nThe fee is payable monthly.\n\nThis agreement is governed by Indian law."

	res, err := New(2).Segment(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyParagraph, res.Strategy)
	assert.Len(t, res.Clauses, 3)
	assertOffsets(t, text, res.Clauses)
}

func TestSegmentSentences(t *testing.T) {
	text := "The Vendor is XYZ Pvt. Ltd. and Mr. Sharma signs on its behalf. The fee is Rs. 10,000. Payment is due in 30 days."

	res, err := New(2).Segment(text)
	require.NoError(t, err)
	assert.Equal(t, StrategySentence, res.Strategy)
	require.Len(t, res.Clauses, 3)
	assert.Equal(t, "The Vendor is XYZ Pvt. Ltd. and Mr. Sharma signs on its behalf.", res.Clauses[0].Text)
	assert.Equal(t, "The fee is Rs. 10,000.", res.Clauses[1].Text)
	assertOffsets(t, text, res.Clauses)
}

func TestSegmentSingleSentence(t *testing.T) {
	text := "  This Agreement may be terminated by the Company at any time without notice.  "

	res, err := New(2).Segment(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyWhole, res.Strategy)
	require.Len(t, res.Clauses, 1)
	assert.Equal(t, "This Agreement may be terminated by the Company at any time without notice.", res.Clauses[0].Text)
	assert.Equal(t, model.CategoryUnclassified, res.Clauses[0].Category)
	assertOffsets(t, text, res.Clauses)
}

func TestSegmentEmpty(t *testing.T) {
	for _, text := range []string{"", "   \n\t  "} {
		_, err := New(2).Segment(text)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrEmptyDocument))

		var docErr *model.DocumentError
		require.True(t, errors.As(err, &docErr))
		assert.Equal(t, "segment", docErr.Stage)
	}
}

func TestSegmentHindiMarkers(t *testing.T) {
	text := "धारा 1. यह अनुबंध है।\nधारा 2. The fee is payable monthly.\n"

	res, err := New(2).Segment(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyStructural, res.Strategy)
	require.Len(t, res.Clauses, 2)
	assert.Equal(t, "धारा 1.", res.Clauses[0].Marker)
	assertOffsets(t, text, res.Clauses)
}

func TestSegmentDeterministic(t *testing.T) {
	text := "1. First clause.\n2. Second clause.\n3. Third clause."
	a, err := New(0).Segment(text)
	require.NoError(t, err)
	b, err := New(0).Segment(text)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
