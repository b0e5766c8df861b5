package sentiment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roofsite-cli/internal/model"
)

func analyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := New()
	require.NoError(t, err)
	return a
}

func TestPolarityLabels(t *testing.T) {
	a := analyzer(t)
	tests := []struct {
		text string
		want model.SentimentLabel
	}{
		{"Great work, very professional crew!", model.SentimentPositive},
		{"Terrible experience, the roof still leaks.", model.SentimentNegative},
		{"The crew arrived on Tuesday.", model.SentimentNeutral},
		{"", model.SentimentNeutral},
		{"The price was good but the crew was rude", model.SentimentNegative},
		{"They weren't bad at all", model.SentimentPositive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(a.Polarity(tt.text)), tt.text)
	}
}

func TestNegationFlipsSign(t *testing.T) {
	a := analyzer(t)
	assert.Greater(t, a.Polarity("good"), 0.0)
	assert.Less(t, a.Polarity("not good"), 0.0)
	assert.Less(t, a.Polarity("they never were helpful"), 0.0)
}

func TestBoostersAndExclamation(t *testing.T) {
	a := analyzer(t)
	assert.Greater(t, a.Polarity("very good"), a.Polarity("good"))
	assert.Less(t, a.Polarity("somewhat good"), a.Polarity("good"))
	assert.Greater(t, a.Polarity("good!!"), a.Polarity("good"))
	assert.Less(t, a.Polarity("very bad"), a.Polarity("bad"))
}

func TestPolarityBounded(t *testing.T) {
	a := analyzer(t)
	p := a.Polarity(strings.Repeat("excellent amazing best! ", 50))
	assert.LessOrEqual(t, p, 1.0)
	assert.Greater(t, p, 0.9)

	n := a.Polarity(strings.Repeat("worst scam nightmare! ", 50))
	assert.GreaterOrEqual(t, n, -1.0)
	assert.Less(t, n, -0.9)
}

func TestLabelThresholds(t *testing.T) {
	assert.Equal(t, model.SentimentPositive, Label(0.1))
	assert.Equal(t, model.SentimentNeutral, Label(0.0999))
	assert.Equal(t, model.SentimentNeutral, Label(-0.0999))
	assert.Equal(t, model.SentimentNegative, Label(-0.1))
}

func TestScorePreservesOrder(t *testing.T) {
	a := analyzer(t)
	reviews := []model.Review{
		{Name: "A", Rating: 5, Text: "Excellent job"},
		{Name: "B", Rating: 1, Text: "Awful"},
		{Name: "C", Rating: 3, Text: ""},
	}
	scored := a.Score(reviews)
	require.Len(t, scored, 3)
	assert.Equal(t, "A", scored[0].Name)
	assert.Equal(t, model.SentimentPositive, scored[0].Sentiment)
	assert.Equal(t, model.SentimentNegative, scored[1].Sentiment)
	assert.Equal(t, model.SentimentNeutral, scored[2].Sentiment)
	assert.Zero(t, scored[2].Polarity)
	assert.Equal(t, 5, scored[0].Rating)
}

func TestNewWithLexiconErrors(t *testing.T) {
	_, err := NewWithLexicon([]byte("words: {}"))
	assert.Error(t, err)
	_, err = NewWithLexicon([]byte("words: ["))
	assert.Error(t, err)
}
