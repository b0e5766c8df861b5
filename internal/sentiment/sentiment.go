// Package sentiment scores review text on a [-1, 1] polarity scale.
package sentiment

import (
	_ "embed"
	"math"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roofsite-cli/internal/model"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

const (
	// LabelThreshold separates positive and negative labels from neutral.
	LabelThreshold = 0.1

	negationScalar = -0.74
	butBefore      = 0.5
	butAfter       = 1.5
	exclaimBoost   = 0.292
	normAlpha      = 15.0
)

// Lexicon holds word valences and modifier words.
type Lexicon struct {
	Words     map[string]float64 `yaml:"words"`
	Negators  []string           `yaml:"negators"`
	Boosters  map[string]float64 `yaml:"boosters"`
	negations map[string]bool
}

// Analyzer computes polarity from a lexicon with negation, booster words,
// contrastive "but", and exclamation emphasis.
type Analyzer struct {
	lex *Lexicon
}

// New creates an analyzer over the embedded lexicon.
func New() (*Analyzer, error) {
	return NewWithLexicon(lexiconYAML)
}

// NewWithLexicon creates an analyzer from a YAML lexicon.
func NewWithLexicon(data []byte) (*Analyzer, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, eris.Wrap(err, "sentiment: parse lexicon")
	}
	if len(lex.Words) == 0 {
		return nil, eris.New("sentiment: empty lexicon")
	}
	lex.negations = make(map[string]bool, len(lex.Negators))
	for _, n := range lex.Negators {
		lex.negations[n] = true
	}
	return &Analyzer{lex: &lex}, nil
}

// Polarity returns the text's polarity in [-1, 1]. Text with no lexicon
// words scores 0.
func (a *Analyzer) Polarity(text string) float64 {
	tokens := tokenize(text)

	butAt := -1
	for i, t := range tokens {
		if t == "but" {
			butAt = i
		}
	}

	sum := 0.0
	for i, tok := range tokens {
		v, ok := a.lex.Words[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if b, ok := a.lex.Boosters[tokens[i-1]]; ok {
				if v < 0 {
					b = -b
				}
				v += b
			}
		}
		for j := max(0, i-3); j < i; j++ {
			if a.isNegator(tokens[j]) {
				v *= negationScalar
				break
			}
		}
		if butAt >= 0 {
			if i < butAt {
				v *= butBefore
			} else {
				v *= butAfter
			}
		}
		sum += v
	}
	if sum == 0 {
		return 0
	}

	if n := min(strings.Count(text, "!"), 4); n > 0 {
		boost := float64(n) * exclaimBoost
		if sum < 0 {
			boost = -boost
		}
		sum += boost
	}

	p := sum / math.Sqrt(sum*sum+normAlpha)
	return math.Max(-1, math.Min(1, p))
}

func (a *Analyzer) isNegator(tok string) bool {
	return a.lex.negations[tok]
}

// Label maps a polarity onto a sentiment label.
func Label(p float64) model.SentimentLabel {
	switch {
	case p >= LabelThreshold:
		return model.SentimentPositive
	case p <= -LabelThreshold:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// Score scores every review, preserving order.
func (a *Analyzer) Score(reviews []model.Review) []model.ScoredReview {
	out := make([]model.ScoredReview, len(reviews))
	for i, r := range reviews {
		p := round4(a.Polarity(r.Text))
		out[i] = model.ScoredReview{Review: r, Sentiment: Label(p), Polarity: p}
	}
	return out
}

// tokenize lowercases text, drops apostrophes so "didn't" becomes
// "didnt", and splits on anything that is not a letter.
func tokenize(text string) []string {
	text = strings.NewReplacer("'", "", "’", "").Replace(strings.ToLower(text))
	return strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
