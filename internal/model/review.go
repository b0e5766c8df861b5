package model

// Review is a single Google review of the business.
type Review struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Date   string `json:"date"`
	Text   string `json:"text"`
}

// SentimentLabel is the coarse classification of a review's tone.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// ScoredReview is a Review with its sentiment.
type ScoredReview struct {
	Review
	Sentiment SentimentLabel `json:"sentiment"`
	Polarity  float64        `json:"polarity"`
}
