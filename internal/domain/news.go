package domain

import "time"

// NewsItem is an already scored news article. Scoring itself happens upstream.
type NewsItem struct {
	Timestamp      time.Time `json:"timestamp"`
	SentimentScore float64   `json:"sentiment_score"` // [-1, 1]
	SourceWeight   float64   `json:"source_weight"`   // >= 0
}
