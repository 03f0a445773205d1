package models

import "time"

// NewsArticle is a headline returned by the company-news provider.
type NewsArticle struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
}

// HypeScore is the blended social/news buzz score for one ticker.
// SocialRaw is the sentiment polarity of recent headlines, NewsRaw the
// article count; the z-scores are computed within the ticker's asset group.
type HypeScore struct {
	Ticker    string    `json:"ticker"`
	Group     string    `json:"group"` // stock or crypto
	SocialRaw float64   `json:"social_raw"`
	NewsRaw   float64   `json:"news_raw"`
	SocialZ   float64   `json:"social_z"`
	NewsZ     float64   `json:"news_z"`
	Score     float64   `json:"hype_score"`
	UpdatedAt time.Time `json:"updated_at"`
}
