package models

import "time"

// OptionContract is one row of an option chain. Missing volume or open
// interest on the wire is treated as zero.
type OptionContract struct {
	Strike       float64 `json:"strike"`
	Volume       float64 `json:"volume"`
	OpenInterest float64 `json:"openInterest"`
}

// OptionChain holds the calls and puts for a single expiration.
type OptionChain struct {
	Expiration time.Time        `json:"expiration"`
	Calls      []OptionContract `json:"calls"`
	Puts       []OptionContract `json:"puts"`
}

// DailyBar is one day of price history.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TrendingEntry is one ticker row of the shared social trending list.
type TrendingEntry struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name,omitempty"`
	Mentions int    `json:"mentions"`
	Upvotes  int    `json:"upvotes"`
	Rank     int    `json:"rank"`
}
