package models

import "time"

// SignalLabel categorizes the strength of a single signal score.
type SignalLabel string

const (
	LabelStrong   SignalLabel = "STRONG"
	LabelModerate SignalLabel = "MODERATE"
	LabelWeak     SignalLabel = "WEAK"
	LabelNoData   SignalLabel = "NO_DATA"
	LabelError    SignalLabel = "ERROR"
)

// LabelForScore maps a 0-10 score to its strength label.
// STRONG >= 7, MODERATE >= 4, WEAK otherwise.
func LabelForScore(score float64) SignalLabel {
	switch {
	case score >= 7:
		return LabelStrong
	case score >= 4:
		return LabelModerate
	default:
		return LabelWeak
	}
}

// AlertLevel is the categorical severity of a composite result.
type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertHigh     AlertLevel = "HIGH"
	AlertMedium   AlertLevel = "MEDIUM"
	AlertLow      AlertLevel = "LOW"
)

// SignalResult is the outcome of one signal fetch for one ticker.
// Score is 0-10. Metrics keeps the raw per-signal numbers for display.
type SignalResult struct {
	Score   float64            `json:"score"`
	Label   SignalLabel        `json:"signal"`
	Unusual bool               `json:"unusual"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Err     string             `json:"error,omitempty"`
}

// NoDataSignal returns a zero-score result labeled NO_DATA.
func NoDataSignal() SignalResult {
	return SignalResult{Score: 0, Label: LabelNoData}
}

// ErrorSignal returns a zero-score result labeled ERROR carrying the cause.
func ErrorSignal(err error) SignalResult {
	res := SignalResult{Score: 0, Label: LabelError}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

// CompositeResult is the weighted early-warning assessment for one ticker.
type CompositeResult struct {
	Ticker            string       `json:"ticker"`
	EarlyWarningScore float64      `json:"early_warning_score"`
	AlertLevel        AlertLevel   `json:"alert_level"`
	SignalsTriggered  int          `json:"signals_triggered"`
	Options           SignalResult `json:"options_signal"`
	Volume            SignalResult `json:"volume_signal"`
	Social            SignalResult `json:"social_signal"`
	Timestamp         time.Time    `json:"timestamp"`
}
