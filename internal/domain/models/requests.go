package models

// TickerRequest binds the :ticker path parameter for single-ticker endpoints.
type TickerRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,alphanum,min=1,max=10"`
}

// CachedAlertsRequest binds query parameters for the cached alerts endpoint.
type CachedAlertsRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
