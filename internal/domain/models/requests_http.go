package models

// Requests for forecast HTTP endpoints.

// ForecastRequest leaves Hours nil when the query omits it; the handler
// then applies the configured default horizon.
type ForecastRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Hours  *int   `query:"hours" json:"hours,omitempty" validate:"omitempty,gte=0"`
}

type ImportanceRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"24" validate:"gte=1,lte=1000"`
}

type CollectRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,alphanum"`
}
