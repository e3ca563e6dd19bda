package models

// RankRequest is the POST /api/rank body. Zero values fall back to the
// service defaults.
type RankRequest struct {
	Tickers     []string `json:"tickers"`
	PeriodYears int      `json:"periodYears"`
	// pointer so an explicit 0 rate is distinguishable from absent
	RiskFreeRate *float64 `json:"riskFreeRate"`
	Interval     string   `json:"interval"`
	PriceField   string   `json:"priceField"`
	TopN         int      `json:"topN"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// ServiceResponse is the envelope every json endpoint answers with.
type ServiceResponse[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error"`
}

func GetServiceResponseOk[T any](data *T) ServiceResponse[T] {
	return ServiceResponse[T]{
		Data: data,
	}
}

func GetServiceResponseError(errorMessage string) ServiceResponse[any] {
	return ServiceResponse[any]{
		Error: errorMessage,
	}
}
