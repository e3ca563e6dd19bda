package core

import (
	"context"

	r "sharpe.service/repos"
)

type ServiceContext struct {
	Context            context.Context
	PostgresConnection *r.Postgres
	MarketData         PriceSource
}

// WithContext returns a copy of the service context bound to ctx, so each
// request carries its own cancellation.
func (sc *ServiceContext) WithContext(ctx context.Context) *ServiceContext {
	copied := *sc
	copied.Context = ctx
	return &copied
}
