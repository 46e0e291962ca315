// internal/upstream/endpoints.go
package upstream

import (
	"context"
	"net/url"

	"junketops-service/internal/normalize"
)

// Bulk listing endpoints. Each method matches source.Strategy's Fetch
// signature so a client method can be wired into a fallback chain
// directly.

func (c *Client) ListCustomers(ctx context.Context) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/customers")
}

func (c *Client) ListAgents(ctx context.Context) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/agents")
}

func (c *Client) ListTrips(ctx context.Context) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/trips")
}

func (c *Client) ListRollingRecords(ctx context.Context) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/rolling-records")
}

func (c *Client) ListCashRecords(ctx context.Context) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/cash-records")
}

// Trip-scoped variants. The stats endpoint is the richest source and is
// tried first by the resolver; the plain customers endpoint is the
// fallback on older deployments that never got stats.

func (c *Client) GetTrip(ctx context.Context, tripID string) (normalize.Raw, error) {
	return c.getObject(ctx, "/api/v1/trips/"+url.PathEscape(tripID))
}

func (c *Client) TripCustomerStats(ctx context.Context, tripID string) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/trips/"+url.PathEscape(tripID)+"/stats")
}

func (c *Client) TripCustomers(ctx context.Context, tripID string) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/trips/"+url.PathEscape(tripID)+"/customers")
}

func (c *Client) TripRollingRecords(ctx context.Context, tripID string) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/trips/"+url.PathEscape(tripID)+"/rolling-records")
}

func (c *Client) TripCashRecords(ctx context.Context, tripID string) ([]normalize.Raw, error) {
	return c.getList(ctx, "/api/v1/trips/"+url.PathEscape(tripID)+"/cash-records")
}
