// internal/service/report/report.go
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"junketops-service/internal/cache"
	"junketops-service/internal/domain/agent"
	"junketops-service/internal/domain/customer"
	"junketops-service/internal/domain/event"
	"junketops-service/internal/domain/record"
	"junketops-service/internal/domain/report"
	"junketops-service/internal/domain/trip"
	"junketops-service/internal/metrics"
	"junketops-service/internal/normalize"
	xerrors "junketops-service/internal/pkg/errors"
	"junketops-service/internal/source"
	"junketops-service/internal/upstream"
)

const (
	entityCustomers = "customers"
	entityAgents    = "agents"
	entityTrips     = "trips"
	entityRollings  = "rolling records"
	entityCash      = "cash records"

	ckSnapshot   = "report:snapshot"
	ckTripPrefix = "report:trip:"
)

// snapshotOrder fixes the warning order; concurrent resolution settles
// in map order otherwise.
var snapshotOrder = []string{entityCustomers, entityAgents, entityTrips, entityRollings, entityCash}

// Broadcaster pushes report lifecycle events to connected viewers.
type Broadcaster interface {
	BroadcastReportRefreshed(event.RefreshedData)
	BroadcastTripUpdated(tripID string)
	BroadcastSourceDegraded(warnings []string)
}

type listFn func(*upstream.Client, context.Context) ([]normalize.Raw, error)

// ReportService resolves upstream collections into snapshots and turns
// them into dashboards, rankings and trip summaries. Snapshots are
// cached between refreshes; concurrent cache misses collapse into one
// upstream resolution.
type ReportService struct {
	clients  []*upstream.Client
	resolver *source.Resolver
	calc     *metrics.Calculator
	cache    cache.Store
	cacheTTL time.Duration
	hub      Broadcaster
	logger   *zap.Logger
	group    singleflight.Group
}

// NewReportService wires the pipeline. clients are tried in order, the
// primary upstream first. hub may be nil when no live push is wanted.
func NewReportService(clients []*upstream.Client, resolver *source.Resolver, calc *metrics.Calculator, store cache.Store, cacheTTL time.Duration, hub Broadcaster, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.Noop{}
	}
	return &ReportService{
		clients:  clients,
		resolver: resolver,
		calc:     calc,
		cache:    store,
		cacheTTL: cacheTTL,
		hub:      hub,
		logger:   logger,
	}
}

// Dashboard computes the full reporting view for one scope from the
// current snapshot.
func (s *ReportService) Dashboard(ctx context.Context, scope metrics.Scope, q report.RankQuery) (report.Dashboard, error) {
	in, err := s.Snapshot(ctx)
	if err != nil {
		return report.Dashboard{}, err
	}
	return s.calc.Dashboard(in, scope, q, time.Now()), nil
}

// RankedCustomers re-ranks the scoped customer rows with the requested
// sort parameters. Ranking always restarts from collection order so
// ties come out the same regardless of any previously served order.
func (s *ReportService) RankedCustomers(ctx context.Context, scope metrics.Scope, q report.RankQuery) (report.RankedCustomers, error) {
	in, err := s.Snapshot(ctx)
	if err != nil {
		return report.RankedCustomers{}, err
	}

	q = q.WithDefaults()
	return report.RankedCustomers{
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Currency:  s.calc.Currency(),
		Customers: metrics.Rank(s.calc.Rows(in, scope), q),
	}, nil
}

// Snapshot returns the cached upstream snapshot, rebuilding it on a
// miss. Only one rebuild runs at a time; concurrent callers share its
// result.
func (s *ReportService) Snapshot(ctx context.Context) (metrics.Input, error) {
	if in, ok := s.cachedSnapshot(ctx); ok {
		return in, nil
	}

	v, err, _ := s.group.Do(ckSnapshot, func() (interface{}, error) {
		// A racing caller may have just filled the cache.
		if in, ok := s.cachedSnapshot(ctx); ok {
			return in, nil
		}
		return s.rebuild(ctx)
	})
	if err != nil {
		return metrics.Input{}, err
	}
	return v.(metrics.Input), nil
}

// Refresh rebuilds the snapshot unconditionally and announces it to
// connected viewers. Used by the admin refresh endpoint and the
// background refresher.
func (s *ReportService) Refresh(ctx context.Context) (metrics.Input, error) {
	in, err := s.rebuild(ctx)
	if err != nil {
		return metrics.Input{}, err
	}

	if s.hub != nil {
		s.hub.BroadcastReportRefreshed(event.RefreshedData{
			GeneratedAt: time.Now(),
			Warnings:    len(in.Warnings),
		})
		s.hub.BroadcastSourceDegraded(in.Warnings)
	}
	return in, nil
}

// Run refreshes the snapshot on a fixed interval until the context is
// cancelled. A zero or negative interval disables the refresher.
func (s *ReportService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Warn("scheduled report refresh failed", zap.Error(err))
			}
		}
	}
}

// TripSummary loads one trip and its scoped collections and derives
// the per-trip financial view. The result is cached per trip.
func (s *ReportService) TripSummary(ctx context.Context, tripID string) (report.TripSummary, error) {
	key := ckTripPrefix + tripID
	if summary, ok := s.cachedTrip(ctx, key); ok {
		return summary, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if summary, ok := s.cachedTrip(ctx, key); ok {
			return summary, nil
		}
		return s.buildTripSummary(ctx, tripID)
	})
	if err != nil {
		return report.TripSummary{}, err
	}
	return v.(report.TripSummary), nil
}

// RefreshTrip rebuilds one trip summary, bypassing the cache, and
// announces the change to trip subscribers.
func (s *ReportService) RefreshTrip(ctx context.Context, tripID string) (report.TripSummary, error) {
	summary, err := s.buildTripSummary(ctx, tripID)
	if err != nil {
		return report.TripSummary{}, err
	}

	if s.hub != nil {
		s.hub.BroadcastTripUpdated(tripID)
	}
	return summary, nil
}

// rebuild resolves all five entity sets concurrently through their
// fallback chains, assembles the snapshot and caches it. Chain
// failures degrade to empty collections with aggregate warnings; only
// context cancellation is an error.
func (s *ReportService) rebuild(ctx context.Context) (metrics.Input, error) {
	started := time.Now()

	results := s.resolver.ResolveConcurrent(ctx, map[string][]source.Strategy{
		entityCustomers: s.chain((*upstream.Client).ListCustomers),
		entityAgents:    s.chain((*upstream.Client).ListAgents),
		entityTrips:     s.chain((*upstream.Client).ListTrips),
		entityRollings:  s.chain((*upstream.Client).ListRollingRecords),
		entityCash:      s.chain((*upstream.Client).ListCashRecords),
	})

	if err := ctx.Err(); err != nil {
		return metrics.Input{}, fmt.Errorf("snapshot rebuild aborted: %w", err)
	}

	var warnings []string
	for _, entity := range snapshotOrder {
		if res := results[entity]; res.Failed() {
			warnings = append(warnings, res.Warning())
		}
	}

	in := metrics.Input{
		Customers: customer.FromRawList(results[entityCustomers].Records),
		Agents:    agent.FromRawList(results[entityAgents].Records),
		Trips:     trip.FromRawList(results[entityTrips].Records),
		Rollings:  record.RollingFromRawList(results[entityRollings].Records),
		Cash:      record.BuyInOutFromRawList(results[entityCash].Records),
		Warnings:  warnings,
	}

	s.logger.Info("snapshot rebuilt",
		zap.Int("customers", len(in.Customers)),
		zap.Int("agents", len(in.Agents)),
		zap.Int("trips", len(in.Trips)),
		zap.Int("rolling_records", len(in.Rollings)),
		zap.Int("cash_records", len(in.Cash)),
		zap.Int("warnings", len(in.Warnings)),
		zap.Duration("took", time.Since(started)))

	s.store(ctx, ckSnapshot, in)
	return in, nil
}

// buildTripSummary resolves the trip itself through the fallback chain
// and its four scoped collections in parallel, each degrading to empty
// independently.
func (s *ReportService) buildTripSummary(ctx context.Context, tripID string) (report.TripSummary, error) {
	res := s.resolver.Resolve(ctx, "trip "+tripID, s.tripChain(tripID)...)
	if res.Failed() {
		// A 404 from the source that owns the trip is a caller error,
		// not an upstream outage.
		if errors.Is(res.Err, xerrors.ErrNotFound) {
			return report.TripSummary{}, fmt.Errorf("trip %s: %w", tripID, xerrors.ErrNotFound)
		}
		return report.TripSummary{}, fmt.Errorf("failed to load trip %s: %w", tripID, res.Err)
	}
	if len(res.Records) == 0 {
		return report.TripSummary{}, fmt.Errorf("trip %s: %w", tripID, xerrors.ErrNotFound)
	}
	t := trip.FromRaw(res.Records[0])

	c := s.clientFor(res.Source)

	var (
		wg                          sync.WaitGroup
		stats, roster, rolls, moves []normalize.Raw
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		stats = s.resolver.Dependent(ctx, "trip customer stats", func(ctx context.Context) ([]normalize.Raw, error) {
			return c.TripCustomerStats(ctx, tripID)
		})
	}()
	go func() {
		defer wg.Done()
		roster = s.resolver.Dependent(ctx, "trip customers", func(ctx context.Context) ([]normalize.Raw, error) {
			return c.TripCustomers(ctx, tripID)
		})
	}()
	go func() {
		defer wg.Done()
		rolls = s.resolver.Dependent(ctx, "trip rolling records", func(ctx context.Context) ([]normalize.Raw, error) {
			return c.TripRollingRecords(ctx, tripID)
		})
	}()
	go func() {
		defer wg.Done()
		moves = s.resolver.Dependent(ctx, "trip cash records", func(ctx context.Context) ([]normalize.Raw, error) {
			return c.TripCashRecords(ctx, tripID)
		})
	}()
	wg.Wait()

	// Roster tiers below the two scoped endpoints: the generic customer
	// list filtered by trip membership, then the ids embedded in the
	// trip record itself. Both need membership info to be usable.
	if len(stats) == 0 && len(roster) == 0 && len(t.CustomerIDs) > 0 {
		roster = s.resolver.Dependent(ctx, "trip roster from customer list", func(ctx context.Context) ([]normalize.Raw, error) {
			all, err := c.ListCustomers(ctx)
			if err != nil {
				return nil, err
			}
			return rosterFromList(all, t.CustomerIDs), nil
		})
		if len(roster) == 0 {
			roster = embeddedRoster(t.CustomerIDs)
		}
	}

	tripCustomers := mergeRoster(customer.FromRawList(stats), customer.FromRawList(roster))

	summary := s.calc.TripSummary(t, tripCustomers,
		record.RollingFromRawList(rolls),
		record.BuyInOutFromRawList(moves),
		time.Now())

	s.storeTrip(ctx, ckTripPrefix+tripID, summary)
	return summary, nil
}

// mergeRoster joins the stats rows, which carry per-trip totals, with
// the roster rows, which carry the profile fields the stats endpoint
// omits. Roster-only customers are kept too.
func mergeRoster(stats, roster []customer.Customer) []customer.Customer {
	if len(stats) == 0 {
		return roster
	}

	byID := make(map[string]customer.Customer, len(roster))
	for _, cust := range roster {
		byID[cust.ID] = cust
	}

	seen := make(map[string]bool, len(stats))
	out := make([]customer.Customer, 0, len(stats))
	for _, cust := range stats {
		seen[cust.ID] = true
		if profile, ok := byID[cust.ID]; ok {
			if cust.Name == "" || cust.Name == "Customer "+cust.ID {
				cust.Name = profile.Name
			}
			if cust.AgentID == "" {
				cust.AgentID = profile.AgentID
			}
		}
		out = append(out, cust)
	}
	for _, cust := range roster {
		if !seen[cust.ID] {
			out = append(out, cust)
		}
	}
	return out
}

// rosterFromList narrows the full customer collection to the trip's
// membership, matching on canonical ids.
func rosterFromList(all []normalize.Raw, memberIDs []string) []normalize.Raw {
	members := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}
	var out []normalize.Raw
	for _, r := range all {
		if members[normalize.ID(r)] {
			out = append(out, r)
		}
	}
	return out
}

// embeddedRoster synthesizes minimal records from the ids the trip
// itself carries. Normalization gives the rows placeholder names, so
// the data gap stays visible in the summary.
func embeddedRoster(memberIDs []string) []normalize.Raw {
	out := make([]normalize.Raw, 0, len(memberIDs))
	for _, id := range memberIDs {
		out = append(out, normalize.Raw{"id": id})
	}
	return out
}

// chain builds one strategy per configured upstream for a collection
// endpoint, in client priority order.
func (s *ReportService) chain(fetch listFn) []source.Strategy {
	strategies := make([]source.Strategy, 0, len(s.clients))
	for _, c := range s.clients {
		c := c
		strategies = append(strategies, source.Strategy{
			Name: c.BaseURL(),
			Fetch: func(ctx context.Context) ([]normalize.Raw, error) {
				return fetch(c, ctx)
			},
		})
	}
	return strategies
}

func (s *ReportService) tripChain(tripID string) []source.Strategy {
	strategies := make([]source.Strategy, 0, len(s.clients))
	for _, c := range s.clients {
		c := c
		strategies = append(strategies, source.Strategy{
			Name: c.BaseURL(),
			Fetch: func(ctx context.Context) ([]normalize.Raw, error) {
				r, err := c.GetTrip(ctx, tripID)
				if err != nil {
					return nil, err
				}
				return []normalize.Raw{r}, nil
			},
		})
	}
	return strategies
}

// clientFor maps a winning strategy name back to its client so
// dependent fetches hit the upstream that actually has the trip.
func (s *ReportService) clientFor(sourceName string) *upstream.Client {
	for _, c := range s.clients {
		if c.BaseURL() == sourceName {
			return c
		}
	}
	return s.clients[0]
}

func (s *ReportService) cachedSnapshot(ctx context.Context) (metrics.Input, bool) {
	data, ok, err := s.cache.Get(ctx, ckSnapshot)
	if err != nil {
		s.logger.Warn("snapshot cache read failed", zap.Error(err))
		return metrics.Input{}, false
	}
	if !ok {
		return metrics.Input{}, false
	}

	var in metrics.Input
	if err := json.Unmarshal(data, &in); err != nil {
		s.logger.Warn("discarding corrupt snapshot cache entry", zap.Error(err))
		_ = s.cache.Delete(ctx, ckSnapshot)
		return metrics.Input{}, false
	}
	return in, true
}

func (s *ReportService) cachedTrip(ctx context.Context, key string) (report.TripSummary, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("trip cache read failed", zap.String("key", key), zap.Error(err))
		return report.TripSummary{}, false
	}
	if !ok {
		return report.TripSummary{}, false
	}

	var summary report.TripSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		s.logger.Warn("discarding corrupt trip cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return report.TripSummary{}, false
	}
	return summary, true
}

func (s *ReportService) store(ctx context.Context, key string, in metrics.Input) {
	data, err := json.Marshal(in)
	if err != nil {
		s.logger.Warn("failed to marshal snapshot for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("snapshot cache write failed", zap.Error(err))
	}
}

func (s *ReportService) storeTrip(ctx context.Context, key string, summary report.TripSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("failed to marshal trip summary for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("trip cache write failed", zap.String("key", key), zap.Error(err))
	}
}
