package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
)

// Messages surfaced through FilterState.LocationError.
const (
	LocationNotFoundMessage     = "Could not find that location"
	LocationLookupFailedMessage = "Location lookup failed, please try again"
	CurrentLocationLabel        = "Current location"

	// DefaultLocationDebounce delays geocoding while location text changes.
	DefaultLocationDebounce = 500 * time.Millisecond
)

// EntityLister loads the persisted listings.
type EntityLister interface {
	ListApproved(ctx context.Context) []*entities.Entity
}

// LocationResolver turns location input into a reference point.
type LocationResolver interface {
	ForwardGeocode(ctx context.Context, text string) entities.Lookup[entities.Location]
	ReverseGeocode(ctx context.Context, lat, lng float64) entities.Lookup[string]
	CurrentPosition(ctx context.Context) (entities.Location, error)
}

// NearbyDiscoverer finds listings near a reference point.
type NearbyDiscoverer interface {
	Configured() bool
	Discover(ctx context.Context, lat, lng float64, radiusMeters int) entities.Lookup[[]*entities.Entity]
}

// FilterState is a consistent view of the controller. Result is shared
// between snapshots and must be treated as read-only.
type FilterState struct {
	Version         uint64
	Filters         entities.SearchFilters
	LocationText    string
	LocationError   string
	Discovering     bool
	PersistedCount  int
	DiscoveredCount int
	Result          *entities.SearchResult
}

// FilterController owns the filter state of one search session and
// re-runs the pipeline whenever an input changes. Location text is
// geocoded after a debounce and discovery follows every new reference
// point. Responses to superseded requests are dropped.
type FilterController struct {
	lister    EntityLister
	locations LocationResolver
	discovery NearbyDiscoverer
	identity  *IdentityResolver

	debounce     time.Duration
	radiusMeters int

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	filters       entities.SearchFilters
	locationText  string
	locationError string
	discovering   bool
	persisted     []*entities.Entity
	discovered    []*entities.Entity
	result        *entities.SearchResult
	version       uint64

	locationGen  uint64
	discoveryGen uint64
	timer        *time.Timer

	pending int
	idle    chan struct{}
	closed  bool

	nextListener int
	listeners    map[int]func(FilterState)
}

// ControllerOption configures a FilterController.
type ControllerOption func(*FilterController)

// WithDebounce sets the location text debounce.
func WithDebounce(d time.Duration) ControllerOption {
	return func(c *FilterController) { c.debounce = d }
}

// WithRadiusMeters sets the discovery radius; zero uses the discovery
// default.
func WithRadiusMeters(meters int) ControllerOption {
	return func(c *FilterController) { c.radiusMeters = meters }
}

// WithInitialFilters replaces DefaultFilters.
func WithInitialFilters(f entities.SearchFilters) ControllerOption {
	return func(c *FilterController) { c.filters = f }
}

// WithIdentityResolver replaces the default resolver.
func WithIdentityResolver(r *IdentityResolver) ControllerOption {
	return func(c *FilterController) { c.identity = r }
}

// NewFilterController creates a controller. discovery may be nil.
func NewFilterController(lister EntityLister, locations LocationResolver, discovery NearbyDiscoverer, opts ...ControllerOption) *FilterController {
	ctx, cancel := context.WithCancel(context.Background())
	c := &FilterController{
		lister:    lister,
		locations: locations,
		discovery: discovery,
		debounce:  DefaultLocationDebounce,
		filters:   entities.DefaultFilters(),
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[int]func(FilterState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.identity == nil {
		c.identity = NewIdentityResolver(0)
	}
	c.recomputeLocked()
	return c
}

// Load fetches the persisted listings and recomputes.
func (c *FilterController) Load(ctx context.Context) {
	list := c.lister.ListApproved(ctx)

	c.mu.Lock()
	c.persisted = list
	if len(c.discovered) > 0 {
		c.discovered = c.identity.ExcludeKnown(c.persisted, c.discovered)
	}
	c.commitLocked()
}

// SetQuery updates the free text filter.
func (c *FilterController) SetQuery(q string) {
	c.update(func() { c.filters.Query = q })
}

// SetCategory updates the category filter.
func (c *FilterController) SetCategory(cat entities.Category) {
	c.update(func() { c.filters.Category = cat })
}

// SetRadius updates the radius filter in miles.
func (c *FilterController) SetRadius(miles float64) {
	c.update(func() { c.filters.RadiusMiles = miles })
}

// SetSortBy updates the sort order.
func (c *FilterController) SetSortBy(key entities.SortKey) {
	c.update(func() { c.filters.SortBy = key })
}

// SetLocationText records new location input. Empty input clears the
// reference point at once; anything else is geocoded after the debounce.
func (c *FilterController) SetLocationText(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.locationText = text
	c.locationGen++
	gen := c.locationGen
	c.stopTimerLocked()

	if strings.TrimSpace(text) == "" {
		c.clearReferenceLocked("")
		c.commitLocked()
		return
	}

	c.addPendingLocked()
	c.timer = time.AfterFunc(c.debounce, func() { c.geocode(gen, text) })
	c.mu.Unlock()
}

// UseCurrentLocation sets the reference point from the device position.
// A *PositionError is returned and surfaced as the location error.
func (c *FilterController) UseCurrentLocation(ctx context.Context) error {
	loc, err := c.locations.CurrentPosition(ctx)
	if err != nil {
		msg := "Unable to get your location."
		var posErr *PositionError
		if errors.As(err, &posErr) {
			msg = posErr.Message()
		}
		c.update(func() { c.locationError = msg })
		return err
	}

	c.mu.Lock()
	c.locationGen++
	gen := c.locationGen
	c.stopTimerLocked()
	c.mu.Unlock()

	label := CurrentLocationLabel
	if name, ok := c.locations.ReverseGeocode(ctx, loc.Lat, loc.Lng).Get(); ok {
		label = name
	}
	loc.Label = label

	c.mu.Lock()
	if gen != c.locationGen || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.locationText = label
	c.setReferenceLocked(loc)
	c.commitLocked()
	return nil
}

// Snapshot returns the current state.
func (c *FilterController) Snapshot() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive the state after every change. The
// returned func unregisters it. Listeners may be called concurrently; use
// FilterState.Version to discard stale deliveries.
func (c *FilterController) Subscribe(fn func(FilterState)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Settle blocks until no debounce, geocode or discovery is outstanding.
func (c *FilterController) Settle(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == 0 {
		c.mu.Unlock()
		return nil
	}
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops timers and abandons in-flight lookups.
func (c *FilterController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()
	c.cancel()
}

func (c *FilterController) geocode(gen uint64, text string) {
	res := c.locations.ForwardGeocode(c.ctx, text)

	c.mu.Lock()
	defer c.donePending()
	if gen != c.locationGen || c.closed {
		c.mu.Unlock()
		return
	}

	switch {
	case res.IsFound():
		loc := res.Value
		if loc.Label == "" {
			loc.Label = strings.TrimSpace(text)
		}
		c.setReferenceLocked(loc)
	case res.IsFailed():
		c.clearReferenceLocked(LocationLookupFailedMessage)
	default:
		c.clearReferenceLocked(LocationNotFoundMessage)
	}
	c.commitLocked()
}

func (c *FilterController) setReferenceLocked(loc entities.Location) {
	c.filters.Reference = &loc
	c.filters.SortBy = entities.SortByDistance
	c.locationError = ""
	c.discovered = nil
	c.startDiscoveryLocked(loc)
}

func (c *FilterController) clearReferenceLocked(msg string) {
	c.filters.Reference = nil
	c.locationError = msg
	c.discovered = nil
	c.discoveryGen++
	c.discovering = false
}

func (c *FilterController) startDiscoveryLocked(loc entities.Location) {
	c.discoveryGen++
	if c.discovery == nil || !c.discovery.Configured() {
		c.discovering = false
		return
	}
	gen := c.discoveryGen
	c.discovering = true
	c.addPendingLocked()

	go func() {
		defer c.donePending()
		res := c.discovery.Discover(c.ctx, loc.Lat, loc.Lng, c.radiusMeters)

		c.mu.Lock()
		if gen != c.discoveryGen || c.closed {
			c.mu.Unlock()
			return
		}
		c.discovering = false
		if found, ok := res.Get(); ok {
			c.discovered = c.identity.ExcludeKnown(c.persisted, found)
		} else if res.IsFailed() {
			observability.ComponentLogger(c.ctx, "filter_controller").Debug().Err(res.Err).Msg("discovery unavailable, showing persisted results only")
		}
		c.commitLocked()
	}()
}

func (c *FilterController) update(mut func()) {
	c.mu.Lock()
	mut()
	c.commitLocked()
}

// commitLocked recomputes, releases the lock and notifies listeners.
func (c *FilterController) commitLocked() {
	c.recomputeLocked()
	state := c.snapshotLocked()
	listeners := make([]func(FilterState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (c *FilterController) recomputeLocked() {
	c.result = RunPipeline(PipelineInput{
		Persisted:  c.persisted,
		Discovered: c.discovered,
		Filters:    c.filters,
	})
	c.version++
}

func (c *FilterController) snapshotLocked() FilterState {
	f := c.filters
	if f.Reference != nil {
		ref := *f.Reference
		f.Reference = &ref
	}
	return FilterState{
		Version:         c.version,
		Filters:         f,
		LocationText:    c.locationText,
		LocationError:   c.locationError,
		Discovering:     c.discovering,
		PersistedCount:  len(c.persisted),
		DiscoveredCount: len(c.discovered),
		Result:          c.result,
	}
}

func (c *FilterController) stopTimerLocked() {
	if c.timer != nil && c.timer.Stop() {
		c.pending--
		c.signalIdleLocked()
	}
	c.timer = nil
}

func (c *FilterController) addPendingLocked() {
	if c.pending == 0 {
		c.idle = make(chan struct{})
	}
	c.pending++
}

// donePending takes the lock itself; callers must not hold it.
func (c *FilterController) donePending() {
	c.mu.Lock()
	c.pending--
	c.signalIdleLocked()
	c.mu.Unlock()
}

func (c *FilterController) signalIdleLocked() {
	if c.pending == 0 && c.idle != nil {
		close(c.idle)
		c.idle = nil
	}
}
