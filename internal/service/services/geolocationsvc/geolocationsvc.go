// Package geolocationsvc acquires the delivery location from the device with a tiered
// strategy: a quick cached fix refined in the background, then high accuracy, then a
// standard fallback. An optional watch keeps improving the held fix.
package geolocationsvc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/geo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ErrClosed = errors.New("geolocation acquirer is closed")

// Locator is the device location capability.
type Locator interface {
	CurrentPosition(ctx context.Context, opts geo.PositionOptions) (geo.Position, error)
	// WatchPosition streams updates until ctx is done, then closes the channel.
	WatchPosition(ctx context.Context, opts geo.PositionOptions) (<-chan geo.PositionUpdate, error)
}

// AddressResolver turns coordinates into a delivery address. It never fails.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, lat, lng float64) string
}

// NotificationKind tells the customer how much to trust a fix.
type NotificationKind string

const (
	NotifyFast    NotificationKind = "fast"
	NotifyRefined NotificationKind = "refined"
	NotifyFinal   NotificationKind = "final"
)

// Notification is emitted for every accepted automatic fix once its address is resolved.
type Notification struct {
	Kind     NotificationKind
	Location order.Location
}

// Notifier receives notifications. It is called from background goroutines.
type Notifier func(Notification)

// Acquirer holds the current delivery location and the background work improving it.
type Acquirer struct {
	locator         Locator
	resolver        AddressResolver
	notify          Notifier
	minImprovement  float64
	refinementDelay time.Duration

	mu sync.Mutex
	// generation changes on every new acquisition and manual choice; background work
	// started under an older generation cannot replace the held fix. watchID names the
	// active watch so a finished watch goroutine only stops its own subscription.
	generation  uint64
	fixVersion  uint64
	held        *order.Location
	watchCancel context.CancelFunc
	watchID     uint64
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type option func(*Acquirer)

// MustNewAcquirer creates an Acquirer. Locator and resolver are required.
func MustNewAcquirer(opts ...option) *Acquirer {
	a := &Acquirer{
		notify:          func(Notification) {},
		minImprovement:  viper.GetFloat64("geolocation.min_improvement_meters"),
		refinementDelay: time.Duration(viper.GetInt("geolocation.refinement_delay_ms")) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.locator == nil || a.resolver == nil {
		panic("geolocationsvc: locator and address resolver are required")
	}
	if a.minImprovement < 0 {
		a.minImprovement = 0
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	return a
}

// WithLocator sets the device locator.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLocator(l Locator) option {
	return func(a *Acquirer) {
		a.locator = l
	}
}

// WithAddressResolver sets the resolver used for every accepted fix.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithAddressResolver(r AddressResolver) option {
	return func(a *Acquirer) {
		a.resolver = r
	}
}

// WithNotifier sets the notification callback.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotifier(n Notifier) option {
	return func(a *Acquirer) {
		if n != nil {
			a.notify = n
		}
	}
}

// WithMinImprovement sets how many meters a reading must beat the held accuracy by.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMinImprovement(meters float64) option {
	return func(a *Acquirer) {
		a.minImprovement = meters
	}
}

// WithRefinementDelay sets the pause between a quick fix and its background refinement.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRefinementDelay(d time.Duration) option {
	return func(a *Acquirer) {
		a.refinementDelay = d
	}
}

// Acquire runs the tiered strategy and returns the first fix obtained, with its address.
// A quick fix schedules a background refinement and any active watch is stopped.
// The returned error is always a *geo.Error.
func (a *Acquirer) Acquire(ctx context.Context) (order.Location, error) {
	ctx, span := otel.Tracer("storefront").Start(ctx, "geolocationsvc.Acquire")
	defer span.End()

	gen, err := a.startGeneration()
	if err != nil {
		return order.Location{}, geo.NewError(geo.Unknown, err)
	}

	pos, err := a.attempt(ctx, geo.QuickOptions)
	if err == nil {
		span.SetAttributes(attribute.String("geo.tier", "quick"))
		loc := a.acceptInitial(ctx, gen, pos, NotifyFast)
		a.scheduleRefinement(gen)

		return loc, nil
	}
	if stop, geoErr := a.terminal(ctx, err); stop {
		return order.Location{}, geoErr
	}
	slog.Debug("Quick location attempt failed", "error", err)

	pos, err = a.attempt(ctx, geo.HighAccuracyOptions)
	if err == nil {
		span.SetAttributes(attribute.String("geo.tier", "high_accuracy"))
		return a.acceptInitial(ctx, gen, pos, NotifyFinal), nil
	}
	if stop, geoErr := a.terminal(ctx, err); stop {
		return order.Location{}, geoErr
	}
	slog.Debug("High accuracy location attempt failed", "error", err)

	pos, err = a.attempt(ctx, geo.StandardOptions)
	if err == nil {
		span.SetAttributes(attribute.String("geo.tier", "standard"))
		return a.acceptInitial(ctx, gen, pos, NotifyFinal), nil
	}

	geoErr := geo.AsError(err)
	slog.Warn("Location acquisition failed", "code", geoErr.Code.String(), "error", err)

	return order.Location{}, geoErr
}

// acceptInitial holds the fix of an acquisition tier. If a manual choice superseded it
// meanwhile, the manual location is returned instead.
func (a *Acquirer) acceptInitial(ctx context.Context, gen uint64, pos geo.Position, kind NotificationKind) order.Location {
	if loc, ok := a.accept(ctx, gen, pos, false, kind); ok {
		return loc
	}
	loc, _ := a.Current()

	return loc
}

// terminal reports whether the failure stops the strategy: permission denial or caller cancellation.
func (a *Acquirer) terminal(ctx context.Context, err error) (bool, *geo.Error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return true, geo.AsError(ctxErr)
	}
	geoErr := geo.AsError(err)
	if geoErr.Code == geo.PermissionDenied {
		slog.Warn("Location permission denied")

		return true, geoErr
	}

	return false, nil
}

func (a *Acquirer) attempt(ctx context.Context, opts geo.PositionOptions) (geo.Position, error) {
	tierCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	pos, err := a.locator.CurrentPosition(tierCtx, opts)
	if err != nil {
		if tierCtx.Err() != nil && ctx.Err() == nil {
			return geo.Position{}, geo.NewError(geo.Timeout, err)
		}

		return geo.Position{}, err
	}

	return pos, nil
}

func (a *Acquirer) scheduleRefinement(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		timer := time.NewTimer(a.refinementDelay)
		defer timer.Stop()
		select {
		case <-a.ctx.Done():
			return
		case <-timer.C:
		}

		if !a.isGeneration(gen) {
			return
		}

		pos, err := a.attempt(a.ctx, geo.RefinementOptions)
		if err != nil {
			slog.Debug("Background location refinement failed", "error", err)

			return
		}
		a.accept(a.ctx, gen, pos, true, NotifyRefined)
	}()
}

// StartWatch subscribes to continuous updates. Each update replaces the held fix only when
// it is more accurate. Calling it while a watch is active is a no-op.
func (a *Acquirer) StartWatch() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()

		return ErrClosed
	}
	if a.watchCancel != nil {
		a.mu.Unlock()

		return nil
	}
	watchCtx, cancel := context.WithCancel(a.ctx)
	a.watchCancel = cancel
	a.watchID++
	id := a.watchID
	gen := a.generation
	a.mu.Unlock()

	updates, err := a.locator.WatchPosition(watchCtx, geo.WatchOptions)
	if err != nil {
		a.stopWatch(id)

		return geo.AsError(err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-watchCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					a.stopWatch(id)

					return
				}
				if update.Err != nil {
					geoErr := geo.AsError(update.Err)
					slog.Warn("Location watch update failed", "code", geoErr.Code.String(), "error", update.Err)
					if !geoErr.Retryable() {
						a.stopWatch(id)

						return
					}

					continue
				}
				if !a.isGeneration(gen) {
					a.stopWatch(id)

					return
				}
				a.accept(watchCtx, gen, update.Position, true, NotifyRefined)
			}
		}
	}()

	return nil
}

// StopWatch cancels the watch subscription if one is active.
func (a *Acquirer) StopWatch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopWatchLocked()
}

// stopWatch stops the watch with the given id, leaving any newer watch running.
func (a *Acquirer) stopWatch(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watchID == id {
		a.stopWatchLocked()
	}
}

func (a *Acquirer) stopWatchLocked() {
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
}

// Watching reports whether a watch subscription is active.
func (a *Acquirer) Watching() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.watchCancel != nil
}

// SetManual pins the location chosen on the map. It stops the watch and prevents pending
// automatic fixes from replacing the choice.
func (a *Acquirer) SetManual(ctx context.Context, lat, lng float64) (order.Location, error) {
	if !order.ValidCoordinates(lat, lng) {
		return order.Location{}, order.ErrInvalidCoordinates
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()

		return order.Location{}, ErrClosed
	}
	a.stopWatchLocked()
	a.generation++
	a.fixVersion++
	version := a.fixVersion
	a.held = &order.Location{Lat: lat, Lng: lng}
	a.mu.Unlock()

	address := a.resolver.ResolveAddress(ctx, lat, lng)

	return a.attachAddress(version, address), nil
}

// Current returns the held location, if any.
func (a *Acquirer) Current() (order.Location, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == nil {
		return order.Location{}, false
	}

	return copyLocation(*a.held), true
}

// Wait blocks until background refinements finish. An active watch must be stopped first.
func (a *Acquirer) Wait() {
	a.wg.Wait()
}

// Close stops all background work. The held location stays readable.
func (a *Acquirer) Close() {
	a.mu.Lock()
	a.closed = true
	a.stopWatchLocked()
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}

func (a *Acquirer) startGeneration() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrClosed
	}
	a.stopWatchLocked()
	a.generation++

	return a.generation, nil
}

func (a *Acquirer) isGeneration(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.generation == gen
}

// accept holds pos when it belongs to the current generation and, with requireImprovement,
// beats the held accuracy. The address is resolved outside the lock and attached only
// while pos is still the held fix.
func (a *Acquirer) accept(
	ctx context.Context,
	gen uint64,
	pos geo.Position,
	requireImprovement bool,
	kind NotificationKind,
) (order.Location, bool) {
	a.mu.Lock()
	if a.generation != gen {
		a.mu.Unlock()

		return order.Location{}, false
	}
	if requireImprovement && !a.improves(pos) {
		a.mu.Unlock()

		return order.Location{}, false
	}
	a.fixVersion++
	version := a.fixVersion
	loc := order.Location{Lat: pos.Lat, Lng: pos.Lng}
	if pos.Accuracy > 0 {
		accuracy := pos.Accuracy
		loc.Accuracy = &accuracy
	}
	a.held = &loc
	a.mu.Unlock()

	address := a.resolver.ResolveAddress(ctx, pos.Lat, pos.Lng)
	resolved := a.attachAddress(version, address)
	if resolved.Address == "" {
		return resolved, false
	}

	a.notify(Notification{Kind: kind, Location: resolved})

	return resolved, true
}

func (a *Acquirer) improves(pos geo.Position) bool {
	if a.held == nil {
		return true
	}
	if pos.Accuracy <= 0 {
		return false
	}
	if a.held.Accuracy == nil {
		return true
	}

	return *a.held.Accuracy-pos.Accuracy > a.minImprovement
}

// attachAddress sets the address on the held fix when version is still current and returns
// the location the address belongs to.
func (a *Acquirer) attachAddress(version uint64, address string) order.Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fixVersion != version || a.held == nil {
		return order.Location{}
	}
	a.held.Address = address

	return copyLocation(*a.held)
}

func copyLocation(loc order.Location) order.Location {
	if loc.Accuracy != nil {
		accuracy := *loc.Accuracy
		loc.Accuracy = &accuracy
	}

	return loc
}
