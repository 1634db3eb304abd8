package service

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Dependencies are shared by every session. Publisher and Archive are optional.
type Dependencies struct {
	Store      StateStore
	Calculator Calculator
	Processor  PaymentProcessor
	OrderIDs   *OrderIDs
	Publisher  OrderPublisher
	Archive    OrderArchive
	Logger     log.FieldLogger
	Clock      func() time.Time
}

// Session groups the stores and pipeline of one device.
type Session struct {
	Device   string
	Identity *IdentityService
	Cart     *CartStore
	History  *OrderHistory
	Checkout *Pipeline
}

const defaultSessionIdle = 30 * time.Minute

type registryEntry struct {
	session  *Session
	lastSeen time.Time
}

// Registry owns the live sessions. A session is built and its cart loaded on
// first use; Close drops it so the next access reloads from the state store.
// Sessions untouched for IdleTimeout are dropped by Sweep unless a payment is
// still running.
type Registry struct {
	IdleTimeout time.Duration

	mu       sync.Mutex
	deps     Dependencies
	sessions map[string]*registryEntry
}

func NewRegistry(deps Dependencies) *Registry {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.OrderIDs == nil {
		deps.OrderIDs = NewOrderIDs(deps.Clock)
	}
	return &Registry{
		IdleTimeout: defaultSessionIdle,
		deps:        deps,
		sessions:    make(map[string]*registryEntry),
	}
}

// Session returns the device's live session, opening it if needed.
func (r *Registry) Session(ctx context.Context, device string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[device]; ok {
		e.lastSeen = r.deps.Clock()
		return e.session, nil
	}

	s, err := r.open(ctx, device)
	if err != nil {
		return nil, err
	}
	r.sessions[device] = &registryEntry{session: s, lastSeen: r.deps.Clock()}
	r.deps.Logger.WithField("device", device).Debug("Session opened")
	return s, nil
}

// View returns the live session when there is one. Otherwise it loads a
// throwaway session from the state store that is not kept, so reads from
// unknown devices never grow the registry.
func (r *Registry) View(ctx context.Context, device string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[device]; ok {
		e.lastSeen = r.deps.Clock()
		return e.session, nil
	}
	return r.open(ctx, device)
}

func (r *Registry) open(ctx context.Context, device string) (*Session, error) {
	identity := NewIdentityService(device, r.deps.Store, r.deps.Logger)
	cart := NewCartStore(device, r.deps.Store, identity, r.deps.Calculator, r.deps.Logger)
	if err := cart.Load(ctx); err != nil {
		return nil, err
	}
	history := NewOrderHistory(device, r.deps.Store, r.deps.Logger)

	return &Session{
		Device:   device,
		Identity: identity,
		Cart:     cart,
		History:  history,
		Checkout: NewPipeline(device, cart, history, identity, r.deps),
	}, nil
}

// Close forgets the device's session and cancels its in-flight payment, so a
// later session cannot charge twice.
func (r *Registry) Close(device string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[device]
	if !ok {
		return
	}
	if e.session.Checkout.Cancel() {
		r.deps.Logger.WithField("device", device).Info("Payment cancelled on session close")
	}
	delete(r.sessions, device)
}

// Sweep drops idle sessions and returns how many went.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.deps.Clock()
	removed := 0
	for device, e := range r.sessions {
		if now.Sub(e.lastSeen) < r.IdleTimeout || e.session.Checkout.Busy() {
			continue
		}
		delete(r.sessions, device)
		removed++
	}
	if removed > 0 {
		r.deps.Logger.WithField("removed", removed).Debug("Idle sessions swept")
	}
	return removed
}

// Run sweeps every interval until ctx ends.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
