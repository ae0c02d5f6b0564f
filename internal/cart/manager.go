package cart

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/cartd/internal/events"
	"github.com/noah-isme/cartd/internal/obs"
	"github.com/noah-isme/cartd/internal/store"
)

// Manager owns the in-memory cart stored under a single backend key. It
// applies mutations synchronously, persists the whole cart best-effort
// after every change, and adopts external writes observed on the backend's
// change channel wholesale. In-memory state is authoritative for this
// instance; persistence is a cache, not a contract.
type Manager struct {
	key   string
	store store.Store
	bus   *events.Bus
	log   zerolog.Logger

	mu    sync.Mutex
	items Items
	// snapshot is the serialisation of the current in-memory items. Change
	// notifications carrying an equal payload are this instance's own
	// writes (or writes it already adopted) and are skipped.
	snapshot []byte

	stop func()
	done chan struct{}
}

// ManagerConfig wires a manager's collaborators.
type ManagerConfig struct {
	Key    string
	Store  store.Store
	Bus    *events.Bus
	Logger zerolog.Logger
}

// NewManager hydrates a manager from persisted state and starts watching
// the key for external changes. A missing key or an unreadable payload
// yields an empty cart; neither is fatal.
func NewManager(ctx context.Context, cfg ManagerConfig) (*Manager, error) {
	if cfg.Key == "" {
		return nil, errors.New("cart: key is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("cart: store is required")
	}
	m := &Manager{
		key:   cfg.Key,
		store: cfg.Store,
		bus:   cfg.Bus,
		log:   cfg.Logger.With().Str("cart_key", cfg.Key).Logger(),
		items: Items{},
		done:  make(chan struct{}),
	}

	data, found, loadErr := m.store.Load(ctx, m.key)
	switch {
	case loadErr != nil:
		m.log.Warn().Err(loadErr).Msg("load persisted cart")
	case found:
		items, decodeErr := decodeItems(data)
		if decodeErr != nil {
			m.log.Warn().Err(decodeErr).Msg("discard malformed persisted cart")
		} else {
			m.items = items
			m.snapshot = data
		}
	}
	if m.snapshot == nil {
		encoded, err := encodeItems(m.items)
		if err != nil {
			return nil, err
		}
		m.snapshot = encoded
	}
	if loadErr == nil && !found {
		// First sight of this key. Persist the empty cart right away so
		// other instances sharing the backend can resolve the key before
		// any mutation, and so it survives a restart. A Load failure above
		// must not reach this path: the key may exist and would be
		// clobbered.
		if err := m.store.Save(ctx, m.key, m.snapshot); err != nil {
			m.log.Warn().Err(err).Msg("persist new cart")
		}
	}

	updates, stop, err := m.store.Watch(ctx, m.key)
	if err != nil {
		return nil, err
	}
	m.stop = stop
	go m.reconcile(updates)
	return m, nil
}

// Add appends the product with quantity 1 or increments an existing line
// item with the same identifier. It always succeeds.
func (m *Manager) Add(ctx context.Context, p Product) {
	m.mu.Lock()
	if i := m.items.index(p.ID); i >= 0 {
		m.items[i].Qty++
	} else {
		m.items = append(m.items, LineItem{ID: p.ID, Name: p.Name, Price: p.Price, Qty: 1})
	}
	m.commit(ctx, "add")
}

// Remove deletes the matching line item. Absent identifiers are a no-op.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	i := m.items.index(id)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.items = append(m.items[:i:i], m.items[i+1:]...)
	m.commit(ctx, "remove")
}

// UpdateQuantity sets the matching line item's quantity to qty exactly.
// Quantities below 1 remove the item instead. Absent identifiers are a
// no-op.
func (m *Manager) UpdateQuantity(ctx context.Context, id string, qty int) {
	if qty < 1 {
		m.Remove(ctx, id)
		return
	}
	m.mu.Lock()
	i := m.items.index(id)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.items[i].Qty = qty
	m.commit(ctx, "update_qty")
}

// Items returns a copy of the current cart contents.
func (m *Manager) Items() Items {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Clone()
}

// Total returns the derived total for the current cart contents.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Total()
}

// Key returns the backend key this manager owns.
func (m *Manager) Key() string { return m.key }

// Close tears down the change subscription and waits for the
// reconciliation loop to drain.
func (m *Manager) Close() {
	if m.stop != nil {
		m.stop()
	}
	<-m.done
}

// commit persists the mutated cart and notifies subscribers. Persistence
// failures are logged and swallowed; the in-memory mutation stands. Called
// with m.mu held; releases it.
func (m *Manager) commit(ctx context.Context, op string) {
	data, err := encodeItems(m.items)
	if err != nil {
		// Line items only hold strings, ints and decimals, so this does
		// not happen in practice; keep memory authoritative regardless.
		m.mu.Unlock()
		m.log.Error().Err(err).Str("op", op).Msg("encode cart")
		return
	}
	m.snapshot = data
	m.mu.Unlock()

	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op).Inc()
	}
	if err := m.store.Save(ctx, m.key, data); err != nil {
		if obs.CartPersistFailures != nil {
			obs.CartPersistFailures.Inc()
		}
		m.log.Warn().Err(err).Str("op", op).Msg("persist cart")
	}
	m.emit(ctx, events.TopicCartUpdated, data)
}

func (m *Manager) reconcile(updates <-chan []byte) {
	defer close(m.done)
	for payload := range updates {
		m.apply(payload)
	}
}

// apply processes one external change notification: payloads equal to the
// current snapshot are skipped, malformed payloads are dropped, anything
// else replaces the in-memory cart wholesale.
func (m *Manager) apply(payload []byte) {
	m.mu.Lock()
	if bytes.Equal(payload, m.snapshot) {
		m.mu.Unlock()
		m.countSync("skipped")
		return
	}
	items, err := decodeItems(payload)
	if err != nil {
		m.mu.Unlock()
		m.countSync("invalid")
		m.log.Warn().Err(err).Msg("drop malformed change notification")
		return
	}
	m.items = items
	m.snapshot = append([]byte(nil), payload...)
	m.mu.Unlock()

	m.countSync("applied")
	m.emit(context.Background(), events.TopicCartReplaced, payload)
}

func (m *Manager) emit(ctx context.Context, topic string, payload []byte) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Emit(ctx, topic, m.key, payload); err != nil {
		m.log.Warn().Err(err).Str("topic", topic).Msg("notify subscribers")
	}
}

func (m *Manager) countSync(result string) {
	if obs.CartSyncTotal != nil {
		obs.CartSyncTotal.WithLabelValues(result).Inc()
	}
}
