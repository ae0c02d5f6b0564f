package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartd/internal/cart"
)

func newService(t *testing.T) *cart.Service {
	t.Helper()
	s, _ := newBackend(t)
	svc := &cart.Service{Store: s, Logger: zerolog.Nop()}
	t.Cleanup(svc.Close)
	return svc
}

func TestCreateThenLookupReturnsSameManager(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	found, err := svc.Lookup(ctx, created.Key())
	require.NoError(t, err)
	require.Same(t, created, found)
}

func TestLookupUnknownKey(t *testing.T) {
	svc := newService(t)

	_, err := svc.Lookup(context.Background(), "2c9e41a0-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestLookupRejectsMalformedKey(t *testing.T) {
	svc := newService(t)

	_, err := svc.Lookup(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCreateIsVisibleToOtherInstancesBeforeAnyMutation(t *testing.T) {
	s, _ := newBackend(t)
	ctx := context.Background()

	first := &cart.Service{Store: s, Logger: zerolog.Nop()}
	t.Cleanup(first.Close)
	second := &cart.Service{Store: s, Logger: zerolog.Nop()}
	t.Cleanup(second.Close)

	created, err := first.Create(ctx)
	require.NoError(t, err)

	found, err := second.Lookup(ctx, created.Key())
	require.NoError(t, err, "a just-issued cart id must resolve on another instance")
	require.Empty(t, found.Items())
}

func TestLookupHydratesCartsCreatedElsewhere(t *testing.T) {
	s, _ := newBackend(t)
	ctx := context.Background()

	first := &cart.Service{Store: s, Logger: zerolog.Nop()}
	t.Cleanup(first.Close)
	second := &cart.Service{Store: s, Logger: zerolog.Nop()}
	t.Cleanup(second.Close)

	created, err := first.Create(ctx)
	require.NoError(t, err)
	created.Add(ctx, product("p1", "A", "10"))

	var found *cart.Manager
	require.Eventually(t, func() bool {
		found, err = second.Lookup(ctx, created.Key())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "cart persisted by the first instance should be visible")

	items := found.Items()
	require.Len(t, items, 1)
	require.Equal(t, "p1", items[0].ID)
	require.True(t, found.Total().Equal(decimal.RequireFromString("10")))
}
