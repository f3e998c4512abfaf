package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JinFuuMugen/coinshop/internal/clock"
	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type outcome struct {
	receipt models.Receipt
	err     error
}

func newSimulator(gw func(clk *clock.Virtual) Gateway) (*Simulator, *clock.Virtual, *sync.Mutex) {
	mu := &sync.Mutex{}
	clk := clock.NewVirtual(epoch)
	return NewSimulator(mu, clk, gw(clk), DefaultLatency), clk, mu
}

func approver(clk *clock.Virtual) Gateway { return Approver{Clock: clk} }

func testOrder() models.Order {
	return models.Order{ID: uuid.New(), Coins: 350, Price: "6.00 $", Handle: "jo"}
}

func card() models.PaymentMethod {
	m, _ := DefaultWallet().Select(context.Background(), "card-8744")
	return m
}

func charge(t *testing.T, s *Simulator, mu *sync.Mutex, order models.Order, got *[]outcome) error {
	t.Helper()
	mu.Lock()
	defer mu.Unlock()
	return s.Charge(order, card(), func(r models.Receipt, err error) {
		*got = append(*got, outcome{r, err})
	})
}

func TestChargeSettlesAfterLatency(t *testing.T) {
	s, clk, mu := newSimulator(approver)
	order := testOrder()
	var got []outcome

	require.NoError(t, charge(t, s, mu, order, &got))
	assert.True(t, s.InFlight())

	clk.Advance(1499 * time.Millisecond)
	assert.Empty(t, got)

	clk.Advance(time.Millisecond)
	require.Len(t, got, 1)
	require.NoError(t, got[0].err)
	assert.Equal(t, models.Receipt{
		OrderID: order.ID,
		Coins:   350,
		Handle:  "jo",
		Price:   "6.00 $",
		Method:  "Card •••• 8744",
		PaidAt:  epoch.Add(DefaultLatency),
	}, got[0].receipt)
	assert.False(t, s.InFlight())
}

func TestChargeOncePerOrder(t *testing.T) {
	s, clk, mu := newSimulator(approver)
	order := testOrder()
	var got []outcome

	require.NoError(t, charge(t, s, mu, order, &got))
	require.ErrorIs(t, charge(t, s, mu, testOrder(), &got), ErrChargeInFlight)

	clk.Advance(DefaultLatency)
	require.ErrorIs(t, charge(t, s, mu, order, &got), ErrAlreadyCharged)

	require.NoError(t, charge(t, s, mu, testOrder(), &got))
	clk.Advance(DefaultLatency)
	assert.Len(t, got, 2)
}

func TestDeclineKeepsOrderChargeable(t *testing.T) {
	declines := true
	s, clk, mu := newSimulator(func(clk *clock.Virtual) Gateway {
		return GatewayFunc(func(ctx context.Context, o models.Order, m models.PaymentMethod) (models.Receipt, error) {
			if declines {
				return Decliner{Reason: "insufficient funds"}.Charge(ctx, o, m)
			}
			return Approver{Clock: clk}.Charge(ctx, o, m)
		})
	})
	order := testOrder()
	var got []outcome

	require.NoError(t, charge(t, s, mu, order, &got))
	clk.Advance(DefaultLatency)

	require.Len(t, got, 1)
	var perr *PaymentError
	require.ErrorAs(t, got[0].err, &perr)
	assert.Equal(t, order.ID, perr.OrderID)
	assert.Equal(t, "insufficient funds", perr.Reason)
	assert.ErrorIs(t, got[0].err, ErrDeclined)

	declines = false
	require.NoError(t, charge(t, s, mu, order, &got))
	clk.Advance(DefaultLatency)
	require.Len(t, got, 2)
	assert.NoError(t, got[1].err)
}

func TestPlainGatewayErrorIsWrapped(t *testing.T) {
	boom := errors.New("gateway timeout")
	s, clk, mu := newSimulator(func(*clock.Virtual) Gateway {
		return GatewayFunc(func(context.Context, models.Order, models.PaymentMethod) (models.Receipt, error) {
			return models.Receipt{}, boom
		})
	})
	var got []outcome

	require.NoError(t, charge(t, s, mu, testOrder(), &got))
	clk.Advance(DefaultLatency)

	var perr *PaymentError
	require.ErrorAs(t, got[0].err, &perr)
	assert.Equal(t, "gateway timeout", perr.Reason)
	assert.ErrorIs(t, got[0].err, boom)
}

func TestCancelDropsCompletion(t *testing.T) {
	s, clk, mu := newSimulator(approver)
	var got []outcome

	require.NoError(t, charge(t, s, mu, testOrder(), &got))
	mu.Lock()
	s.Cancel()
	mu.Unlock()

	clk.Advance(time.Minute)
	assert.Empty(t, got)
	assert.False(t, s.InFlight())
	assert.Equal(t, 0, clk.Pending())
}

func TestWallet(t *testing.T) {
	w := DefaultWallet()
	ctx := context.Background()

	methods, err := w.ListMethods(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "Card •••• 8744", methods[0].Label)
	assert.Equal(t, models.PaymentMethodWallet, methods[1].Kind)

	m, err := w.Select(ctx, "apple-pay")
	require.NoError(t, err)
	assert.Equal(t, "Apple Pay", m.Label)

	_, err = w.Select(ctx, "paypal")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
