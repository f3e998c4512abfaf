package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JinFuuMugen/coinshop/internal/catalog"
	"github.com/JinFuuMugen/coinshop/internal/clock"
	"github.com/JinFuuMugen/coinshop/internal/keypad"
	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/JinFuuMugen/coinshop/internal/payment"
	"github.com/JinFuuMugen/coinshop/internal/resolver"
)

const (
	debounce = 600 * time.Millisecond
	latency  = time.Second
	settle   = 1500 * time.Millisecond
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type flow struct {
	*Controller
	clk *clock.Virtual
}

func newFlow(t *testing.T, deps Deps) *flow {
	t.Helper()
	clk := clock.NewVirtual(epoch)
	deps.Scheduler = clk
	c := New(DefaultConfig(), deps)
	t.Cleanup(c.Close)
	return &flow{Controller: c, clk: clk}
}

// resolved returns a flow browsing with @jo resolved.
func resolved(t *testing.T, deps Deps) *flow {
	t.Helper()
	f := newFlow(t, deps)
	require.NoError(t, f.EditSearch("jo"))
	f.clk.Advance(debounce + latency)
	require.NotNil(t, f.View().Account)
	return f
}

func (f *flow) keys(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, f.PressKey(k))
	}
}

func TestInitialState(t *testing.T) {
	f := newFlow(t, Deps{})

	v := f.View()
	assert.Equal(t, ScreenBrowsing, v.Screen)
	assert.Equal(t, 0, v.SelectedIndex)
	assert.Equal(t, &models.CoinPack{Coins: 20, Price: "0.39 $"}, v.SelectedPack)
	assert.Equal(t, "Buy for 0.39 $", v.BuyLabel)
	assert.False(t, v.CanBuy)
	assert.Nil(t, v.Account)
	assert.Empty(t, v.Search)
	assert.IsType(t, Browsing{}, f.State())
}

func TestTypingResolvesAccount(t *testing.T) {
	f := newFlow(t, Deps{})

	require.NoError(t, f.EditSearch("jo"))
	f.clk.Advance(debounce)
	assert.True(t, f.View().Loading)
	assert.Nil(t, f.View().Account)

	f.clk.Advance(latency)
	v := f.View()
	assert.False(t, v.Loading)
	assert.Equal(t, &models.Account{Handle: "jo"}, v.Account)
	assert.True(t, v.CanBuy)
}

func TestDebounceOnlyLatestEdit(t *testing.T) {
	var calls []string
	f := newFlow(t, Deps{Lookup: resolver.LookupFunc(func(_ context.Context, h string) (models.Account, error) {
		calls = append(calls, h)
		return models.Account{Handle: h}, nil
	})})

	require.NoError(t, f.EditSearch("jo"))
	f.clk.Advance(400 * time.Millisecond)
	require.NoError(t, f.EditSearch("joe"))
	f.clk.Advance(10 * time.Second)

	assert.Equal(t, []string{"joe"}, calls)
	assert.Equal(t, "joe", f.View().Account.Handle)
}

func TestClearingSearchDropsPendingLookup(t *testing.T) {
	f := newFlow(t, Deps{})

	require.NoError(t, f.EditSearch("jo"))
	f.clk.Advance(debounce + latency/2)
	require.True(t, f.View().Loading)

	require.NoError(t, f.EditSearch("j"))
	f.clk.Advance(10 * time.Second)

	v := f.View()
	assert.Nil(t, v.Account)
	assert.False(t, v.Loading)
	assert.Equal(t, "j", v.Search)
}

func TestShortSearchClearsResolvedAccount(t *testing.T) {
	f := resolved(t, Deps{})

	require.NoError(t, f.EditSearch("@j"))
	assert.Nil(t, f.View().Account)
	assert.ErrorIs(t, f.Buy(), ErrAccountRequired)
}

func TestSubmitSearchSkipsDebounce(t *testing.T) {
	f := newFlow(t, Deps{})

	require.NoError(t, f.EditSearch("@jo"))
	require.NoError(t, f.SubmitSearch())
	f.clk.Advance(latency)

	assert.Equal(t, "jo", f.View().Account.Handle)
}

func TestNotFoundSurfacesMessage(t *testing.T) {
	f := newFlow(t, Deps{Lookup: resolver.NewDirectory("alice")})

	require.NoError(t, f.EditSearch("bob"))
	f.clk.Advance(debounce + latency)

	v := f.View()
	assert.Nil(t, v.Account)
	assert.Equal(t, "@bob was not found", v.LookupError)
	assert.ErrorIs(t, f.Buy(), ErrAccountRequired)

	require.NoError(t, f.EditSearch("alice"))
	f.clk.Advance(debounce + latency)
	v = f.View()
	assert.Empty(t, v.LookupError)
	assert.Equal(t, "alice", v.Account.Handle)
}

func TestLookupFailureIsRecoverable(t *testing.T) {
	fail := true
	f := newFlow(t, Deps{Lookup: resolver.LookupFunc(func(_ context.Context, h string) (models.Account, error) {
		if fail {
			return models.Account{}, errors.New("connection refused")
		}
		return models.Account{Handle: h}, nil
	})})

	require.NoError(t, f.EditSearch("jo"))
	f.clk.Advance(debounce + latency)
	assert.NotEmpty(t, f.View().LookupError)
	assert.Nil(t, f.View().Account)

	fail = false
	require.NoError(t, f.SubmitSearch())
	f.clk.Advance(latency)
	assert.Equal(t, "jo", f.View().Account.Handle)
}

func TestSelectFixedPack(t *testing.T) {
	f := newFlow(t, Deps{})

	require.NoError(t, f.SelectPack(2))
	v := f.View()
	assert.Equal(t, ScreenBrowsing, v.Screen)
	assert.Equal(t, 2, v.SelectedIndex)
	assert.Equal(t, "Buy for 6.00 $", v.BuyLabel)

	assert.ErrorIs(t, f.SelectPack(42), catalog.ErrUnknownPack)
}

func TestBuyProducesDirectReview(t *testing.T) {
	f := resolved(t, Deps{})

	require.NoError(t, f.SelectPack(2))
	require.NoError(t, f.Buy())

	review, ok := f.State().(OrderReview)
	require.True(t, ok)
	assert.Equal(t, models.OriginDirect, review.Origin)
	assert.Equal(t, int64(350), review.Order.Coins)
	assert.Equal(t, "6.00 $", review.Order.Price)
	assert.Equal(t, "jo", review.Order.Handle)
	assert.NotEqual(t, uuid.Nil, review.Order.ID)
	assert.False(t, f.View().CanBuy)
}

func TestBuyGuards(t *testing.T) {
	f := newFlow(t, Deps{})
	assert.ErrorIs(t, f.Buy(), ErrAccountRequired)

	f = resolved(t, Deps{})
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	require.NoError(t, f.CloseCustom())
	assert.Equal(t, -1, f.View().SelectedIndex)
	assert.Equal(t, "Select pack", f.View().BuyLabel)
	assert.ErrorIs(t, f.Buy(), ErrNoPackSelected)
}

func TestCustomEntryFlow(t *testing.T) {
	f := resolved(t, Deps{})

	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	assert.Equal(t, ScreenCustomEntry, f.View().Screen)
	assert.Nil(t, f.View().SelectedPack)

	f.keys(t, "1", "2", "3")
	custom := f.View().Custom
	require.NotNil(t, custom)
	assert.Equal(t, "123", custom.Buffer)
	assert.Equal(t, int64(123), custom.Amount)
	assert.Equal(t, "2.40", custom.Price)
	assert.True(t, custom.CanCommit)

	require.NoError(t, f.CommitCustom())
	review, ok := f.State().(OrderReview)
	require.True(t, ok)
	assert.Equal(t, models.OriginCustom, review.Origin)
	assert.Equal(t, models.Order{ID: review.Order.ID, Coins: 123, Price: "2.40 $", Handle: "jo"}, review.Order)
}

func TestCommitZeroIsRefused(t *testing.T) {
	f := resolved(t, Deps{})
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))

	for i := 0; i < 9; i++ {
		require.NoError(t, f.PressKey("0"))
		require.Equal(t, "0", f.View().Custom.Buffer)
	}
	assert.False(t, f.View().Custom.CanCommit)
	assert.ErrorIs(t, f.CommitCustom(), keypad.ErrZeroAmount)
	assert.Equal(t, ScreenCustomEntry, f.View().Screen)
}

func TestCommitWithoutAccount(t *testing.T) {
	f := newFlow(t, Deps{})
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	f.keys(t, "5")

	assert.ErrorIs(t, f.CommitCustom(), ErrAccountRequired)
	assert.Equal(t, "5", f.View().Custom.Buffer)
}

func TestUnknownKey(t *testing.T) {
	f := newFlow(t, Deps{})
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))

	assert.ErrorIs(t, f.PressKey("x"), keypad.ErrUnknownKey)
}

func TestBackFromCustomReviewReturnsToCustomEntry(t *testing.T) {
	f := resolved(t, Deps{})
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	f.keys(t, "5", "0")
	require.NoError(t, f.CommitCustom())

	require.NoError(t, f.BackFromReview())
	v := f.View()
	assert.Equal(t, ScreenCustomEntry, v.Screen)
	assert.Nil(t, v.Order)
	assert.Equal(t, "0", v.Custom.Buffer)
}

func TestBackFromDirectReviewReturnsToBrowsing(t *testing.T) {
	f := resolved(t, Deps{})
	require.NoError(t, f.SelectPack(3))
	require.NoError(t, f.Buy())

	require.NoError(t, f.BackFromReview())
	v := f.View()
	assert.Equal(t, ScreenBrowsing, v.Screen)
	assert.Equal(t, 3, v.SelectedIndex)
	assert.Nil(t, v.Order)
}

func TestCloseCustom(t *testing.T) {
	f := newFlow(t, Deps{})
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	f.keys(t, "7")

	require.NoError(t, f.CloseCustom())
	assert.Equal(t, ScreenBrowsing, f.View().Screen)

	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	assert.Equal(t, "0", f.View().Custom.Buffer)
}

func TestSwitchingIntentWins(t *testing.T) {
	f := resolved(t, Deps{})

	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	f.keys(t, "9")
	require.NoError(t, f.SelectPack(1))
	assert.Equal(t, ScreenBrowsing, f.View().Screen)
	assert.Equal(t, 1, f.View().SelectedIndex)

	require.NoError(t, f.Buy())
	require.NoError(t, f.SelectPack(4))
	assert.Equal(t, ScreenBrowsing, f.View().Screen)
	assert.Equal(t, 4, f.View().SelectedIndex)

	require.NoError(t, f.Buy())
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	assert.Equal(t, ScreenCustomEntry, f.View().Screen)
}

func TestInvalidTransitions(t *testing.T) {
	f := newFlow(t, Deps{})

	var terr *TransitionError
	err := f.Pay(context.Background())
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ScreenBrowsing, terr.Screen)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.ErrorIs(t, f.PressKey("1"), ErrInvalidTransition)
	assert.ErrorIs(t, f.CommitCustom(), ErrInvalidTransition)
	assert.ErrorIs(t, f.CloseCustom(), ErrInvalidTransition)
	assert.ErrorIs(t, f.BackFromReview(), ErrInvalidTransition)
	assert.ErrorIs(t, f.GoBack(), ErrInvalidTransition)
	assert.ErrorIs(t, f.SelectMethod(context.Background(), "card-8744"), ErrInvalidTransition)

	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	assert.ErrorIs(t, f.Buy(), ErrInvalidTransition)
	assert.ErrorIs(t, f.EditSearch("jo"), ErrInvalidTransition)
}

func TestPayToSuccess(t *testing.T) {
	f := resolved(t, Deps{})
	require.NoError(t, f.SelectPack(2))
	require.NoError(t, f.Buy())

	require.NoError(t, f.Pay(context.Background()))
	v := f.View()
	assert.Equal(t, ScreenProcessing, v.Screen)
	assert.Equal(t, "05:00", v.Countdown)
	assert.Equal(t, int64(350), v.Order.Coins)

	f.clk.Advance(time.Second)
	assert.Equal(t, "04:59", f.View().Countdown)

	f.clk.Advance(settle - time.Second)
	s, ok := f.State().(Success)
	require.True(t, ok)
	assert.Equal(t, int64(350), s.Receipt.Coins)
	assert.Equal(t, "jo", s.Receipt.Handle)
	assert.Equal(t, "Card •••• 8744", s.Receipt.Method)

	v = f.View()
	assert.Equal(t, "350 Coins were sent to @jo", v.Message)
	assert.Empty(t, v.Countdown)
	assert.Equal(t, 0, f.clk.Pending(), "countdown must stop with processing")
}

func TestProcessingRefusesUserActions(t *testing.T) {
	f := resolved(t, Deps{})
	require.NoError(t, f.Buy())
	require.NoError(t, f.Pay(context.Background()))

	assert.ErrorIs(t, f.SelectPack(1), ErrInvalidTransition)
	assert.ErrorIs(t, f.BackFromReview(), ErrInvalidTransition)
	assert.ErrorIs(t, f.Pay(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, f.GoBack(), ErrInvalidTransition)
	assert.Equal(t, ScreenProcessing, f.View().Screen)
}

func TestSelectedMethodIsCharged(t *testing.T) {
	var charged models.PaymentMethod
	f := resolved(t, Deps{Gateway: payment.GatewayFunc(func(_ context.Context, o models.Order, m models.PaymentMethod) (models.Receipt, error) {
		charged = m
		return payment.NewReceipt(o, m, epoch), nil
	})})
	require.NoError(t, f.Buy())

	assert.ErrorIs(t, f.SelectMethod(context.Background(), "nope"), payment.ErrUnknownMethod)
	require.NoError(t, f.SelectMethod(context.Background(), "apple-pay"))
	assert.Equal(t, "Apple Pay", f.View().PaymentMethod.Label)

	require.NoError(t, f.Pay(context.Background()))
	f.clk.Advance(settle)
	assert.Equal(t, "apple-pay", charged.ID)
}

func TestNoPaymentMethod(t *testing.T) {
	f := resolved(t, Deps{Methods: payment.NewWallet()})
	require.NoError(t, f.Buy())

	assert.ErrorIs(t, f.Pay(context.Background()), ErrNoPaymentMethod)
	assert.Equal(t, ScreenOrderReview, f.View().Screen)
}

func TestPaymentFailureReturnsToReview(t *testing.T) {
	decline := true
	f := resolved(t, Deps{Gateway: payment.GatewayFunc(func(ctx context.Context, o models.Order, m models.PaymentMethod) (models.Receipt, error) {
		if decline {
			return payment.Decliner{Reason: "card expired"}.Charge(ctx, o, m)
		}
		return payment.NewReceipt(o, m, epoch), nil
	})})
	require.NoError(t, f.SelectPack(f.Catalog().CustomIndex()))
	f.keys(t, "4", "2")
	require.NoError(t, f.CommitCustom())
	before := f.State().(OrderReview)

	require.NoError(t, f.Pay(context.Background()))
	f.clk.Advance(settle)

	after, ok := f.State().(OrderReview)
	require.True(t, ok)
	assert.Equal(t, before, after, "order and origin survive a failed payment")
	assert.Contains(t, f.View().PaymentError, "card expired")
	assert.Equal(t, 0, f.clk.Pending())

	decline = false
	require.NoError(t, f.Pay(context.Background()))
	assert.Empty(t, f.View().PaymentError)
	f.clk.Advance(settle)
	s, ok := f.State().(Success)
	require.True(t, ok)
	assert.Equal(t, int64(42), s.Receipt.Coins)
}

func TestGoBackResetsEverything(t *testing.T) {
	f := resolved(t, Deps{})
	require.NoError(t, f.SelectPack(5))
	require.NoError(t, f.Buy())
	require.NoError(t, f.SelectMethod(context.Background(), "apple-pay"))
	require.NoError(t, f.Pay(context.Background()))
	f.clk.Advance(settle)

	require.NoError(t, f.GoBack())
	v := f.View()
	assert.Equal(t, ScreenBrowsing, v.Screen)
	assert.Empty(t, v.Search)
	assert.Nil(t, v.Account)
	assert.Nil(t, v.Order)
	assert.Nil(t, v.Receipt)
	assert.Nil(t, v.PaymentMethod)
	assert.Equal(t, 0, v.SelectedIndex)
	assert.Equal(t, &models.CoinPack{Coins: 20, Price: "0.39 $"}, v.SelectedPack)
	assert.Equal(t, 0, f.clk.Pending())
}

func TestNewOrderGetsFreshCharge(t *testing.T) {
	var ids []uuid.UUID
	f := newFlow(t, Deps{Gateway: payment.GatewayFunc(func(_ context.Context, o models.Order, m models.PaymentMethod) (models.Receipt, error) {
		ids = append(ids, o.ID)
		return payment.NewReceipt(o, m, epoch), nil
	})})

	for i := 0; i < 2; i++ {
		require.NoError(t, f.EditSearch("jo"))
		f.clk.Advance(debounce + latency)
		require.NoError(t, f.Buy())
		require.NoError(t, f.Pay(context.Background()))
		f.clk.Advance(settle)
		require.NoError(t, f.GoBack())
	}

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestBuyCancelsPendingLookup(t *testing.T) {
	f := resolved(t, Deps{})

	require.NoError(t, f.EditSearch("zed"))
	f.clk.Advance(debounce)
	require.True(t, f.View().Loading)

	require.NoError(t, f.Buy())
	f.clk.Advance(10 * time.Second)

	v := f.View()
	assert.Equal(t, "jo", v.Account.Handle)
	assert.Equal(t, "jo", v.Order.Handle)
	assert.False(t, v.Loading)
}

func TestCloseStopsTimers(t *testing.T) {
	f := resolved(t, Deps{})
	require.NoError(t, f.Buy())
	require.NoError(t, f.Pay(context.Background()))

	f.Close()
	f.clk.Advance(time.Minute)

	assert.Equal(t, ScreenProcessing, f.View().Screen)
	assert.Equal(t, 0, f.clk.Pending())
	assert.ErrorIs(t, f.GoBack(), ErrClosed)
	assert.ErrorIs(t, f.BackFromReview(), ErrClosed)
}

func TestLogsPaymentOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := resolved(t, Deps{Logger: zap.New(core).Sugar()})
	require.NoError(t, f.Buy())
	require.NoError(t, f.Pay(context.Background()))
	f.clk.Advance(settle)

	assert.Equal(t, 1, logs.FilterMessage("payment started").Len())
	settled := logs.FilterMessage("payment settled").All()
	require.Len(t, settled, 1)
	assert.Equal(t, "jo", settled[0].ContextMap()["handle"])
}

func TestReceiptMessageGroupsThousands(t *testing.T) {
	assert.Equal(t, "17,500 Coins were sent to @jo", ReceiptMessage(models.Receipt{Coins: 17500, Handle: "jo"}))
}
