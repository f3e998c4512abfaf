package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JinFuuMugen/coinshop/internal/catalog"
	"github.com/JinFuuMugen/coinshop/internal/clock"
	"github.com/JinFuuMugen/coinshop/internal/countdown"
	"github.com/JinFuuMugen/coinshop/internal/keypad"
	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/JinFuuMugen/coinshop/internal/payment"
	"github.com/JinFuuMugen/coinshop/internal/resolver"
)

type Config struct {
	CoinRate       decimal.Decimal
	MaxCoins       int64
	DebounceDelay  time.Duration
	LookupLatency  time.Duration
	PaymentLatency time.Duration
	CountdownStart time.Duration
}

func DefaultConfig() Config {
	rc := resolver.DefaultConfig()
	return Config{
		CoinRate:       keypad.DefaultRate,
		MaxCoins:       keypad.MaxCoins,
		DebounceDelay:  rc.Debounce,
		LookupLatency:  rc.Latency,
		PaymentLatency: payment.DefaultLatency,
		CountdownStart: countdown.DefaultStart,
	}
}

// Deps are the collaborators of a controller. Zero fields get the mock
// implementations.
type Deps struct {
	Scheduler clock.Scheduler
	Catalog   *catalog.Catalog
	Lookup    resolver.AccountLookup
	Gateway   payment.Gateway
	Methods   payment.MethodProvider
	Logger    *zap.SugaredLogger
	NewID     func() uuid.UUID
}

// Controller is the purchase flow of one user. It is the only writer of
// the account, order and receipt; every timer it starts is guarded by the
// same mutex and dropped when its screen is left.
type Controller struct {
	mu sync.Mutex

	log     *zap.SugaredLogger
	catalog *catalog.Catalog
	methods payment.MethodProvider
	newID   func() uuid.UUID

	pad       *keypad.Pad
	resolver  *resolver.Resolver
	payments  *payment.Simulator
	countdown *countdown.Countdown

	state      State
	search     string
	account    *models.Account
	lookupMsg  string
	selected   int
	method     *models.PaymentMethod
	paymentErr error
	closed     bool
}

func New(cfg Config, deps Deps) *Controller {
	if deps.Scheduler == nil {
		deps.Scheduler = clock.Real{}
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Lookup == nil {
		deps.Lookup = resolver.Echo{}
	}
	if deps.Gateway == nil {
		deps.Gateway = payment.Approver{Clock: deps.Scheduler}
	}
	if deps.Methods == nil {
		deps.Methods = payment.DefaultWallet()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}

	c := &Controller{
		log:     deps.Logger,
		catalog: deps.Catalog,
		methods: deps.Methods,
		newID:   deps.NewID,
		pad:     keypad.New(cfg.CoinRate, cfg.MaxCoins),
		state:   Browsing{},
	}

	c.resolver = resolver.New(&c.mu, deps.Scheduler, deps.Lookup, resolver.Config{
		Debounce: cfg.DebounceDelay,
		Latency:  cfg.LookupLatency,
	}, c.onResolved)
	c.payments = payment.NewSimulator(&c.mu, deps.Scheduler, deps.Gateway, cfg.PaymentLatency)
	c.countdown = countdown.New(&c.mu, deps.Scheduler, cfg.CountdownStart)

	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

func (c *Controller) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return c.methods.ListMethods(ctx)
}

// EditSearch records new search text and lets the resolver debounce it.
func (c *Controller) EditSearch(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("edit search", ScreenBrowsing); err != nil {
		return err
	}
	c.search = text
	c.resolver.Edit(text)
	return nil
}

// SubmitSearch resolves the current search text without waiting.
func (c *Controller) SubmitSearch() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("submit search", ScreenBrowsing); err != nil {
		return err
	}
	c.resolver.Submit(c.search)
	return nil
}

func (c *Controller) onResolved(res resolver.Result) {
	switch {
	case res.Account != nil:
		acct := *res.Account
		c.account = &acct
		c.lookupMsg = ""
		c.log.Debugw("account resolved", "handle", acct.Handle)
	case errors.Is(res.Err, resolver.ErrNotFound):
		c.account = nil
		c.lookupMsg = fmt.Sprintf("@%s was not found", res.Handle)
	case res.Err != nil:
		c.account = nil
		c.lookupMsg = "account lookup failed, try again"
		c.log.Warnw("account lookup failed", "handle", res.Handle, "error", res.Err)
	default:
		c.account = nil
		c.lookupMsg = ""
	}
}

// SelectPack picks a catalog entry. Choosing the Custom sentinel opens the
// keypad; any other entry becomes the selection. Either one abandons an
// open keypad or order review.
func (c *Controller) SelectPack(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("select pack", ScreenBrowsing, ScreenCustomEntry, ScreenOrderReview); err != nil {
		return err
	}
	item, err := c.catalog.Item(index)
	if err != nil {
		return err
	}

	c.pad.Reset()
	c.paymentErr = nil
	if item.Custom {
		c.selected = -1
		c.setState(CustomEntry{})
		return nil
	}
	c.selected = index
	c.setState(Browsing{})
	return nil
}

func (c *Controller) PressKey(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("press key", ScreenCustomEntry); err != nil {
		return err
	}
	return c.pad.Press(key)
}

func (c *Controller) CloseCustom() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("close custom entry", ScreenCustomEntry); err != nil {
		return err
	}
	c.pad.Reset()
	c.setState(Browsing{})
	return nil
}

func (c *Controller) CommitCustom() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("commit amount", ScreenCustomEntry); err != nil {
		return err
	}
	if !c.pad.CanCommit() {
		return keypad.ErrZeroAmount
	}
	if c.account == nil {
		return ErrAccountRequired
	}

	coins, price, err := c.pad.Commit()
	if err != nil {
		return err
	}
	c.openReview(coins, price+" $", models.OriginCustom)
	return nil
}

// Buy reviews the selected pack for the resolved account.
func (c *Controller) Buy() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("buy", ScreenBrowsing); err != nil {
		return err
	}
	if c.selected < 0 {
		return ErrNoPackSelected
	}
	if c.account == nil {
		return ErrAccountRequired
	}

	item, err := c.catalog.Item(c.selected)
	if err != nil {
		return err
	}
	c.openReview(item.Pack.Coins, item.Pack.Price, models.OriginDirect)
	return nil
}

func (c *Controller) openReview(coins int64, price string, origin models.Origin) {
	// The order binds the account shown right now; later lookups must not
	// replace it underneath the review.
	c.resolver.Cancel()
	c.paymentErr = nil

	order := models.Order{
		ID:     c.newID(),
		Coins:  coins,
		Price:  price,
		Handle: c.account.Handle,
	}
	c.setState(OrderReview{Order: order, Origin: origin})
}

// BackFromReview returns to the screen the order came from.
func (c *Controller) BackFromReview() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("go back from review", ScreenOrderReview); err != nil {
		return err
	}
	review := c.state.(OrderReview)

	c.paymentErr = nil
	if review.Origin == models.OriginCustom {
		c.setState(CustomEntry{})
		return nil
	}
	c.setState(Browsing{})
	return nil
}

func (c *Controller) SelectMethod(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("select payment method", ScreenOrderReview); err != nil {
		return err
	}
	m, err := c.methods.Select(ctx, id)
	if err != nil {
		return err
	}
	c.method = &m
	return nil
}

// Pay charges the reviewed order. Processing cannot be left by the user;
// it ends when the charge settles.
func (c *Controller) Pay(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("pay", ScreenOrderReview); err != nil {
		return err
	}
	review := c.state.(OrderReview)

	method, err := c.paymentMethod(ctx)
	if err != nil {
		return err
	}

	order, origin := review.Order, review.Origin
	err = c.payments.Charge(order, method, func(receipt models.Receipt, err error) {
		c.onCharged(order, origin, receipt, err)
	})
	if err != nil {
		return fmt.Errorf("cannot charge order %s: %w", order.ID, err)
	}

	c.paymentErr = nil
	c.setState(Processing{Order: order, Origin: origin})
	c.countdown.Start()
	c.log.Infow("payment started", "order", order.ID, "coins", order.Coins, "handle", order.Handle, "method", method.ID)
	return nil
}

func (c *Controller) paymentMethod(ctx context.Context) (models.PaymentMethod, error) {
	if c.method != nil {
		return *c.method, nil
	}
	methods, err := c.methods.ListMethods(ctx)
	if err != nil {
		return models.PaymentMethod{}, fmt.Errorf("cannot list payment methods: %w", err)
	}
	if len(methods) == 0 {
		return models.PaymentMethod{}, ErrNoPaymentMethod
	}
	return methods[0], nil
}

func (c *Controller) onCharged(order models.Order, origin models.Origin, receipt models.Receipt, err error) {
	p, ok := c.state.(Processing)
	if !ok || p.Order.ID != order.ID {
		return
	}
	c.countdown.Stop()

	if err != nil {
		c.paymentErr = err
		c.log.Warnw("payment failed", "order", order.ID, "error", err)
		c.setState(OrderReview{Order: order, Origin: origin})
		return
	}

	c.log.Infow("payment settled", "order", order.ID, "coins", receipt.Coins, "handle", receipt.Handle)
	c.setState(Success{Receipt: receipt})
}

// GoBack leaves the success screen and starts over.
func (c *Controller) GoBack() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect("go back", ScreenSuccess); err != nil {
		return err
	}
	c.reset()
	return nil
}

func (c *Controller) reset() {
	c.resolver.Cancel()
	c.payments.Cancel()
	c.countdown.Stop()
	c.pad.Reset()

	c.search = ""
	c.account = nil
	c.lookupMsg = ""
	c.selected = 0
	c.method = nil
	c.paymentErr = nil
	c.setState(Browsing{})
}

// Close stops every timer. A closed controller refuses further actions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.resolver.Close()
	c.payments.Close()
	c.countdown.Stop()
}

func (c *Controller) setState(s State) {
	if c.state.Screen() != s.Screen() {
		c.log.Debugw("transition", "from", c.state.Screen(), "to", s.Screen())
	}
	c.state = s
}

func (c *Controller) expect(action string, screens ...Screen) error {
	if c.closed {
		return ErrClosed
	}
	cur := c.state.Screen()
	for _, s := range screens {
		if s == cur {
			return nil
		}
	}
	return &TransitionError{Screen: cur, Action: action}
}
