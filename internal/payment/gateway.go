package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/JinFuuMugen/coinshop/internal/clock"
	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/google/uuid"
)

var (
	ErrChargeInFlight = errors.New("charge already in flight")
	ErrAlreadyCharged = errors.New("order already charged")
	ErrUnknownMethod  = errors.New("unknown payment method")
	ErrDeclined       = errors.New("payment declined")
)

// PaymentError is what a failed charge surfaces to the flow. The order it
// belongs to stays valid and may be paid again.
type PaymentError struct {
	OrderID uuid.UUID
	Reason  string
	Err     error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment for order %s failed: %s", e.OrderID, e.Reason)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

type Gateway interface {
	Charge(ctx context.Context, order models.Order, method models.PaymentMethod) (models.Receipt, error)
}

type GatewayFunc func(ctx context.Context, order models.Order, method models.PaymentMethod) (models.Receipt, error)

func (f GatewayFunc) Charge(ctx context.Context, order models.Order, method models.PaymentMethod) (models.Receipt, error) {
	return f(ctx, order, method)
}

// Approver settles every charge it receives.
type Approver struct {
	Clock clock.Scheduler
}

func (a Approver) Charge(ctx context.Context, order models.Order, method models.PaymentMethod) (models.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return models.Receipt{}, err
	}

	return NewReceipt(order, method, a.Clock.Now()), nil
}

// Decliner refuses every charge with the given reason.
type Decliner struct {
	Reason string
}

func (d Decliner) Charge(_ context.Context, order models.Order, _ models.PaymentMethod) (models.Receipt, error) {
	return models.Receipt{}, &PaymentError{OrderID: order.ID, Reason: d.Reason, Err: ErrDeclined}
}
