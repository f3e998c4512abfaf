package payment

import (
	"context"
	"fmt"

	"github.com/JinFuuMugen/coinshop/internal/models"
)

type MethodProvider interface {
	ListMethods(ctx context.Context) ([]models.PaymentMethod, error)
	Select(ctx context.Context, id string) (models.PaymentMethod, error)
}

// Wallet is a fixed card-on-file provider.
type Wallet struct {
	methods []models.PaymentMethod
}

func DefaultWallet() *Wallet {
	return NewWallet(
		models.PaymentMethod{
			ID:     "card-8744",
			Kind:   models.PaymentMethodCard,
			Label:  "Card •••• 8744",
			Detail: "Visa • Expires 12/27",
		},
		models.PaymentMethod{
			ID:    "apple-pay",
			Kind:  models.PaymentMethodWallet,
			Label: "Apple Pay",
		},
	)
}

func NewWallet(methods ...models.PaymentMethod) *Wallet {
	return &Wallet{methods: methods}
}

func (w *Wallet) ListMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.PaymentMethod, len(w.methods))
	copy(out, w.methods)
	return out, nil
}

func (w *Wallet) Select(ctx context.Context, id string) (models.PaymentMethod, error) {
	if err := ctx.Err(); err != nil {
		return models.PaymentMethod{}, err
	}
	for _, m := range w.methods {
		if m.ID == id {
			return m, nil
		}
	}
	return models.PaymentMethod{}, fmt.Errorf("%w: %q", ErrUnknownMethod, id)
}
