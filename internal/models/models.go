package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	Handle string `json:"handle"`
}

type CoinPack struct {
	Coins int64  `json:"coins"`
	Price string `json:"price"`
}

type Origin string

const (
	OriginDirect Origin = "direct"
	OriginCustom Origin = "custom"
)

type Order struct {
	ID     uuid.UUID `json:"id"`
	Coins  int64     `json:"coins"`
	Price  string    `json:"price"`
	Handle string    `json:"handle"`
}

type Receipt struct {
	OrderID uuid.UUID `json:"order_id"`
	Coins   int64     `json:"coins"`
	Handle  string    `json:"handle"`
	Price   string    `json:"price"`
	Method  string    `json:"method"`
	PaidAt  time.Time `json:"paid_at"`
}

type PaymentMethodKind string

const (
	PaymentMethodCard   PaymentMethodKind = "CARD"
	PaymentMethodWallet PaymentMethodKind = "WALLET"
)

type PaymentMethod struct {
	ID     string            `json:"id"`
	Kind   PaymentMethodKind `json:"kind"`
	Label  string            `json:"label"`
	Detail string            `json:"detail,omitempty"`
}

type SearchRequest struct {
	Text string `json:"text"`
}

type SelectPackRequest struct {
	Index int `json:"index"`
}

type KeyRequest struct {
	Key string `json:"key"`
}

type SelectMethodRequest struct {
	ID string `json:"id"`
}

type CatalogItem struct {
	Index  int    `json:"index"`
	Custom bool   `json:"custom"`
	Coins  int64  `json:"coins,omitempty"`
	Price  string `json:"price,omitempty"`
}
