package keypad

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MaxDigits = 9
	MaxCoins  = 999_999
)

const (
	KeyTripleZero = "000"
	KeyDelete     = "Del"
)

var DefaultRate = decimal.RequireFromString("0.0195")

var (
	ErrUnknownKey = errors.New("unknown key")
	ErrZeroAmount = errors.New("amount must be positive")
)

// Keys lists the keypad layout, row by row.
var Keys = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", KeyTripleZero, "0", KeyDelete}

// Pad builds a coin amount from keypad presses. The buffer never holds
// leading zeros, is never empty, and never exceeds MaxDigits characters or
// the configured ceiling.
type Pad struct {
	buf  string
	rate decimal.Decimal
	max  int64
}

func New(rate decimal.Decimal, max int64) *Pad {
	return &Pad{buf: "0", rate: rate, max: max}
}

// Press applies one key. Edits that would break the bounds are dropped and
// leave the buffer untouched; only unrecognised keys are reported.
func (p *Pad) Press(key string) error {
	next, err := p.apply(key)
	if err != nil {
		return err
	}

	if len(next) > MaxDigits {
		return nil
	}
	n, err := strconv.ParseInt(next, 10, 64)
	if err != nil || n > p.max {
		return nil
	}

	p.buf = next
	return nil
}

func (p *Pad) apply(key string) (string, error) {
	switch {
	case key == KeyDelete:
		if len(p.buf) > 1 {
			return p.buf[:len(p.buf)-1], nil
		}
		return "0", nil
	case key == "0" || key == KeyTripleZero:
		if p.buf == "0" {
			return p.buf, nil
		}
		return p.buf + key, nil
	case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
		if p.buf == "0" {
			return key, nil
		}
		return p.buf + key, nil
	default:
		return "", ErrUnknownKey
	}
}

func (p *Pad) Buffer() string {
	return p.buf
}

func (p *Pad) Amount() int64 {
	cleaned := strings.TrimLeft(p.buf, "0")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (p *Pad) Total() decimal.Decimal {
	return decimal.NewFromInt(p.Amount()).Mul(p.rate)
}

// Price renders the total with exactly two decimals, e.g. "2.40".
func (p *Pad) Price() string {
	return p.Total().StringFixed(2)
}

func (p *Pad) CanCommit() bool {
	a := p.Amount()
	return a > 0 && a <= p.max
}

// Commit hands out the amount and its price and clears the buffer.
func (p *Pad) Commit() (int64, string, error) {
	if !p.CanCommit() {
		return 0, "", ErrZeroAmount
	}
	coins, price := p.Amount(), p.Price()
	p.Reset()
	return coins, price, nil
}

func (p *Pad) Reset() {
	p.buf = "0"
}
