package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/JinFuuMugen/coinshop/internal/models"
)

var ErrNotFound = errors.New("account not found")

type AccountLookup interface {
	Lookup(ctx context.Context, handle string) (models.Account, error)
}

type LookupFunc func(ctx context.Context, handle string) (models.Account, error)

func (f LookupFunc) Lookup(ctx context.Context, handle string) (models.Account, error) {
	return f(ctx, handle)
}

// Echo finds every handle it is asked about.
type Echo struct{}

func (Echo) Lookup(ctx context.Context, handle string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	return models.Account{Handle: handle}, nil
}

// Directory knows a fixed set of handles, matched case-insensitively.
type Directory struct {
	mu      sync.RWMutex
	handles map[string]string
}

func NewDirectory(handles ...string) *Directory {
	d := &Directory{handles: make(map[string]string, len(handles))}
	for _, h := range handles {
		d.Add(h)
	}
	return d
}

func (d *Directory) Add(handle string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handles[strings.ToLower(handle)] = handle
}

func (d *Directory) Lookup(ctx context.Context, handle string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	stored, ok := d.handles[strings.ToLower(handle)]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return models.Account{Handle: stored}, nil
}
