package catalog

import (
	"errors"
	"fmt"

	"github.com/JinFuuMugen/coinshop/internal/models"
)

var ErrUnknownPack = errors.New("unknown pack")

var defaultPacks = []models.CoinPack{
	{Coins: 20, Price: "0.39 $"},
	{Coins: 70, Price: "1.29 $"},
	{Coins: 350, Price: "6.00 $"},
	{Coins: 700, Price: "12.00 $"},
	{Coins: 1400, Price: "24.00 $"},
	{Coins: 3500, Price: "60.00 $"},
	{Coins: 7000, Price: "120.99 $"},
	{Coins: 17500, Price: "300.00 $"},
}

// Item is one selectable entry. The last item of every catalog is the
// Custom sentinel, which carries no pack.
type Item struct {
	Pack   models.CoinPack
	Custom bool
}

type Catalog struct {
	items []Item
}

func Default() *Catalog {
	c, _ := New(defaultPacks)
	return c
}

func New(packs []models.CoinPack) (*Catalog, error) {
	if len(packs) == 0 {
		return nil, errors.New("catalog needs at least one pack")
	}

	items := make([]Item, 0, len(packs)+1)
	for i, p := range packs {
		if p.Coins <= 0 {
			return nil, fmt.Errorf("pack %d: coins must be positive", i)
		}
		if p.Price == "" {
			return nil, fmt.Errorf("pack %d: empty price", i)
		}
		items = append(items, Item{Pack: p})
	}
	items = append(items, Item{Custom: true})

	return &Catalog{items: items}, nil
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) Item(index int) (Item, error) {
	if index < 0 || index >= len(c.items) {
		return Item{}, fmt.Errorf("%w: index %d", ErrUnknownPack, index)
	}
	return c.items[index], nil
}

// First returns the pack that is pre-selected on a fresh flow.
func (c *Catalog) First() models.CoinPack {
	return c.items[0].Pack
}

func (c *Catalog) CustomIndex() int {
	return len(c.items) - 1
}

func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Listing() []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(c.items))
	for i, it := range c.items {
		out = append(out, models.CatalogItem{
			Index:  i,
			Custom: it.Custom,
			Coins:  it.Pack.Coins,
			Price:  it.Pack.Price,
		})
	}
	return out
}
