package workflow

import (
	"github.com/JinFuuMugen/coinshop/internal/models"
)

type Screen string

const (
	ScreenBrowsing    Screen = "browsing"
	ScreenCustomEntry Screen = "custom_entry"
	ScreenOrderReview Screen = "order_review"
	ScreenProcessing  Screen = "processing"
	ScreenSuccess     Screen = "success"
)

// State is the visible screen together with the data only that screen
// owns. Exactly one of the types below is current at any time.
type State interface {
	Screen() Screen
	isState()
}

type Browsing struct{}

type CustomEntry struct{}

type OrderReview struct {
	Order  models.Order
	Origin models.Origin
}

type Processing struct {
	Order  models.Order
	Origin models.Origin
}

type Success struct {
	Receipt models.Receipt
}

func (Browsing) Screen() Screen    { return ScreenBrowsing }
func (CustomEntry) Screen() Screen { return ScreenCustomEntry }
func (OrderReview) Screen() Screen { return ScreenOrderReview }
func (Processing) Screen() Screen  { return ScreenProcessing }
func (Success) Screen() Screen     { return ScreenSuccess }

func (Browsing) isState()    {}
func (CustomEntry) isState() {}
func (OrderReview) isState() {}
func (Processing) isState()  {}
func (Success) isState()     {}
