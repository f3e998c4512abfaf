package workflow

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JinFuuMugen/coinshop/internal/models"
)

var printer = message.NewPrinter(language.English)

type CustomView struct {
	Buffer    string `json:"buffer"`
	Amount    int64  `json:"amount"`
	Price     string `json:"price"`
	CanCommit bool   `json:"can_commit"`
}

// View is a copy of everything a presenter needs to draw the flow. Fields
// belonging to other screens are left empty.
type View struct {
	Screen        Screen                `json:"screen"`
	Search        string                `json:"search"`
	Loading       bool                  `json:"loading"`
	Account       *models.Account       `json:"account,omitempty"`
	LookupError   string                `json:"lookup_error,omitempty"`
	SelectedIndex int                   `json:"selected_index"`
	SelectedPack  *models.CoinPack      `json:"selected_pack,omitempty"`
	CanBuy        bool                  `json:"can_buy"`
	BuyLabel      string                `json:"buy_label"`
	Custom        *CustomView           `json:"custom,omitempty"`
	Order         *models.Order         `json:"order,omitempty"`
	Origin        models.Origin         `json:"origin,omitempty"`
	PaymentMethod *models.PaymentMethod `json:"payment_method,omitempty"`
	PaymentError  string                `json:"payment_error,omitempty"`
	Countdown     string                `json:"countdown,omitempty"`
	Receipt       *models.Receipt       `json:"receipt,omitempty"`
	Message       string                `json:"message,omitempty"`
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Screen:        c.state.Screen(),
		Search:        c.search,
		Loading:       c.resolver.Loading(),
		LookupError:   c.lookupMsg,
		SelectedIndex: c.selected,
		BuyLabel:      "Select pack",
	}

	if c.account != nil {
		acct := *c.account
		v.Account = &acct
	}
	if c.method != nil {
		m := *c.method
		v.PaymentMethod = &m
	}

	if c.selected >= 0 {
		if item, err := c.catalog.Item(c.selected); err == nil && !item.Custom {
			pack := item.Pack
			v.SelectedPack = &pack
			v.BuyLabel = "Buy for " + pack.Price
		}
	}
	v.CanBuy = v.Screen == ScreenBrowsing && v.SelectedPack != nil && v.Account != nil

	switch s := c.state.(type) {
	case CustomEntry:
		v.Custom = &CustomView{
			Buffer:    c.pad.Buffer(),
			Amount:    c.pad.Amount(),
			Price:     c.pad.Price(),
			CanCommit: c.pad.CanCommit(),
		}
	case OrderReview:
		order := s.Order
		v.Order = &order
		v.Origin = s.Origin
		if c.paymentErr != nil {
			v.PaymentError = c.paymentErr.Error()
		}
	case Processing:
		order := s.Order
		v.Order = &order
		v.Origin = s.Origin
		v.Countdown = c.countdown.String()
	case Success:
		receipt := s.Receipt
		v.Receipt = &receipt
		v.Message = ReceiptMessage(receipt)
	}

	return v
}

// ReceiptMessage is the confirmation line shown after a settled payment.
func ReceiptMessage(r models.Receipt) string {
	return printer.Sprintf("%d Coins were sent to @%s", r.Coins, r.Handle)
}
