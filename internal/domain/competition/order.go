package competition

import (
	"errors"
	"time"

	"github.com/tradearena/backend/internal/id"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

var (
	ErrInsufficientCash  = errors.New("insufficient cash")
	ErrInsufficientShare = errors.New("insufficient position")
)

// Order is a filled market order inside an entry. There is no order book;
// orders execute immediately at the submitted price.
type Order struct {
	ID       string
	EntryID  string
	Symbol   string
	Side     Side
	Quantity int64
	Price    int64 // cents per unit
	PlacedAt time.Time
}

func NewOrder(entryID, symbol string, side Side, quantity, price int64) *Order {
	return &Order{
		ID:       id.GenerateID(),
		EntryID:  entryID,
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		PlacedAt: time.Now().UTC(),
	}
}

func (o *Order) Cost() int64 {
	return o.Quantity * o.Price
}

// Apply settles the order against the entry's cash balance. held is the
// entry's current position in the order's symbol.
func (o *Order) Apply(e *Entry, held int64) error {
	switch o.Side {
	case SideBuy:
		if o.Cost() > e.Cash {
			return ErrInsufficientCash
		}
		e.Cash -= o.Cost()
	case SideSell:
		if o.Quantity > held {
			return ErrInsufficientShare
		}
		e.Cash += o.Cost()
	}
	return nil
}
