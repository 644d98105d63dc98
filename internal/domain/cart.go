package domain

import (
	"github.com/shopspring/decimal"
)

// Product describes something that can be put into the cart.
// Quantity is accepted for compatibility with catalog payloads but is ignored when adding.
type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
	Quantity int
}

type CartItem struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
	Quantity int
}

func NewCartItem(p Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	}
}

// IndexOf returns the position of the item with the given id or -1.
func IndexOf(items []CartItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}

	return -1
}
