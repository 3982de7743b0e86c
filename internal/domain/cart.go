package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line in a cart. There is at most one line per product;
// adding a product that is already present increments the quantity instead.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CartSession is the per-visitor checkout state: cart lines, the shipping
// destination, and the current delivery quote with its selection. It lives
// for the duration of the session only.
type CartSession struct {
	ID              string           `json:"id"`
	Items           []CartItem       `json:"items"`
	ShippingAddress *Address         `json:"shipping_address,omitempty"`
	QuoteID         string           `json:"quote_id,omitempty"`
	Options         []DeliveryOption `json:"options"`
	SelectedID      string           `json:"selected_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AddItem merges the item into the cart. An existing line for the same
// product gains the item's quantity; otherwise a new line is appended.
func (c *CartSession) AddItem(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// RemoveItem deletes the line for the product entirely. Returns false if no
// such line exists.
func (c *CartSession) RemoveItem(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity replaces the quantity on an existing line. Quantities below 1
// are rejected by the service layer; a line is never left at zero.
func (c *CartSession) SetQuantity(productID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Subtotal is the sum of price x quantity over all lines, excluding delivery.
func (c *CartSession) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// ItemCount is the total unit count across all lines, for UI badges.
func (c *CartSession) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// SelectedOption returns the currently selected delivery option, or nil when
// none is selected.
func (c *CartSession) SelectedOption() *DeliveryOption {
	if c.SelectedID == "" {
		return nil
	}
	for i := range c.Options {
		if c.Options[i].ID == c.SelectedID {
			return &c.Options[i]
		}
	}
	return nil
}

// ShippingCost is the selected option's price, or zero when nothing is
// selected.
func (c *CartSession) ShippingCost() decimal.Decimal {
	if opt := c.SelectedOption(); opt != nil {
		return opt.Price
	}
	return decimal.Zero
}

// Total is subtotal plus the selected delivery price.
func (c *CartSession) Total() decimal.Decimal {
	return c.Subtotal().Add(c.ShippingCost())
}

// ApplyQuote replaces the delivery options with a fresh quote. Any prior
// selection is cleared first: identifiers from a superseded quote must never
// remain selectable. The cheapest option (first in ranked order) becomes the
// default selection; an empty quote leaves the selection empty.
func (c *CartSession) ApplyQuote(quoteID string, ranked []DeliveryOption) {
	c.QuoteID = quoteID
	c.Options = ranked
	c.SelectedID = ""
	if len(ranked) > 0 {
		c.SelectedID = ranked[0].ID
	}
}

// SelectOption switches the selection to the given option. Returns false if
// the identifier does not belong to the current quote.
func (c *CartSession) SelectOption(optionID string) bool {
	for _, opt := range c.Options {
		if opt.ID == optionID {
			c.SelectedID = optionID
			return true
		}
	}
	return false
}

// ResetShipping discards the current quote and selection, e.g. when the
// visitor goes back to edit the destination address.
func (c *CartSession) ResetShipping() {
	c.QuoteID = ""
	c.Options = nil
	c.SelectedID = ""
}

// Clear empties the cart and shipping state after an order is placed.
func (c *CartSession) Clear() {
	c.Items = nil
	c.ResetShipping()
}
