package domain

import "github.com/shopspring/decimal"

// CartLine is one row of the shopping cart: a single purchasable variant
// the customer intends to buy. The backend owns every field except
// Selected, which lives only in the gateway's in-memory copy and resets
// to true on every reload.
type CartLine struct {
	CartID                string          `json:"cartId"`
	VariantID             string          `json:"variantId"`
	ProductID             string          `json:"productId"`
	ProductName           string          `json:"productName"`
	ImageURL              string          `json:"imageUrl"`
	AttributesDescription string          `json:"attributesDescription"`
	CurrentPrice          decimal.Decimal `json:"currentPrice"`
	OriginalPrice         decimal.Decimal `json:"originalPrice"`
	PriceChanged          bool            `json:"priceChanged"`
	Quantity              int             `json:"quantity"`
	StockQuantity         int             `json:"stockQuantity"`
	Selected              bool            `json:"selected"`
}

// LineTotal is CurrentPrice * Quantity. Totals always use the live price,
// so price drift since the line was added shows up in the subtotal.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.CurrentPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
