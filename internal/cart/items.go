package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product describes a purchasable item referenced by mutation operations.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineItem is one product entry held by a cart.
type LineItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

// Items is the ordered contents of a cart. Insertion order carries no
// semantic meaning but is preserved for display stability.
type Items []LineItem

// Total returns sum(price*qty) across all line items rounded to two
// decimal places. It is always derived from the items, never stored.
func (its Items) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range its {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return total.Round(2)
}

// Clone returns an independent copy of the items.
func (its Items) Clone() Items {
	if its == nil {
		return nil
	}
	out := make(Items, len(its))
	copy(out, its)
	return out
}

// Equal reports whether both carts hold the same line items in the same
// order. Prices compare by value, not representation.
func (its Items) Equal(other Items) bool {
	if len(its) != len(other) {
		return false
	}
	for i := range its {
		a, b := its[i], other[i]
		if a.ID != b.ID || a.Name != b.Name || a.Qty != b.Qty || !a.Price.Equal(b.Price) {
			return false
		}
	}
	return true
}

func (its Items) index(id string) int {
	for i := range its {
		if its[i].ID == id {
			return i
		}
	}
	return -1
}

// encodeItems serialises the cart into its persisted wire format: a JSON
// array of line item objects, empty carts as an empty array.
func encodeItems(its Items) ([]byte, error) {
	if its == nil {
		its = Items{}
	}
	data, err := json.Marshal(its)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return data, nil
}

func decodeItems(data []byte) (Items, error) {
	var its Items
	if err := json.Unmarshal(data, &its); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if its == nil {
		its = Items{}
	}
	return its, nil
}
