// Package cart holds shopping carts and the per-shop WhatsApp checkout.
package cart

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/currency"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/whatsapp"
)

// MaxQuantity caps a single line
const MaxQuantity = 999

// ShopRef is the shop snapshot stored on a cart line
type ShopRef struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	WhatsAppNumber string    `json:"whatsapp_number"`
}

// Variant is a chosen product option set, e.g. {"Size": "M"}
type Variant struct {
	Options map[string]string `json:"options,omitempty"`
	Price   *decimal.Decimal  `json:"price,omitempty"`
}

// key renders options in a stable order
func (v *Variant) key() string {
	if v == nil || len(v.Options) == 0 {
		return ""
	}
	names := make([]string, 0, len(v.Options))
	for k := range v.Options {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + v.Options[k]
	}
	return strings.Join(parts, ";")
}

// values lists option values in name order
func (v *Variant) values() []string {
	if v == nil || len(v.Options) == 0 {
		return nil
	}
	names := make([]string, 0, len(v.Options))
	for k := range v.Options {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]string, len(names))
	for i, k := range names {
		out[i] = v.Options[k]
	}
	return out
}

// Item is one cart line
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
	Image     string          `json:"image,omitempty"`
	Shop      ShopRef         `json:"shop"`
	Quantity  int             `json:"quantity"`
	Variant   *Variant        `json:"variant,omitempty"`
}

// Price is the variant override or the unit price
func (i Item) Price() decimal.Decimal {
	if i.Variant != nil && i.Variant.Price != nil {
		return *i.Variant.Price
	}
	return i.UnitPrice
}

// LineTotal is price times quantity
func (i Item) LineTotal() decimal.Decimal {
	return i.Price().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) matches(productID uuid.UUID, variantKey string) bool {
	return i.ProductID == productID && i.Variant.key() == variantKey
}

// Cart is keyed by a user ID or an anonymous session ID
type Cart struct {
	Owner     string    `json:"owner"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty cart for owner
func New(owner string) *Cart {
	return &Cart{Owner: owner, Items: []Item{}, UpdatedAt: time.Now()}
}

// Add puts item in the cart, merging with a line for the same product and variant
func (c *Cart) Add(item Item) error {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Product is required")
	}
	if item.Currency == "" {
		item.Currency = currency.DefaultCurrency
	}
	if v := item.Variant; v != nil && v.Price != nil {
		if v.Price.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT", "Variant price cannot be negative")
		}
		if v.Price.IsZero() {
			item.Variant = &Variant{Options: v.Options}
		}
	}
	key := item.Variant.key()
	for idx := range c.Items {
		if c.Items[idx].matches(item.ProductID, key) {
			q := c.Items[idx].Quantity + item.Quantity
			if q > MaxQuantity {
				return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))
			}
			c.Items[idx].Quantity = q
			c.touch()
			return nil
		}
	}
	if item.Quantity > MaxQuantity {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))
	}
	c.Items = append(c.Items, item)
	c.touch()
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes it
func (c *Cart) UpdateQuantity(productID uuid.UUID, variant *Variant, qty int) error {
	if qty <= 0 {
		return c.Remove(productID, variant)
	}
	if qty > MaxQuantity {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))
	}
	key := variant.key()
	for idx := range c.Items {
		if c.Items[idx].matches(productID, key) {
			c.Items[idx].Quantity = qty
			c.touch()
			return nil
		}
	}
	return shared.NotFound("Cart item")
}

// Remove drops a line
func (c *Cart) Remove(productID uuid.UUID, variant *Variant) error {
	key := variant.key()
	for idx := range c.Items {
		if c.Items[idx].matches(productID, key) {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			c.touch()
			return nil
		}
	}
	return shared.NotFound("Cart item")
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.touch()
}

// RemoveShop drops every line from shopID
func (c *Cart) RemoveShop(shopID uuid.UUID) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.Shop.ID != shopID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.touch()
}

// Count sums quantities
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Total sums line totals regardless of currency
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

// ShopGroup is the part of a cart ordered from one shop
type ShopGroup struct {
	Shop     ShopRef         `json:"shop"`
	Items    []Item          `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// GroupByShop splits the cart per shop in first-seen order
func (c *Cart) GroupByShop() []ShopGroup {
	index := make(map[uuid.UUID]int)
	groups := make([]ShopGroup, 0)
	for _, it := range c.Items {
		i, ok := index[it.Shop.ID]
		if !ok {
			i = len(groups)
			index[it.Shop.ID] = i
			groups = append(groups, ShopGroup{Shop: it.Shop, Total: decimal.Zero, Currency: it.Currency})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Total = groups[i].Total.Add(it.LineTotal())
	}
	return groups
}

// Checkout is the WhatsApp order message for one shop
type Checkout struct {
	Shop    ShopRef `json:"shop"`
	Message string  `json:"message"`
	Link    string  `json:"link,omitempty"`
	// Available is false when the shop has no WhatsApp number
	Available bool `json:"available"`
}

// Message composes the order text for the group
func (g ShopGroup) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello! I'd like to order the following items from %s:\n\n", g.Shop.Name)
	for n, it := range g.Items {
		name := it.Name
		if vals := it.Variant.values(); len(vals) > 0 {
			name += " (" + strings.Join(vals, ", ") + ")"
		}
		fmt.Fprintf(&b, "%d. %s - Qty: %d - %s each\n", n+1, name, it.Quantity, currency.Format(it.Price(), g.Currency))
	}
	fmt.Fprintf(&b, "\nTotal: %s", currency.Format(g.Total, g.Currency))
	return b.String()
}

// WhatsAppCheckout builds one checkout per shop group
func (c *Cart) WhatsAppCheckout() []Checkout {
	groups := c.GroupByShop()
	out := make([]Checkout, 0, len(groups))
	for _, g := range groups {
		msg := g.Message()
		number := whatsapp.NormalizeNumber(g.Shop.WhatsAppNumber)
		co := Checkout{Shop: g.Shop, Message: msg, Available: number != ""}
		if co.Available {
			co.Link = whatsapp.ChatLink(number, msg)
		}
		out = append(out, co)
	}
	return out
}
