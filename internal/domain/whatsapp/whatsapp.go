// Package whatsapp builds wa.me links and the message bodies WaZhop sends or
// pre-fills for buyers and sellers.
package whatsapp

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultCountryPrefix is prepended to local Nigerian numbers
const DefaultCountryPrefix = "234"

var (
	nonDigits           = regexp.MustCompile(`\D`)
	internationalNumber = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// NormalizeNumber strips formatting and adds the Nigerian country code to
// local numbers: 08012345678 and 8012345678 both become 2348012345678.
// Returns "" for empty input.
func NormalizeNumber(phone string) string {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	if cleaned == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(cleaned, "0"):
		cleaned = DefaultCountryPrefix + cleaned[1:]
	case !strings.HasPrefix(cleaned, DefaultCountryPrefix) && len(cleaned) == 10:
		cleaned = DefaultCountryPrefix + cleaned
	}
	return cleaned
}

// IsValidInternationalNumber reports whether phone looks like an E.164 number
func IsValidInternationalNumber(phone string) bool {
	return internationalNumber.MatchString(strings.TrimSpace(phone))
}

// ChatLink returns a wa.me deep link that opens a chat with number,
// optionally pre-filled with message.
func ChatLink(number, message string) string {
	link := "https://wa.me/" + nonDigits.ReplaceAllString(number, "")
	if message == "" {
		return link
	}
	return link + "?text=" + encodeText(message)
}

// StatusShareLink returns a deep link that shares a product to WhatsApp Status
func StatusShareLink(productName, productURL string) string {
	text := fmt.Sprintf("Check out %s! 🛍️\n%s", productName, productURL)
	return "whatsapp://status?text=" + encodeText(text)
}

// ProductInquiryMessage is the pre-filled text for a buyer asking about a
// product. approxUSD may be empty.
func ProductInquiryMessage(productName, localPrice, approxUSD string) string {
	msg := fmt.Sprintf("Hello! I'm interested in your product: %s\nPrice: %s", productName, localPrice)
	if approxUSD != "" {
		msg += " " + approxUSD
	}
	return msg
}

// ProductDetailsMessage asks the seller for more details about a product page
func ProductDetailsMessage(productName, productURL string) string {
	return fmt.Sprintf("Hi! I'm interested in *%s*\n\n%s\n\nCan you provide more details?", productName, productURL)
}

// OrderConfirmationMessage is sent to the buyer when an order is placed
func OrderConfirmationMessage(orderNumber, total string, itemCount int, trackingURL string) string {
	return fmt.Sprintf(
		"🎉 *Order Confirmed!*\n\nOrder #%s\nTotal: %s\nItems: %d\n\nWe'll notify you when your order is ready for delivery.\n\nTrack your order: %s",
		orderNumber, total, itemCount, trackingURL,
	)
}

var statusLines = map[string]string{
	"processing": "⏳ Your order is being processed",
	"shipped":    "🚚 Your order has been shipped",
	"delivered":  "✅ Your order has been delivered",
	"cancelled":  "❌ Your order has been cancelled",
}

// OrderStatusMessage is sent to the buyer when the seller moves an order along
func OrderStatusMessage(orderNumber, status, additionalInfo string) string {
	line, ok := statusLines[status]
	if !ok {
		line = "Status: " + status
	}
	extra := ""
	if additionalInfo != "" {
		extra = additionalInfo + "\n\n"
	}
	return fmt.Sprintf("*Order #%s*\n\n%s\n\n%sThank you for shopping with us!", orderNumber, line, extra)
}

// NewOrderSellerMessage notifies a seller that a new order came in
func NewOrderSellerMessage(shopName, orderNumber, customerName, total string, itemCount int) string {
	return fmt.Sprintf(
		"🛍️ *New order on %s*\n\nOrder #%s\nCustomer: %s\nItems: %d\nTotal: %s",
		shopName, orderNumber, customerName, itemCount, total,
	)
}

// uriComponent undoes the escapes url.QueryEscape adds beyond encodeURIComponent
var uriComponent = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeText escapes like a URI component: spaces become %20 and !'()* stay as is
func encodeText(s string) string {
	return uriComponent.Replace(url.QueryEscape(s))
}
