package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"08012345678", "2348012345678"},
		{"+234 801 234 5678", "2348012345678"},
		{"8012345678", "2348012345678"},
		{"254712345678", "254712345678"},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNumber(tt.in))
		})
	}
}

func TestIsValidInternationalNumber(t *testing.T) {
	assert.True(t, IsValidInternationalNumber("+2348012345678"))
	assert.True(t, IsValidInternationalNumber("2348012345678"))
	assert.False(t, IsValidInternationalNumber("08012345678"))
	assert.False(t, IsValidInternationalNumber("+234-801"))
}

func TestChatLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/2348012345678", ChatLink("+234 801 234 5678", ""))

	link := ChatLink("2348012345678", "Hello there\nPrice: ₦1,500")
	require.True(t, strings.HasPrefix(link, "https://wa.me/2348012345678?text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hello there\nPrice: ₦1,500", u.Query().Get("text"))
}

func TestEncodeText(t *testing.T) {
	assert.Equal(t, "Hello!%20Is%20it%20(still)%20available%3F", encodeText("Hello! Is it (still) available?"))
	assert.Equal(t, "Ada's%20*new*%20wrap", encodeText("Ada's *new* wrap"))
	assert.Equal(t, "a%2Bb%20%26%20c%3Dd", encodeText("a+b & c=d"))
	assert.Equal(t, "%E2%82%A61%2C500", encodeText("₦1,500"))
}

func TestProductInquiryMessage(t *testing.T) {
	assert.Equal(t,
		"Hello! I'm interested in your product: Ankara Dress\nPrice: ₦15,000 ≈ $10.00 USD",
		ProductInquiryMessage("Ankara Dress", "₦15,000", "≈ $10.00 USD"),
	)
	assert.Equal(t,
		"Hello! I'm interested in your product: Ankara Dress\nPrice: $10.00 USD",
		ProductInquiryMessage("Ankara Dress", "$10.00 USD", ""),
	)
}

func TestOrderStatusMessage(t *testing.T) {
	msg := OrderStatusMessage("WZ25010001", "shipped", "Rider: Musa")
	assert.Equal(t, "*Order #WZ25010001*\n\n🚚 Your order has been shipped\n\nRider: Musa\n\nThank you for shopping with us!", msg)

	assert.Contains(t, OrderStatusMessage("WZ1", "refunded", ""), "Status: refunded\n\nThank you")
}

func TestStatusShareLink(t *testing.T) {
	link := StatusShareLink("Sneakers", "https://wazhop.ng/shop/p/1")
	assert.True(t, strings.HasPrefix(link, "whatsapp://status?text="))
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Check out Sneakers! 🛍️\nhttps://wazhop.ng/shop/p/1", u.Query().Get("text"))
}
