package storefront

import (
	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/storefront"
)

// CreateShopInput contains the input for opening a shop
type CreateShopInput struct {
	OwnerID     uuid.UUID
	ShopName    string
	Description string
	Category    storefront.Category
	Location    string
}

// UpdateShopInput is a partial shop change
type UpdateShopInput struct {
	storefront.ShopUpdate
	PaymentSettings *storefront.PaymentSettings
}

// ThemesResult lists the themes a plan may use
type ThemesResult struct {
	Themes       []storefront.Theme `json:"themes"`
	CanCustomize bool               `json:"can_customize"`
	Plan         identity.Plan      `json:"plan"`
}

// DomainSetup tells the seller which TXT record to publish
type DomainSetup struct {
	Domain string `json:"domain"`
	Token  string `json:"verification_token"`
	Host   string `json:"txt_host"`
}

// StorefrontView is a public shop with its active products
type StorefrontView struct {
	Shop     *storefront.Shop   `json:"shop"`
	Products []*catalog.Product `json:"products"`
}
