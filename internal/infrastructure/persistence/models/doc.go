// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Nested value objects (themes, payment settings, order items, coupon usages) are
// stored as JSON columns through GORM's json serializer so that the same models
// work against PostgreSQL and the SQLite databases used in tests.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - identity.go: users
// - storefront.go: shops
// - catalog.go: products and reviews
// - order.go: orders
// - billing.go: coupons and payment transactions
// - settings.go: the platform settings row
package models
