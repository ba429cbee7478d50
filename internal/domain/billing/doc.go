// Package billing holds plan pricing, discount coupons and the payment
// transactions that pay for subscriptions and product boosts.
package billing
