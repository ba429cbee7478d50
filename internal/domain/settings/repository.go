package settings

import "context"

// Repository loads and stores the platform settings document
type Repository interface {
	// Get returns the stored settings, creating the defaults on first use
	Get(ctx context.Context) (*Platform, error)
	Save(ctx context.Context, p *Platform) error
}
