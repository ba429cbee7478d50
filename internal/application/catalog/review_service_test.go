package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
)

func review(p *catalog.Product, email string, rating int) CreateReviewInput {
	return CreateReviewInput{
		ProductID: p.ID,
		ReviewInput: catalog.ReviewInput{
			CustomerName:  "Chioma",
			CustomerEmail: email,
			Rating:        rating,
			Comment:       "Lovely fabric and quick delivery",
		},
	}
}

func TestReviewService_CreateAndRating(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := f.seller(t, "ada@example.com", identity.PlanFree)
	shop := f.shop(t, owner, "ada", "")
	p := f.product(t, owner, shop, "Ankara Dress")

	_, err := f.reviews.Create(ctx, review(p, "one@example.com", 5))
	require.NoError(t, err)
	_, err = f.reviews.Create(ctx, review(p, "two@example.com", 4))
	require.NoError(t, err)

	stored, err := f.prodRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.NumReviews)
	assert.InDelta(t, 4.5, stored.AverageRating, 0.001)

	_, err = f.reviews.Create(ctx, review(p, "ONE@example.com", 3))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	page, err := f.reviews.ForProduct(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Summary.Count)
	assert.Equal(t, 1, page.Distribution[5])
	assert.Equal(t, 1, page.Distribution[4])
}

func TestReviewService_Validation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := f.seller(t, "ada@example.com", identity.PlanFree)
	shop := f.shop(t, owner, "ada", "")
	p := f.product(t, owner, shop, "Ankara Dress")

	in := review(p, "x@example.com", 6)
	_, err := f.reviews.Create(ctx, in)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	in = review(p, "x@example.com", 4)
	in.Comment = "short"
	_, err = f.reviews.Create(ctx, in)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestReviewService_Disabled(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := f.seller(t, "ada@example.com", identity.PlanFree)
	shop := f.shop(t, owner, "ada", "")
	p := f.product(t, owner, shop, "Ankara Dress")

	platform, err := f.settings.Get(ctx)
	require.NoError(t, err)
	platform.Features.EnableReviews = false
	require.NoError(t, f.settings.Save(ctx, platform))

	_, err = f.reviews.Create(ctx, review(p, "one@example.com", 5))
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestReviewService_Moderation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := f.seller(t, "ada@example.com", identity.PlanFree)
	other := f.seller(t, "bob@example.com", identity.PlanFree)
	shop := f.shop(t, owner, "ada", "")
	f.shop(t, other, "bob", "")
	p := f.product(t, owner, shop, "Ankara Dress")

	r1, err := f.reviews.Create(ctx, review(p, "one@example.com", 5))
	require.NoError(t, err)
	r2, err := f.reviews.Create(ctx, review(p, "two@example.com", 1))
	require.NoError(t, err)

	_, err = f.reviews.SetApproved(ctx, other.ID, r2.ID, false)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	hidden, err := f.reviews.SetApproved(ctx, owner.ID, r2.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.IsApproved)

	stored, err := f.prodRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NumReviews)
	assert.InDelta(t, 5.0, stored.AverageRating, 0.001)

	public, err := f.reviews.ForProduct(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, public.Items, 1)

	mine, err := f.reviews.ForShop(ctx, owner.ID, nil, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)
	assert.Equal(t, 1, mine.Summary.Count)

	helpful, err := f.reviews.MarkHelpful(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, helpful.Helpful)

	assert.ErrorIs(t, f.reviews.Delete(ctx, other.ID, r1.ID), shared.ErrForbidden)
	require.NoError(t, f.reviews.Delete(ctx, owner.ID, r1.ID))
	stored, err = f.prodRepo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.NumReviews)
}
