package catalog

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/shared"
)

var reviewEmailRegex = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Review is a customer rating of a product
type Review struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	ShopID        uuid.UUID
	CustomerName  string
	CustomerEmail string
	Rating        int
	Comment       string
	Image         string
	IsVerified    bool
	IsApproved    bool
	Helpful       int
}

// ReviewInput carries the fields a customer submits
type ReviewInput struct {
	CustomerName  string
	CustomerEmail string
	Rating        int
	Comment       string
	Image         string
}

// NewReview creates an approved review for product
func NewReview(product *Product, in ReviewInput) (*Review, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer name is required")
	}
	if len([]rune(name)) > 100 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Name cannot exceed 100 characters")
	}
	email := strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	if email != "" && !reviewEmailRegex.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Please provide a valid email")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if n := len([]rune(comment)); n < 10 || n > 1000 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Comment must be between 10 and 1000 characters")
	}
	return &Review{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     product.ID,
		ShopID:        product.ShopID,
		CustomerName:  name,
		CustomerEmail: email,
		Rating:        in.Rating,
		Comment:       comment,
		Image:         strings.TrimSpace(in.Image),
		IsApproved:    true,
	}, nil
}

// SetApproved approves or hides the review
func (r *Review) SetApproved(approved bool) {
	r.IsApproved = approved
	r.UpdatedAt = time.Now()
}

// MarkHelpful counts a helpful vote
func (r *Review) MarkHelpful() {
	r.Helpful++
}

// RatingSummary is the aggregate of approved reviews of a product
type RatingSummary struct {
	Average float64 `json:"average_rating"`
	Count   int     `json:"num_reviews"`
}

// Summarize averages the approved reviews, rounded to one decimal
func Summarize(reviews []*Review) RatingSummary {
	var sum, n int
	for _, r := range reviews {
		if !r.IsApproved {
			continue
		}
		sum += r.Rating
		n++
	}
	if n == 0 {
		return RatingSummary{}
	}
	return RatingSummary{
		Average: math.Round(float64(sum)/float64(n)*10) / 10,
		Count:   n,
	}
}

// RatingDistribution counts approved reviews per star, index 1..5
func RatingDistribution(reviews []*Review) [6]int {
	var dist [6]int
	for _, r := range reviews {
		if r.IsApproved && r.Rating >= 1 && r.Rating <= 5 {
			dist[r.Rating]++
		}
	}
	return dist
}
