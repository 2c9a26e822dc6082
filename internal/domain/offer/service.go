package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Calculator resolves an offer by ID and computes its discount for a cart
// snapshot.
type Calculator interface {
	CalculateByID(ctx context.Context, offerID string, items []Item) (*Result, *Offer, error)
}

// RepoCalculator implements Calculator by looking up offers from a Repository
// and applying them via Calculate.
type RepoCalculator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoCalculator creates a RepoCalculator backed by the given Repository.
func NewRepoCalculator(repo Repository) *RepoCalculator {
	return &RepoCalculator{repo: repo, now: time.Now}
}

// CalculateByID looks up the offer and computes the discount for the given
// items. It returns ErrNotFound when the offer does not exist; business
// failures (ineligibility, missing configuration) come back as a zero-discount
// Result, not an error.
func (c *RepoCalculator) CalculateByID(ctx context.Context, offerID string, items []Item) (*Result, *Offer, error) {
	o, err := c.repo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.Wrap(err, "lookup offer")
	}

	res := Calculate(o, items, c.now())
	return &res, o, nil
}
