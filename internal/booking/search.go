package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/internaltypes"
)

// Criteria filters the catalog. Empty strings and nil pointers match all.
type Criteria struct {
	Cuisine    string
	Location   string
	MaxPrice   *int
	MinSeating *int
	// Limit caps the result count; zero means no cap.
	Limit int
}

func (c Criteria) validate() error {
	if c.MaxPrice != nil && *c.MaxPrice <= 0 {
		return fmt.Errorf("%w: price range must be positive (got %d)", internaltypes.ErrInvalidArgument, *c.MaxPrice)
	}
	if c.MinSeating != nil && *c.MinSeating <= 0 {
		return fmt.Errorf("%w: seating must be positive (got %d)", internaltypes.ErrInvalidArgument, *c.MinSeating)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: negative limit", internaltypes.ErrInvalidArgument)
	}
	return nil
}

func (c Criteria) match(r restaurant.Restaurant) bool {
	if c.Cuisine != "" && !strings.EqualFold(r.Cuisine, c.Cuisine) {
		return false
	}
	if c.Location != "" && !strings.Contains(strings.ToLower(r.Location), strings.ToLower(c.Location)) {
		return false
	}
	if c.MaxPrice != nil && r.PriceRange > *c.MaxPrice {
		return false
	}
	if c.MinSeating != nil && r.LargestTable() < *c.MinSeating {
		return false
	}
	return true
}

// Search returns the restaurants matching every supplied filter in catalog order.
func (e *Engine) Search(ctx context.Context, c Criteria) ([]restaurant.Restaurant, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	all, err := e.store.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	var out []restaurant.Restaurant
	for _, r := range all {
		if !c.match(r) {
			continue
		}
		out = append(out, r)
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
	}
	return out, nil
}
