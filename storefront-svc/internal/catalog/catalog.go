package catalog

import (
	"errors"
	"strings"

	"storefront/storefront-svc/internal/domain"
)

const AllCategories = "All"

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrDishNotFound       = errors.New("dish not found")
)

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	restaurants []domain.Restaurant
	dishes      map[int]dishEntry
}

type dishEntry struct {
	dish       domain.Dish
	restaurant string
}

func New(restaurants []domain.Restaurant) *Catalog {
	c := &Catalog{
		restaurants: restaurants,
		dishes:      make(map[int]dishEntry),
	}
	for _, rest := range restaurants {
		for _, dish := range rest.Dishes {
			c.dishes[dish.ID] = dishEntry{dish: dish, restaurant: rest.Name}
		}
	}
	return c
}

func Default() *Catalog {
	return New(seedRestaurants())
}

func (c *Catalog) Restaurants() []domain.Restaurant {
	out := make([]domain.Restaurant, len(c.restaurants))
	copy(out, c.restaurants)
	return out
}

func (c *Catalog) Restaurant(id int) (*domain.Restaurant, error) {
	for i := range c.restaurants {
		if c.restaurants[i].ID == id {
			rest := c.restaurants[i]
			return &rest, nil
		}
	}
	return nil, ErrRestaurantNotFound
}

// Dish returns the dish and the name of the restaurant that serves it.
func (c *Catalog) Dish(id int) (domain.Dish, string, error) {
	entry, ok := c.dishes[id]
	if !ok {
		return domain.Dish{}, "", ErrDishNotFound
	}
	return entry.dish, entry.restaurant, nil
}

func (c *Catalog) Categories() []string {
	categories := []string{AllCategories}
	seen := map[string]bool{}
	for _, rest := range c.restaurants {
		if seen[rest.Category] {
			continue
		}
		seen[rest.Category] = true
		categories = append(categories, rest.Category)
	}
	return categories
}

// Search filters by exact category (empty or "All" matches everything) and
// then by a case-insensitive term over name, description and cuisine.
func (c *Catalog) Search(category, term string) []domain.Restaurant {
	term = strings.ToLower(strings.TrimSpace(term))

	result := []domain.Restaurant{}
	for _, rest := range c.restaurants {
		if category != "" && category != AllCategories && rest.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(rest.Name), term) &&
			!strings.Contains(strings.ToLower(rest.Description), term) &&
			!strings.Contains(strings.ToLower(rest.Cuisine), term) {
			continue
		}
		result = append(result, rest)
	}
	return result
}
