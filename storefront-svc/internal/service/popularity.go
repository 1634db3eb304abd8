package service

import (
	"context"

	"storefront/storefront-svc/internal/catalog"
	"storefront/storefront-svc/internal/domain"
)

type PopularityService struct {
	reader  PopularityReader
	catalog *catalog.Catalog
}

func NewPopularityService(reader PopularityReader, c *catalog.Catalog) *PopularityService {
	return &PopularityService{reader: reader, catalog: c}
}

// Top returns the most ordered dishes, skipping ids the catalog no longer has.
func (s *PopularityService) Top(ctx context.Context, limit int) ([]domain.DishPopularity, error) {
	ranked, err := s.reader.TopDishes(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DishPopularity, 0, len(ranked))
	for _, entry := range ranked {
		dish, _, err := s.catalog.Dish(entry.DishID)
		if err != nil {
			continue
		}
		entry.DishName = dish.Name
		out = append(out, entry)
	}
	return out, nil
}
