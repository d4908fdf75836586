package menu

import (
	"context"

	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
)

// Source reads the three category lists.
type Source interface {
	Entrees(ctx context.Context) ([]domain.Item, error)
	Vegetables(ctx context.Context) ([]domain.Item, error)
	Sides(ctx context.Context) ([]domain.Item, error)
}
