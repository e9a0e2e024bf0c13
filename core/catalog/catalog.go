// Package catalog is the boundary to the product catalog, an external
// collaborator. The engine only needs unit weights to compute a reservation's
// slot weight.
package catalog

import (
	"context"

	"github.com/sksmith/reservation-engine/core"
)

type ProductVariant struct {
	ProductID    string  `json:"productId"`
	VariantID    string  `json:"variantId"`
	Name         string  `json:"name"`
	UnitWeightKg float64 `json:"unitWeightKg"`
}

type Service interface {
	GetUnitWeight(ctx context.Context, productID, variantID string) (float64, error)
}

type Repository interface {
	GetProductVariant(ctx context.Context, productID, variantID string, options ...core.QueryOptions) (ProductVariant, error)
}

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

type service struct {
	repo Repository
}

func (s *service) GetUnitWeight(ctx context.Context, productID, variantID string) (float64, error) {
	pv, err := s.repo.GetProductVariant(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	return pv.UnitWeightKg, nil
}

type MockCatalogService struct {
	GetUnitWeightFunc func(ctx context.Context, productID, variantID string) (float64, error)
}

func NewMockCatalogService() MockCatalogService {
	return MockCatalogService{
		GetUnitWeightFunc: func(ctx context.Context, productID, variantID string) (float64, error) { return 1, nil },
	}
}

func (s *MockCatalogService) GetUnitWeight(ctx context.Context, productID, variantID string) (float64, error) {
	return s.GetUnitWeightFunc(ctx, productID, variantID)
}
