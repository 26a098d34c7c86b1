package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog reads and admin product management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	tx     txRunner
	repo   *Repository
	ledger *stock.Ledger
}

func NewService(tx txRunner, repo *Repository, ledger *stock.Ledger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{tx: tx, repo: repo, ledger: ledger}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error) {
	order, err := input.orderClause()
	if err != nil {
		return nil, err
	}
	products, err := s.repo.List(ctx, input.AvailableOnly, order)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(*p)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := validateInput(input, nil); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price.Round(2),
		HasVariations: input.HasVariations,
		Active:        true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		if err := repo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error creating product")
		}
		if !input.HasVariations {
			return ledger.Set(ctx, product.ID, nil, *input.StockQuantity)
		}
		for _, v := range input.Variations {
			if err := createVariation(ctx, repo, ledger, product.ID, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		product, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		existing, err := repo.ListVariationIDs(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error updating product")
		}
		if err := validateInput(input, existing); err != nil {
			return err
		}

		product.Name = input.Name
		product.Description = input.Description
		product.Price = input.Price.Round(2)
		product.HasVariations = input.HasVariations
		product.Active = true
		if input.Active != nil {
			product.Active = *input.Active
		}
		if err := repo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error updating product")
		}

		if !input.HasVariations {
			if err := repo.DeleteVariations(ctx, id, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error updating product")
			}
			return ledger.Set(ctx, id, nil, *input.StockQuantity)
		}

		if err := repo.DeleteSimpleStock(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error updating product")
		}

		kept := map[uuid.UUID]struct{}{}
		for _, v := range input.Variations {
			if v.ID != nil {
				kept[*v.ID] = struct{}{}
			}
		}
		var removed []uuid.UUID
		for _, vid := range existing {
			if _, ok := kept[vid]; !ok {
				removed = append(removed, vid)
			}
		}
		if err := repo.DeleteVariations(ctx, id, removed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error updating product")
		}

		for _, v := range input.Variations {
			if v.ID == nil {
				if err := createVariation(ctx, repo, ledger, id, v); err != nil {
					return err
				}
				continue
			}
			variation := &models.ProductVariation{
				ID:              *v.ID,
				ProductID:       id,
				Name:            v.Name,
				PriceAdjustment: v.PriceAdjustment.Round(2),
				Active:          activeOrDefault(v.Active),
			}
			if err := repo.UpdateVariation(ctx, variation); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error updating product")
			}
			if err := ledger.Set(ctx, id, &variation.ID, v.StockQuantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).DeleteProduct(ctx, id); err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error deleting product")
		}
		return nil
	})
}

func createVariation(ctx context.Context, repo *Repository, ledger *stock.Ledger, productID uuid.UUID, input VariationInput) error {
	variation := &models.ProductVariation{
		ProductID:       productID,
		Name:            input.Name,
		PriceAdjustment: input.PriceAdjustment.Round(2),
		Active:          activeOrDefault(input.Active),
	}
	if err := repo.CreateVariation(ctx, variation); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error creating variation")
	}
	return ledger.Set(ctx, productID, &variation.ID, input.StockQuantity)
}

// validateInput enforces the rules the struct tags cannot. existing lists the
// variation ids an update may reference.
func validateInput(input ProductInput, existing []uuid.UUID) error {
	fields := map[string]string{}

	if input.Name == "" {
		fields["name"] = "is required"
	}
	if input.Price.IsNegative() {
		fields["price"] = "must be at least 0"
	}

	if !input.HasVariations {
		switch {
		case input.StockQuantity == nil:
			fields["stock_quantity"] = "is required for products without variations"
		case *input.StockQuantity < 0:
			fields["stock_quantity"] = "must be at least 0"
		}
	} else if len(input.Variations) == 0 {
		fields["variations"] = "at least one variation is required"
	}

	known := map[uuid.UUID]struct{}{}
	for _, id := range existing {
		known[id] = struct{}{}
	}
	for i, v := range input.Variations {
		if v.Name == "" {
			fields[fmt.Sprintf("variations.%d.name", i)] = "is required"
		}
		if v.StockQuantity < 0 {
			fields[fmt.Sprintf("variations.%d.stock_quantity", i)] = "must be at least 0"
		}
		if v.ID != nil {
			if _, ok := known[*v.ID]; !ok {
				fields[fmt.Sprintf("variations.%d.id", i)] = "does not belong to this product"
			}
		}
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
	}
	return nil
}

func activeOrDefault(active *bool) bool {
	if active == nil {
		return true
	}
	return *active
}
