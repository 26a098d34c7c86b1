package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// SeedFile is the YAML fixture format. Money values are strings so they
// never pass through floats.
type SeedFile struct {
	Products []SeedProduct `yaml:"products"`
	Coupons  []SeedCoupon  `yaml:"coupons"`
}

type SeedProduct struct {
	Name          string          `yaml:"name"`
	Description   *string         `yaml:"description"`
	Price         string          `yaml:"price"`
	Active        *bool           `yaml:"active"`
	StockQuantity *int            `yaml:"stock_quantity"`
	Variations    []SeedVariation `yaml:"variations"`
}

type SeedVariation struct {
	Name            string `yaml:"name"`
	PriceAdjustment string `yaml:"price_adjustment"`
	StockQuantity   int    `yaml:"stock_quantity"`
	Active          *bool  `yaml:"active"`
}

type SeedCoupon struct {
	Code       string     `yaml:"code"`
	Type       string     `yaml:"type"`
	Value      string     `yaml:"value"`
	MinValue   *string    `yaml:"min_value"`
	MaxUses    *int       `yaml:"max_uses"`
	Active     *bool      `yaml:"active"`
	ValidFrom  *time.Time `yaml:"valid_from"`
	ValidUntil *time.Time `yaml:"valid_until"`
}

// SeedResult counts what Apply wrote.
type SeedResult struct {
	ProductsCreated int
	ProductsUpdated int
	CouponsCreated  int
	CouponsUpdated  int
}

// LoadSeedFile decodes a fixture, rejecting unknown keys.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var file SeedFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &file, nil
}

// Seeder upserts fixtures through the same services the admin API uses, so
// seeded rows obey catalog and coupon validation.
type Seeder struct {
	products    product.Service
	productRepo *product.Repository
	coupons     coupons.Service
	couponRepo  *coupons.Repository
}

func NewSeeder(client *db.Client) (*Seeder, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	conn := client.DB()
	productRepo := product.NewRepository(conn)
	productSvc, err := product.NewService(client, productRepo, stock.NewLedger(conn))
	if err != nil {
		return nil, err
	}
	couponRepo := coupons.NewRepository(conn)
	couponSvc, err := coupons.NewService(couponRepo)
	if err != nil {
		return nil, err
	}
	return &Seeder{
		products:    productSvc,
		productRepo: productRepo,
		coupons:     couponSvc,
		couponRepo:  couponRepo,
	}, nil
}

// Apply upserts products by name and coupons by code. A failing entry does
// not stop the rest; every failure is returned combined.
func (s *Seeder) Apply(ctx context.Context, file *SeedFile) (SeedResult, error) {
	var (
		result SeedResult
		errs   error
	)
	if file == nil {
		return result, nil
	}

	for _, p := range file.Products {
		created, err := s.upsertProduct(ctx, p)
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("product %q: %w", p.Name, err))
		case created:
			result.ProductsCreated++
		default:
			result.ProductsUpdated++
		}
	}

	for _, c := range file.Coupons {
		created, err := s.upsertCoupon(ctx, c)
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("coupon %q: %w", c.Code, err))
		case created:
			result.CouponsCreated++
		default:
			result.CouponsUpdated++
		}
	}

	return result, errs
}

func (s *Seeder) upsertProduct(ctx context.Context, p SeedProduct) (bool, error) {
	input, err := p.toInput()
	if err != nil {
		return false, err
	}

	existing, err := s.productRepo.FindByName(ctx, input.Name)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return false, err
	}

	if existing == nil {
		created, err := s.products.CreateProduct(ctx, input)
		if err != nil {
			return false, err
		}
		if input.Active != nil && !*input.Active {
			if _, err := s.products.UpdateProduct(ctx, created.ID, s.withVariationIDs(ctx, created.ID, input)); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	if _, err := s.products.UpdateProduct(ctx, existing.ID, s.withVariationIDs(ctx, existing.ID, input)); err != nil {
		return false, err
	}
	return false, nil
}

// withVariationIDs matches variations by name so an update keeps their ids
// and stock rows instead of recreating them.
func (s *Seeder) withVariationIDs(ctx context.Context, productID uuid.UUID, input product.ProductInput) product.ProductInput {
	detail, err := s.productRepo.GetDetail(ctx, productID)
	if err != nil {
		return input
	}
	byName := make(map[string]int, len(detail.Variations))
	for i, v := range detail.Variations {
		byName[strings.ToLower(v.Name)] = i
	}
	for i := range input.Variations {
		if idx, ok := byName[strings.ToLower(input.Variations[i].Name)]; ok {
			id := detail.Variations[idx].ID
			input.Variations[i].ID = &id
		}
	}
	return input
}

func (s *Seeder) upsertCoupon(ctx context.Context, c SeedCoupon) (bool, error) {
	input, err := c.toInput()
	if err != nil {
		return false, err
	}

	existing, err := s.couponRepo.FindByCode(ctx, input.Code)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return false, err
	}
	if existing == nil {
		if _, err := s.coupons.Create(ctx, input); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, err := s.coupons.Update(ctx, existing.ID, input); err != nil {
		return false, err
	}
	return false, nil
}

func (p SeedProduct) toInput() (product.ProductInput, error) {
	price, err := parseMoney("price", p.Price)
	if err != nil {
		return product.ProductInput{}, err
	}
	input := product.ProductInput{
		Name:          strings.TrimSpace(p.Name),
		Description:   p.Description,
		Price:         price,
		HasVariations: len(p.Variations) > 0,
		Active:        p.Active,
		StockQuantity: p.StockQuantity,
	}
	for _, v := range p.Variations {
		adjustment := decimal.Zero
		if strings.TrimSpace(v.PriceAdjustment) != "" {
			if adjustment, err = parseMoney("price_adjustment", v.PriceAdjustment); err != nil {
				return product.ProductInput{}, err
			}
		}
		input.Variations = append(input.Variations, product.VariationInput{
			Name:            strings.TrimSpace(v.Name),
			PriceAdjustment: adjustment,
			StockQuantity:   v.StockQuantity,
			Active:          v.Active,
		})
	}
	return input, nil
}

func (c SeedCoupon) toInput() (coupons.CouponInput, error) {
	value, err := parseMoney("value", c.Value)
	if err != nil {
		return coupons.CouponInput{}, err
	}
	input := coupons.CouponInput{
		Code:       c.Code,
		Type:       strings.ToLower(strings.TrimSpace(c.Type)),
		Value:      value,
		MaxUses:    c.MaxUses,
		Active:     c.Active,
		ValidFrom:  c.ValidFrom,
		ValidUntil: c.ValidUntil,
	}
	if c.MinValue != nil {
		floor, err := parseMoney("min_value", *c.MinValue)
		if err != nil {
			return coupons.CouponInput{}, err
		}
		input.MinValue = &floor
	}
	return input, nil
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a decimal", field, raw)
	}
	return d, nil
}
