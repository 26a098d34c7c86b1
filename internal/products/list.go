package product

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByCreatedAt = "created_at"
)

var sortColumns = map[string]string{
	SortByName:      "name",
	SortByPrice:     "price",
	SortByCreatedAt: "created_at",
}

// ListProductsInput captures the public catalog filters.
type ListProductsInput struct {
	AvailableOnly bool
	SortBy        string
	SortDir       string
}

// orderClause validates the sort knobs and renders an ORDER BY fragment.
func (in ListProductsInput) orderClause() (string, error) {
	sortBy := strings.ToLower(strings.TrimSpace(in.SortBy))
	if sortBy == "" {
		sortBy = SortByName
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"sort_by": "must be one of name, price, created_at"})
	}

	dir := strings.ToLower(strings.TrimSpace(in.SortDir))
	switch dir {
	case "", "asc":
		dir = "ASC"
	case "desc":
		dir = "DESC"
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"sort_dir": "must be asc or desc"})
	}
	return column + " " + dir, nil
}
