// Package catalog ships the demo product catalog and seeds it into an empty
// products table.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/flicky/medishop/internal/model"
	"github.com/flicky/medishop/internal/repository"
)

//go:embed products.yaml
var defaultCatalog []byte

// Namespace derives stable seed IDs so re-seeding never duplicates rows.
var Namespace = uuid.MustParse("6f1c1f7e-2b8a-4d53-9d0e-3c5c2f1a9b40")

type file struct {
	Seller   string  `yaml:"seller"`
	Products []entry `yaml:"products"`
}

type entry struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	ImageURL    string `yaml:"image_url"`
	Category    string `yaml:"category"`
	ImageHint   string `yaml:"image_hint"`
}

func ProductID(key string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte("product:"+key))
}

func SellerID(key string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte("seller:"+key))
}

// Default returns the embedded demo catalog.
func Default() ([]model.Product, error) {
	return Parse(defaultCatalog)
}

func Parse(data []byte) ([]model.Product, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seller := SellerID(f.Seller)

	products := make([]model.Product, 0, len(f.Products))
	seen := make(map[string]struct{}, len(f.Products))
	for _, e := range f.Products {
		if e.Key == "" || e.Name == "" {
			return nil, fmt.Errorf("parse catalog: entry %q has no key or name", e.Name)
		}
		if _, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate key %q", e.Key)
		}
		seen[e.Key] = struct{}{}

		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("parse catalog: price of %q: %w", e.Key, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("parse catalog: price of %q must be positive", e.Key)
		}

		products = append(products, model.Product{
			ID:          ProductID(e.Key),
			Name:        e.Name,
			Description: e.Description,
			Category:    e.Category,
			ImageURL:    e.ImageURL,
			ImageHint:   e.ImageHint,
			Price:       price,
			SellerID:    seller,
		})
	}
	return products, nil
}

// Seed inserts products when the table is empty. It returns the number of
// rows inserted.
func Seed(ctx context.Context, repo repository.ProductRepository, products []model.Product, log *slog.Logger) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		log.Info("catalog already populated, skipping seed", "products", count)
		return 0, nil
	}
	n, err := repo.InsertSeed(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	log.Info("catalog seeded", "products", n)
	return n, nil
}
