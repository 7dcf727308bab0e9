package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/medishop/internal/dto"
	"github.com/flicky/medishop/internal/model"
	"github.com/flicky/medishop/internal/repository"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductForbidden = errors.New("product belongs to another seller")
	ErrInvalidPrice     = errors.New("price must be positive, below 10000000000 and have at most two decimal places")
)

const productCacheTTL = 60 * time.Second

// Actor is the authenticated caller of a seller or admin operation.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

func (a Actor) canManage(p *model.Product) bool {
	return a.Role == model.RoleAdmin || (a.Role == model.RoleSeller && p.SellerID == a.ID)
}

// maxPrice is the exclusive upper bound of NUMERIC(12, 2).
var maxPrice = decimal.New(1, 10)

// validPrice reports whether p is stored exactly by the products table.
func validPrice(p decimal.Decimal) bool {
	return p.IsPositive() && p.LessThan(maxPrice) && p.Equal(p.Round(2))
}

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient}
}

func (s *ProductService) Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !validPrice(req.Price) {
		return nil, ErrInvalidPrice
	}
	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		ImageHint:   req.ImageHint,
		Price:       req.Price,
		SellerID:    actor.ID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	// Try cache
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	// Write to cache
	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &resp, nil
}

// Product returns the catalog entry as a cart-ready value.
func (s *ProductService) Product(ctx context.Context, id uuid.UUID) (model.Product, error) {
	resp, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	return model.Product{
		ID:          resp.ID,
		Name:        resp.Name,
		Description: resp.Description,
		Category:    resp.Category,
		ImageURL:    resp.ImageURL,
		ImageHint:   resp.ImageHint,
		Price:       resp.Price,
		SellerID:    resp.SellerID,
	}, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	return s.list(ctx, req, uuid.Nil)
}

// ListMine lists a seller's own products; admins see the whole catalog.
func (s *ProductService) ListMine(ctx context.Context, actor Actor, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	if actor.Role == model.RoleAdmin {
		return s.list(ctx, req, uuid.Nil)
	}
	return s.list(ctx, req, actor.ID)
}

func (s *ProductService) list(ctx context.Context, req dto.ListProductsRequest, sellerID uuid.UUID) (*dto.ProductListResponse, error) {
	offset := (req.Page - 1) * req.Limit
	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Limit:    req.Limit,
		Offset:   offset,
		Search:   req.Search,
		Category: req.Category,
		Sort:     req.Sort,
		Order:    req.Order,
		SellerID: sellerID,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}

	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !actor.canManage(product) {
		return nil, ErrProductForbidden
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if !validPrice(*req.Price) {
			return nil, ErrInvalidPrice
		}
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.ImageHint != nil {
		product.ImageHint = *req.ImageHint
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if !actor.canManage(product) {
		return ErrProductForbidden
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.String())
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		ImageHint:   p.ImageHint,
		Price:       p.Price,
		SellerID:    p.SellerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
