package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/medishop/internal/cart"
	"github.com/flicky/medishop/internal/currency"
	"github.com/flicky/medishop/internal/dto"
	"github.com/flicky/medishop/internal/model"
	"github.com/flicky/medishop/internal/payment"
	"github.com/flicky/medishop/internal/repository"
	"github.com/flicky/medishop/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

type userRepo struct {
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
	admins  map[uuid.UUID]bool
}

func (m *userRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return nil
}
func (m *userRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID[id], nil
}
func (m *userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.byEmail[email], nil
}
func (m *userRepo) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}
func (m *userRepo) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	u, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	return nil
}
func (m *userRepo) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	return m.admins[id], nil
}

type productRepo struct {
	products map[uuid.UUID]*model.Product
}

func (m *productRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	m.products[p.ID] = p
	return nil
}
func (m *productRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (m *productRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range m.products {
		if f.SellerID != uuid.Nil && p.SellerID != f.SellerID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}
func (m *productRepo) Update(_ context.Context, p *model.Product) error {
	m.products[p.ID] = p
	return nil
}
func (m *productRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.products, id)
	return nil
}
func (m *productRepo) Count(_ context.Context) (int, error) { return len(m.products), nil }
func (m *productRepo) InsertSeed(_ context.Context, ps []model.Product) (int, error) {
	for i := range ps {
		p := ps[i]
		m.products[p.ID] = &p
	}
	return len(ps), nil
}

type orderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func (m *orderRepo) Create(_ context.Context, o *model.Order) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = o
	return nil
}
func (m *orderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return m.orders[id], nil
}
func (m *orderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}
func (m *orderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}
func (m *orderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = status
	return nil
}

type testEnv struct {
	router   *gin.Engine
	users    *userRepo
	products *productRepo
	orders   *orderRepo
}

func newTestEnv(t *testing.T, gateway payment.Gateway) *testEnv {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	users := &userRepo{byEmail: map[string]*model.User{}, byID: map[uuid.UUID]*model.User{}, admins: map[uuid.UUID]bool{}}
	products := &productRepo{products: map[uuid.UUID]*model.Product{}}
	orders := &orderRepo{orders: map[uuid.UUID]*model.Order{}}

	productSvc := service.NewProductService(products, nil)
	cartSvc := service.NewCartService(cart.NewMemoryStorage(), productSvc, log)
	router := NewRouter(RouterConfig{
		JWTSecret:       "test-secret",
		CartCookie:      "medishop_cart",
		CartTTL:         time.Hour,
		DefaultCurrency: currency.USD,
		Rates:           currency.DefaultRates(),
		Health:          NewHealthHandler(nil, nil, nil),
	}, Services{
		Auth:     service.NewAuthService(users, "test-secret", time.Hour),
		Role:     service.NewRoleService(users, log),
		User:     service.NewUserService(users),
		Product:  productSvc,
		Cart:     cartSvc,
		Checkout: service.NewCheckoutService(orders, gateway, nil, log),
		Order:    service.NewOrderService(orders),
	})
	return &testEnv{router: router, users: users, products: products, orders: orders}
}

type request struct {
	method, path string
	body         any
	token        string
	session      string
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.session != "" {
		req.Header.Set("X-Cart-Session", r.session)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, email string, role model.Role) (string, uuid.UUID) {
	t.Helper()
	w := e.do(t, request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email": email, "password": "secret1", "confirm_password": "secret1", "role": string(role),
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func (e *testEnv) addProduct(name, price string) uuid.UUID {
	p := &model.Product{ID: uuid.New(), Name: name, Category: "Diagnostics", Price: decimal.RequireFromString(price)}
	e.products.products[p.ID] = p
	return p.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var validCheckout = map[string]string{
	"full_name": "Abebe Kebede", "address": "12 Bole Road", "city": "Addis Ababa", "state": "AA",
	"zip": "12345", "email": "ship@example.com", "phone": "555-123-4567",
	"card_number": "4111111111111111", "expiry_date": "12/30", "cvv": "123",
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	token, _ := env.register(t, "buyer@example.com", model.RoleBuyer)

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email": "buyer@example.com", "password": "secret1", "confirm_password": "secret1", "role": "buyer",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email": "x@example.com", "password": "secret1", "confirm_password": "different", "role": "buyer",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email": "y@example.com", "password": "secret1", "confirm_password": "secret1", "role": "admin",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"email": "buyer@example.com", "password": "wrong1",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/auth/me", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[dto.UserResponse](t, w)
	assert.Equal(t, "buyer@example.com", me.Email)
	assert.Equal(t, model.RoleBuyer, me.Role)
}

func TestCurrencies(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/currencies?currency=ETB"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.CurrencyListResponse](t, w)
	assert.Equal(t, "ETB", resp.Selected)
	assert.Len(t, resp.Currencies, 3)
}

func TestProducts_DisplayPrice(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	id := env.addProduct("Stethoscope", "100")

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/products/" + id.String() + "?currency=EUR"})
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[dto.ProductResponse](t, w)
	assert.Equal(t, "€92.00", p.DisplayPrice)
	assert.True(t, decimal.NewFromInt(100).Equal(p.Price))

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/products?currency=GBP"})
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.ProductListResponse](t, w)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "$100.00", list.Products[0].DisplayPrice)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/products/" + uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSellerProducts(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	sellerToken, sellerID := env.register(t, "seller@example.com", model.RoleSeller)
	buyerToken, _ := env.register(t, "buyer@example.com", model.RoleBuyer)
	otherToken, _ := env.register(t, "other@example.com", model.RoleSeller)

	create := map[string]any{
		"name": "Pulse Oximeter", "description": "Measures blood oxygen saturation.",
		"price": "29.95", "category": "Diagnostics",
	}
	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/seller/products", body: create, token: buyerToken})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/seller/products", body: create, token: sellerToken})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.ProductResponse](t, w)
	assert.Equal(t, sellerID, created.SellerID)

	bad := map[string]any{"name": "X", "description": "short", "price": "1", "category": "D"}
	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/seller/products", body: bad, token: sellerToken})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/seller/products", token: otherToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.ProductListResponse](t, w).Products)

	path := "/api/v1/seller/products/" + created.ID.String()
	w = env.do(t, request{method: http.MethodPut, path: path, body: map[string]any{"price": "31.00"}, token: otherToken})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, request{method: http.MethodPut, path: path, body: map[string]any{"price": "31.00"}, token: sellerToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.RequireFromString("31").Equal(decode[dto.ProductResponse](t, w).Price))

	w = env.do(t, request{method: http.MethodDelete, path: path, token: sellerToken})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCart_Flow(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	a := env.addProduct("Pain Reliever", "12.99")
	b := env.addProduct("Vitamin C", "49.91")
	session := uuid.NewString()

	for _, id := range []uuid.UUID{a, a, b} {
		w := env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"product_id": id}, session: session})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", session: session})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.CartResponse](t, w)
	assert.True(t, resp.Initialized)
	assert.Equal(t, 3, resp.ItemCount)
	assert.Equal(t, "$75.89", resp.DisplayTotal)
	assert.Empty(t, resp.Notices)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart?currency=ETB", session: session})
	resp = decode[dto.CartResponse](t, w)
	assert.Equal(t, "Br 4325.73", resp.DisplayTotal)
	assert.True(t, decimal.RequireFromString("75.89").Equal(resp.Total))

	w = env.do(t, request{method: http.MethodPut, path: "/api/v1/cart/items/" + a.String(), body: map[string]int{"quantity": 0}, session: session})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[dto.CartResponse](t, w)
	assert.Equal(t, 1, resp.ItemCount)
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, "Item Removed", resp.Notices[0].Title)
	assert.Equal(t, cart.VariantDestructive, resp.Notices[0].Variant)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"product_id": uuid.New()}, session: session})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, request{method: http.MethodPut, path: "/api/v1/cart/items/" + b.String(), body: map[string]int{"quantity": math.MaxInt}, session: session})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, request{method: http.MethodPut, path: "/api/v1/cart/items/" + b.String(), body: map[string]int{"quantity": cart.MaxQuantity + 1}, session: session})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", session: session})
	assert.Equal(t, 1, decode[dto.CartResponse](t, w).ItemCount)

	w = env.do(t, request{method: http.MethodDelete, path: "/api/v1/cart", session: session})
	resp = decode[dto.CartResponse](t, w)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "Cart Cleared", resp.Notices[0].Title)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", session: uuid.NewString()})
	assert.Empty(t, decode[dto.CartResponse](t, w).Items)
}

func TestCheckout_Flow(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	token, userID := env.register(t, "buyer@example.com", model.RoleBuyer)
	a := env.addProduct("Pain Reliever", "12.99")
	b := env.addProduct("Vitamin C", "49.91")
	session := uuid.NewString()

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/checkout", body: validCheckout, token: token, session: session})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cart is empty")

	for _, id := range []uuid.UUID{a, a, b} {
		env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"product_id": id}, session: session})
	}

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/checkout", body: validCheckout, session: session})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	invalid := map[string]string{}
	for k, v := range validCheckout {
		invalid[k] = v
	}
	invalid["zip"] = "1234"
	invalid["expiry_date"] = "13/30"
	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/checkout", body: invalid, token: token, session: session})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/checkout", body: validCheckout, token: token, session: session})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Order   dto.OrderResponse   `json:"order"`
		Notices []cart.Notification `json:"notices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.Equal(t, model.OrderStatusPending, placed.Order.Status)
	assert.Equal(t, "buyer@example.com", placed.Order.UserEmail)
	assert.Equal(t, userID, placed.Order.UserID)
	assert.True(t, decimal.RequireFromString("75.89").Equal(placed.Order.TotalPrice))
	assert.Equal(t, "Payment Successful!", placed.Notices[len(placed.Notices)-1].Title)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", session: session})
	assert.Empty(t, decode[dto.CartResponse](t, w).Items)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/orders", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[dto.OrderListResponse](t, w).Total)

	otherToken, _ := env.register(t, "other@example.com", model.RoleBuyer)
	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/orders/" + placed.Order.ID.String(), token: otherToken})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckout_DeclinedKeepsCart(t *testing.T) {
	decline := gatewayFunc(func(context.Context, payment.Info) (bool, error) { return false, nil })
	env := newTestEnv(t, decline)
	token, _ := env.register(t, "buyer@example.com", model.RoleBuyer)
	session := uuid.NewString()
	env.do(t, request{method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"product_id": env.addProduct("Cane", "18.75")}, session: session})

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/checkout", body: validCheckout, token: token, session: session})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", session: session})
	assert.Equal(t, 1, decode[dto.CartResponse](t, w).ItemCount)
	assert.Empty(t, env.orders.orders)
}

type gatewayFunc func(ctx context.Context, info payment.Info) (bool, error)

func (f gatewayFunc) Process(ctx context.Context, info payment.Info) (bool, error) { return f(ctx, info) }

func TestAdmin(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	adminToken, adminID := env.register(t, "admin@example.com", model.RoleBuyer)
	env.users.admins[adminID] = true
	buyerToken, buyerID := env.register(t, "buyer@example.com", model.RoleBuyer)

	order := &model.Order{UserID: buyerID, Status: model.OrderStatusPending, TotalPrice: decimal.NewFromInt(10), Currency: "USD"}
	require.NoError(t, env.orders.Create(context.Background(), order))

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/admin/orders", token: buyerToken})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/admin/orders", token: adminToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[dto.OrderListResponse](t, w).Total)

	statusPath := "/api/v1/admin/orders/" + order.ID.String() + "/status"
	w = env.do(t, request{method: http.MethodPatch, path: statusPath, body: map[string]string{"status": "Shipped"}, token: adminToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.OrderStatusShipped, decode[dto.OrderResponse](t, w).Status)

	w = env.do(t, request{method: http.MethodPatch, path: statusPath, body: map[string]string{"status": "Lost"}, token: adminToken})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rolePath := "/api/v1/admin/users/" + buyerID.String() + "/role"
	w = env.do(t, request{method: http.MethodPatch, path: rolePath, body: map[string]string{"role": "seller"}, token: adminToken})
	require.Equal(t, http.StatusOK, w.Code)

	// The new role applies to the existing token on the next request.
	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/seller/products", token: buyerToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, request{method: http.MethodPatch, path: rolePath, body: map[string]string{"role": "owner"}, token: adminToken})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/admin/users", token: adminToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, payment.Stub{})
	w := env.do(t, request{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/readyz"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"disabled"`)
}

func TestValidators(t *testing.T) {
	cases := []struct {
		pattern string
		value   string
		ok      bool
	}{
		{"zip", "12345", true},
		{"zip", "12345-6789", true},
		{"zip", "1234", false},
		{"phone", "123-456-7890", true},
		{"phone", "(123) 456-7890", true},
		{"phone", "1234567890", true},
		{"phone", "12-3456-7890", false},
		{"expiry", "01/27", true},
		{"expiry", "12/30", true},
		{"expiry", "00/30", false},
		{"expiry", "1/30", false},
	}
	patterns := map[string]interface{ MatchString(string) bool }{
		"zip": zipPattern, "phone": phonePattern, "expiry": expiryPattern,
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, patterns[tc.pattern].MatchString(tc.value), tc.pattern+" "+tc.value)
	}
}
