package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"boardshop/internal/domain"
	"boardshop/internal/metrics"
	"boardshop/internal/repository"
	"boardshop/internal/service"
	"boardshop/internal/session"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := repository.NewMemoryStore()
	locker := repository.NewKeyedLocker()
	catalog := service.NewCatalogService(store, service.EmbeddedCatalogSource{}, logger)
	carts := service.NewCartService(store, locker, domain.DefaultShippingPolicy, logger)
	orders := service.NewOrderService(store, locker, carts, "BG", logger)
	accounts, err := service.NewAccountService(store, locker, service.AccountConfig{
		AdminUsername:      "admin",
		AdminPassword:      "admin-pass",
		BcryptCost:         bcrypt.MinCost,
		ExposeRecoveryCode: true,
	}, nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	return NewServer(Services{
		Catalog:  catalog,
		Carts:    carts,
		Orders:   orders,
		Accounts: accounts,
		Sessions: session.NewManager("test-secret", time.Hour),
		Metrics:  metrics.New(),
	}, Options{MaxQuantityPerRequest: 10}, logger)
}

func doJSON(t *testing.T, s *Server, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func newToken(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, "", http.MethodPost, "/api/v1/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session %v", w.Code)
	}
	return decode[sessionResp](t, w).Token
}

func TestSessionRequired(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, "", http.MethodGet, "/api/v1/cart", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", w.Code)
	}

	foreign, _, err := session.NewManager("other-secret", time.Hour).Issue()
	if err != nil {
		t.Fatal(err)
	}
	w = doJSON(t, s, foreign, http.MethodGet, "/api/v1/cart", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign token, got %v", w.Code)
	}

	w = doJSON(t, s, "", http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health %v", w.Code)
	}
}

func TestCatalogRoutes(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	w := doJSON(t, s, token, http.MethodGet, "/api/v1/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("categories %v", w.Code)
	}
	if cats := decode[[]domain.Category](t, w); len(cats) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(cats))
	}

	w = doJSON(t, s, token, http.MethodGet, "/api/v1/products?category=cartas&max_price=10000", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("products %v", w.Code)
	}
	if list := decode[[]domain.Product](t, w); len(list) != 1 || list[0].Name != "Uno" {
		t.Fatalf("unexpected filter result: %+v", list)
	}

	w = doJSON(t, s, token, http.MethodGet, "/api/v1/products/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodGet, "/api/v1/products/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
}

func TestCartAndCheckoutFlow(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	// Catan 39990
	w := doJSON(t, s, token, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("add %v %s", w.Code, w.Body.String())
	}
	sum := decode[domain.CartSummary](t, w)
	if sum.Subtotal != 39990 || sum.ShippingCost != 5000 || sum.FinalTotal != 44990 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	// Uno 5990 x2 crosses the free shipping threshold
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 8, "quantity": 2})
	sum = decode[domain.CartSummary](t, w)
	if sum.Subtotal != 51970 || sum.ShippingCost != 0 || sum.TotalItems != 3 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	w = doJSON(t, s, token, http.MethodPut, "/api/v1/cart/items/8", map[string]any{"quantity": 1})
	sum = decode[domain.CartSummary](t, w)
	if sum.Subtotal != 45980 || sum.ShippingCost != 5000 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	// another visitor has their own cart
	other := newToken(t, s)
	w = doJSON(t, s, other, http.MethodGet, "/api/v1/cart", nil)
	if decode[domain.CartSummary](t, w).TotalItems != 0 {
		t.Fatalf("cart leaked between sessions")
	}

	w = doJSON(t, s, token, http.MethodPost, "/api/v1/checkout", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout %v %s", w.Code, w.Body.String())
	}
	order := decode[domain.Order](t, w)
	if !regexp.MustCompile(`^BG-[0-9]{4}-[0-9]{6}$`).MatchString(order.OrderNumber) {
		t.Fatalf("bad order number %q", order.OrderNumber)
	}
	if order.Total != 50980 || order.Status != domain.OrderStatusConfirmed {
		t.Fatalf("unexpected order %+v", order)
	}

	w = doJSON(t, s, token, http.MethodGet, "/api/v1/orders/"+order.OrderNumber, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodGet, "/api/v1/orders/last", nil)
	if w.Code != http.StatusOK || decode[domain.Order](t, w).OrderNumber != order.OrderNumber {
		t.Fatalf("last order %v", w.Code)
	}

	w = doJSON(t, s, token, http.MethodGet, "/api/v1/cart", nil)
	if decode[domain.CartSummary](t, w).TotalItems != 0 {
		t.Fatalf("cart not cleared after checkout")
	}

	w = doJSON(t, s, token, http.MethodPost, "/api/v1/checkout", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %v", w.Code)
	}
}

func TestCart_BadRequests(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	w := doJSON(t, s, token, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1, "quantity": 11})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 above limit, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1, "quantity": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 404})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodGet, "/api/v1/orders/BG-2025-000000", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
}

func TestCart_SetQuantityRespectsLimit(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	w := doJSON(t, s, token, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 1, "quantity": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("add %v %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, token, http.MethodPut, "/api/v1/cart/items/1", map[string]any{"quantity": 11})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 above limit, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPut, "/api/v1/cart/items/1", map[string]any{"quantity": 1000000000000000})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for huge quantity, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPut, "/api/v1/cart/items/1", map[string]any{"quantity": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 at limit, got %v %s", w.Code, w.Body.String())
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	reg := map[string]any{
		"nombre":          "Ana",
		"usuario":         "ana",
		"email":           "ana@example.com",
		"password":        strings.Repeat("a1", 40),
		"fechaNacimiento": "1995-06-01",
	}
	w := doJSON(t, s, token, http.MethodPost, "/api/v1/auth/register", reg)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v %s", w.Code, w.Body.String())
	}
}

func TestAccountFlow(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	reg := map[string]any{
		"nombre":          "Ana",
		"usuario":         "ana",
		"email":           "ana@example.com",
		"password":        "tablero123",
		"fechaNacimiento": "1995-06-01",
	}
	w := doJSON(t, s, token, http.MethodPost, "/api/v1/auth/register", reg)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %v %s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password_hash")) {
		t.Fatalf("password hash leaked")
	}

	reg["usuario"] = "ana2"
	reg["email"] = "ANA@example.com"
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/register", reg)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}

	reg["email"] = "not-an-email"
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/register", reg)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
	if _, ok := decode[errorResp](t, w).Fields["email"]; !ok {
		t.Fatalf("expected field error for email: %s", w.Body.String())
	}

	w = doJSON(t, s, token, http.MethodGet, "/api/v1/auth/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me %v", w.Code)
	}

	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/logout", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodGet, "/api/v1/auth/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %v", w.Code)
	}

	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/login", map[string]any{"identifier": "ana", "password": "wrong1234"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/login", map[string]any{"identifier": "ana", "password": "tablero123", "remember": true})
	if w.Code != http.StatusOK {
		t.Fatalf("login %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodGet, "/api/v1/auth/remembered", nil)
	if decode[map[string]string](t, w)["identifier"] != "ana" {
		t.Fatalf("remembered %s", w.Body.String())
	}

	w = doJSON(t, s, token, http.MethodPut, "/api/v1/auth/me", map[string]any{"nombre": "Ana T."})
	if w.Code != http.StatusOK || decode[userResp](t, w).Name != "Ana T." {
		t.Fatalf("update %v %s", w.Code, w.Body.String())
	}
}

func TestRecoveryFlow(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	_ = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"nombre": "Ana", "usuario": "ana", "email": "ana@example.com",
		"password": "tablero123", "fechaNacimiento": "1995-06-01",
	})

	w := doJSON(t, s, token, http.MethodPost, "/api/v1/auth/recovery/code", map[string]any{"email": "nobody@example.com"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}

	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/recovery/code", map[string]any{"email": "ana@example.com"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("code %v", w.Code)
	}
	code := decode[recoveryCodeResp](t, w).Code

	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/recovery/verify", map[string]any{"email": "ana@example.com", "code": code})
	if w.Code != http.StatusOK {
		t.Fatalf("verify %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/recovery/reset", map[string]any{
		"email": "ana@example.com", "code": code, "password": "nuevaClave7",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("reset %v %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/auth/recovery/reset", map[string]any{
		"email": "ana@example.com", "code": code, "password": "nuevaClave8",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reused code, got %v", w.Code)
	}
}

func TestAdminFlow(t *testing.T) {
	s := setupServer(t)
	token := newToken(t, s)

	w := doJSON(t, s, token, http.MethodGet, "/api/v1/admin/users", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/admin/login", map[string]any{"username": "admin", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodPost, "/api/v1/admin/login", map[string]any{"username": "admin", "password": "admin-pass"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin login %v", w.Code)
	}

	userToken := newToken(t, s)
	w = doJSON(t, s, userToken, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"nombre": "Ana", "usuario": "ana", "email": "ana@example.com",
		"password": "tablero123", "fechaNacimiento": "1995-06-01",
	})
	id := decode[userResp](t, w).ID

	w = doJSON(t, s, token, http.MethodGet, "/api/v1/admin/stats", nil)
	if stats := decode[domain.UserStats](t, w); stats.Total != 1 || stats.RegisteredToday != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	w = doJSON(t, s, userToken, http.MethodDelete, "/api/v1/admin/users/"+id, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin session, got %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodDelete, "/api/v1/admin/users/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete %v", w.Code)
	}
	w = doJSON(t, s, token, http.MethodDelete, "/api/v1/admin/users/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}

	w = doJSON(t, s, token, http.MethodGet, "/api/v1/admin/users", nil)
	if list := decode[[]userResp](t, w); len(list) != 0 {
		t.Fatalf("expected empty directory, got %d", len(list))
	}
}
