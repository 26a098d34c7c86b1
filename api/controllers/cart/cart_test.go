package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCartService struct {
	record    *models.Cart
	err       error
	lastToken string
	lastAdd   cartsvc.AddItemInput
	lastIndex int
	lastQty   int
	lastCode  string
}

func (s *stubCartService) Get(_ context.Context, token string) (*models.Cart, error) {
	s.lastToken = token
	return s.record, s.err
}

func (s *stubCartService) AddItem(_ context.Context, token string, input cartsvc.AddItemInput) (*models.Cart, error) {
	s.lastToken = token
	s.lastAdd = input
	return s.record, s.err
}

func (s *stubCartService) UpdateItem(_ context.Context, token string, index, quantity int) (*models.Cart, error) {
	s.lastToken, s.lastIndex, s.lastQty = token, index, quantity
	return s.record, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, token string, index int) (*models.Cart, error) {
	s.lastToken, s.lastIndex = token, index
	return s.record, s.err
}

func (s *stubCartService) Clear(_ context.Context, token string) (*models.Cart, error) {
	s.lastToken = token
	return s.record, s.err
}

func (s *stubCartService) ApplyCoupon(_ context.Context, token, code string) (*models.Cart, error) {
	s.lastToken, s.lastCode = token, code
	return s.record, s.err
}

func (s *stubCartService) RemoveCoupon(_ context.Context, token string) (*models.Cart, error) {
	s.lastToken = token
	return s.record, s.err
}

func sampleCart() *models.Cart {
	size := "Large"
	code := "TEN"
	return &models.Cart{
		Token:      "cart_abc",
		CouponCode: &code,
		Subtotal:   decimal.RequireFromString("60.00"),
		Discount:   decimal.RequireFromString("6.00"),
		Shipping:   decimal.RequireFromString("15.00"),
		Total:      decimal.RequireFromString("69.00"),
		Items: []models.CartItem{
			{ProductID: uuid.New(), ProductName: "Mug", Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{ProductID: uuid.New(), ProductName: "Shirt", VariationName: &size, Quantity: 1, Price: decimal.RequireFromString("40.00")},
		},
	}
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) (string, cartdto.Cart) {
	t.Helper()
	var envelope struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Data    cartdto.Cart `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	return envelope.Message, envelope.Data
}

func TestCartShowUsesQueryToken(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	req := httptest.NewRequest(http.MethodGet, "/api/cart?cart_id=cart_abc", nil)
	req.AddCookie(&http.Cookie{Name: "cart_token", Value: "cart_cookie"})
	resp := httptest.NewRecorder()
	CartShow(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastToken != "cart_abc" {
		t.Fatalf("expected query token, got %q", svc.lastToken)
	}

	_, body := decodeCart(t, resp)
	if body.Token != "cart_abc" {
		t.Fatalf("expected token echoed, got %q", body.Token)
	}
	if body.ItemCount != 3 || len(body.Items) != 2 {
		t.Fatalf("unexpected items: count=%d lines=%d", body.ItemCount, len(body.Items))
	}
	if body.Items[1].Index != 1 || body.Items[1].Name != "Shirt - Large" {
		t.Fatalf("unexpected second line %+v", body.Items[1])
	}
	if !body.Items[0].Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("unexpected line total %s", body.Items[0].Total)
	}
	if !body.Total.Equal(decimal.RequireFromString("69.00")) {
		t.Fatalf("unexpected total %s", body.Total)
	}
}

func TestCartShowFallsBackToCookie(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart_token", Value: "cart_cookie"})
	CartShow(svc, nil).ServeHTTP(httptest.NewRecorder(), req)

	if svc.lastToken != "cart_cookie" {
		t.Fatalf("expected cookie token, got %q", svc.lastToken)
	}
}

func TestCartAddDecodesPayload(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/add?cart_id=cart_abc", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CartAdd(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastAdd.ProductID != productID || svc.lastAdd.Quantity != 2 || svc.lastAdd.VariationID != nil {
		t.Fatalf("unexpected input %+v", svc.lastAdd)
	}
	if message, _ := decodeCart(t, resp); message != "Product added to cart" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestCartAddValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"zero quantity", `{"product_id":"` + uuid.NewString() + `","quantity":0}`, http.StatusUnprocessableEntity},
		{"missing product", `{"quantity":1}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"product_id":"` + uuid.NewString() + `","quantity":1,"price":1}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		svc := &stubCartService{record: sampleCart()}
		req := httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(tt.body))
		resp := httptest.NewRecorder()
		CartAdd(svc, nil).ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.Code)
		}
	}
}

func TestCartUpdateAcceptsIndexZero(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	req := httptest.NewRequest(http.MethodPost, "/api/cart/update?cart_id=cart_abc", strings.NewReader(`{"item_index":0,"quantity":3}`))
	resp := httptest.NewRecorder()
	CartUpdate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastIndex != 0 || svc.lastQty != 3 {
		t.Fatalf("unexpected update args index=%d qty=%d", svc.lastIndex, svc.lastQty)
	}
}

func TestCartUpdateMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty cart", pkgerrors.New(pkgerrors.CodeBadRequest, "cart is empty, there are no items to update"), http.StatusBadRequest},
		{"bad index", pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart"), http.StatusNotFound},
		{"stock", pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		svc := &stubCartService{err: tt.err}
		req := httptest.NewRequest(http.MethodPost, "/api/cart/update", strings.NewReader(`{"item_index":4,"quantity":1}`))
		resp := httptest.NewRecorder()
		CartUpdate(svc, nil).ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.Code)
		}
	}
}

func TestCartRemoveRequiresIndex(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	req := httptest.NewRequest(http.MethodPost, "/api/cart/remove", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CartRemove(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCartApplyCouponPassesCode(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	req := httptest.NewRequest(http.MethodPost, "/api/cart/apply-coupon?cart_id=cart_abc", strings.NewReader(`{"coupon_code":"ten"}`))
	resp := httptest.NewRecorder()
	CartApplyCoupon(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastCode != "ten" {
		t.Fatalf("expected raw code forwarded, got %q", svc.lastCode)
	}

	svc = &stubCartService{err: pkgerrors.New(pkgerrors.CodeCouponInvalid, "invalid or expired coupon")}
	req = httptest.NewRequest(http.MethodPost, "/api/cart/apply-coupon", strings.NewReader(`{"coupon_code":"OLD"}`))
	resp = httptest.NewRecorder()
	CartApplyCoupon(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClearAndRemoveCoupon(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"clear":         CartClear(&stubCartService{record: sampleCart()}, nil),
		"remove coupon": CartRemoveCoupon(&stubCartService{record: sampleCart()}, nil),
	} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/cart/clear?cart_id=cart_abc", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", name, resp.Code)
		}
	}
}

func TestCartNilService(t *testing.T) {
	resp := httptest.NewRecorder()
	CartShow(nil, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
