package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-api/auth"
	"ecommerce-api/model"
	"ecommerce-api/service"
)

// ---- fake services ----
type fakeUsers struct {
	CreateUserFn     func(username, password, confirm string) (*model.User, error)
	FindByIDFn       func(id int64) (*model.User, error)
	FindByUsernameFn func(username string) (*model.User, error)
	AuthenticateFn   func(username, password string) (*model.User, error)
}

func (f *fakeUsers) CreateUser(ctx context.Context, username, password, confirm string) (*model.User, error) {
	return f.CreateUserFn(username, password, confirm)
}
func (f *fakeUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return f.FindByIDFn(id)
}
func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return f.FindByUsernameFn(username)
}
func (f *fakeUsers) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	return f.AuthenticateFn(username, password)
}

type fakeItems struct {
	ListAllFn    func() ([]model.Item, error)
	FindByIDFn   func(id int64) (*model.Item, error)
	FindByNameFn func(name string) ([]model.Item, error)
}

func (f *fakeItems) ListAll(ctx context.Context) ([]model.Item, error) { return f.ListAllFn() }
func (f *fakeItems) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	return f.FindByIDFn(id)
}
func (f *fakeItems) FindByName(ctx context.Context, name string) ([]model.Item, error) {
	return f.FindByNameFn(name)
}

type fakeCarts struct {
	AddFn    func(username string, itemID int64, qty int) (*model.Cart, error)
	RemoveFn func(username string, itemID int64, qty int) (*model.Cart, error)
}

func (f *fakeCarts) AddToCart(ctx context.Context, username string, itemID int64, qty int) (*model.Cart, error) {
	return f.AddFn(username, itemID, qty)
}
func (f *fakeCarts) RemoveFromCart(ctx context.Context, username string, itemID int64, qty int) (*model.Cart, error) {
	return f.RemoveFn(username, itemID, qty)
}

type fakeOrders struct {
	SubmitFn  func(username string) (*model.UserOrder, error)
	HistoryFn func(username string) ([]model.UserOrder, error)
}

func (f *fakeOrders) Submit(ctx context.Context, username string) (*model.UserOrder, error) {
	return f.SubmitFn(username)
}
func (f *fakeOrders) OrdersForUser(ctx context.Context, username string) ([]model.UserOrder, error) {
	return f.HistoryFn(username)
}

type fixture struct {
	users  *fakeUsers
	items  *fakeItems
	carts  *fakeCarts
	orders *fakeOrders
}

func newFixture() *fixture {
	return &fixture{users: &fakeUsers{}, items: &fakeItems{}, carts: &fakeCarts{}, orders: &fakeOrders{}}
}

func (f *fixture) router(tokens TokenAuth) *mux.Router {
	r := mux.NewRouter()
	NewHandler(f.users, f.items, f.carts, f.orders, tokens).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var widget = model.Item{ID: 1, Name: "Round Widget", Price: decimal.RequireFromString("2.99"), Description: "A widget that is round"}

func TestCreateUser(t *testing.T) {
	f := newFixture()
	f.users.CreateUserFn = func(username, password, confirm string) (*model.User, error) {
		require.Equal(t, "alice", username)
		require.Equal(t, "secret123", password)
		require.Equal(t, "secret123", confirm)
		return &model.User{ID: 1, Username: username, PasswordHash: "hash", Cart: model.NewCart()}, nil
	}

	rec := do(f.router(nil), "POST", "/api/user/create", `{"username":"alice","password":"secret123","confirmPassword":"secret123"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture()
	f.users.CreateUserFn = func(username, password, confirm string) (*model.User, error) {
		return nil, fmt.Errorf("%w: password too short", service.ErrValidation)
	}

	rec := do(f.router(nil), "POST", "/api/user/create", `{"username":"alice","password":"short","confirmPassword":"short"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCreateUserConflict(t *testing.T) {
	f := newFixture()
	f.users.CreateUserFn = func(username, password, confirm string) (*model.User, error) {
		return nil, service.ErrConflict
	}

	rec := do(f.router(nil), "POST", "/api/user/create", `{"username":"alice","password":"secret123","confirmPassword":"secret123"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateUserBadJSON(t *testing.T) {
	rec := do(newFixture().router(nil), "POST", "/api/user/create", `{bad`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid json")
}

func TestFindUserByID(t *testing.T) {
	f := newFixture()
	f.users.FindByIDFn = func(id int64) (*model.User, error) {
		if id == 1 {
			return &model.User{ID: 1, Username: "alice", Cart: model.NewCart()}, nil
		}
		return nil, service.ErrNotFound
	}
	r := f.router(nil)

	rec := do(r, "GET", "/api/user/id/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = do(r, "GET", "/api/user/id/2", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(r, "GET", "/api/user/id/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindUserByUsername(t *testing.T) {
	f := newFixture()
	f.users.FindByUsernameFn = func(username string) (*model.User, error) {
		if username == "alice" {
			return &model.User{ID: 1, Username: "alice", Cart: model.NewCart()}, nil
		}
		return nil, service.ErrNotFound
	}
	r := f.router(nil)

	require.Equal(t, http.StatusOK, do(r, "GET", "/api/user/alice", "").Code)
	require.Equal(t, http.StatusNotFound, do(r, "GET", "/api/user/bob", "").Code)
}

func TestItems(t *testing.T) {
	f := newFixture()
	f.items.ListAllFn = func() ([]model.Item, error) { return []model.Item{widget}, nil }
	f.items.FindByIDFn = func(id int64) (*model.Item, error) {
		if id == widget.ID {
			return &widget, nil
		}
		return nil, service.ErrNotFound
	}
	f.items.FindByNameFn = func(name string) ([]model.Item, error) {
		if name == widget.Name {
			return []model.Item{widget}, nil
		}
		return nil, service.ErrNotFound
	}
	r := f.router(nil)

	rec := do(r, "GET", "/api/item", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.True(t, items[0].Price.Equal(widget.Price))

	require.Equal(t, http.StatusOK, do(r, "GET", "/api/item/1", "").Code)
	require.Equal(t, http.StatusNotFound, do(r, "GET", "/api/item/9", "").Code)
	require.Equal(t, http.StatusOK, do(r, "GET", "/api/item/name/Round%20Widget", "").Code)
	require.Equal(t, http.StatusNotFound, do(r, "GET", "/api/item/name/Gadget", "").Code)
}

func TestAddAndRemoveFromCart(t *testing.T) {
	f := newFixture()
	f.carts.AddFn = func(username string, itemID int64, qty int) (*model.Cart, error) {
		require.Equal(t, "alice", username)
		require.Equal(t, int64(1), itemID)
		c := model.NewCart()
		c.Add(widget, qty)
		return &c, nil
	}
	f.carts.RemoveFn = func(username string, itemID int64, qty int) (*model.Cart, error) {
		return nil, service.ErrNotFound
	}
	r := f.router(nil)

	rec := do(r, "POST", "/api/cart/addToCart", `{"username":"alice","itemId":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart model.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Len(t, cart.Items, 2)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("5.98")))

	rec = do(r, "POST", "/api/cart/removeFromCart", `{"username":"bob","itemId":1,"quantity":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitOrder(t *testing.T) {
	f := newFixture()
	f.orders.SubmitFn = func(username string) (*model.UserOrder, error) {
		return &model.UserOrder{ID: 5, UserID: 1, Items: []model.Item{widget}, Total: widget.Price, CreatedAt: time.Now()}, nil
	}

	rec := do(f.router(nil), "POST", "/api/order/submit/alice", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":5`)
}

func TestStoreFailureIsInternalError(t *testing.T) {
	f := newFixture()
	f.orders.HistoryFn = func(username string) ([]model.UserOrder, error) {
		return nil, errors.New("connection reset")
	}

	rec := do(f.router(nil), "GET", "/api/order/history/alice", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestHealthAndRequestID(t *testing.T) {
	r := newFixture().router(nil)

	rec := do(r, "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(r, "GET", "/health", "", "X-Request-Id", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newFixture().router(nil)
	do(r, "GET", "/health", "")

	rec := do(r, "GET", "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), `path="/health"`)
}

func TestLoginNotRoutedWithoutAuth(t *testing.T) {
	rec := do(newFixture().router(nil), "POST", "/login", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	f := newFixture()
	f.users.CreateUserFn = func(username, password, confirm string) (*model.User, error) {
		return &model.User{ID: 1, Username: username, Cart: model.NewCart()}, nil
	}
	f.users.AuthenticateFn = func(username, password string) (*model.User, error) {
		if username == "alice" && password == "secret123" {
			return &model.User{ID: 1, Username: "alice"}, nil
		}
		return nil, service.ErrUnauthorized
	}
	f.orders.HistoryFn = func(username string) ([]model.UserOrder, error) {
		return []model.UserOrder{}, nil
	}
	f.items.ListAllFn = func() ([]model.Item, error) { return []model.Item{}, nil }
	r := f.router(auth.NewTokenIssuer("test-secret", time.Hour))

	// registration stays open
	rec := do(r, "POST", "/api/user/create", `{"username":"alice","password":"secret123","confirmPassword":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusUnauthorized, do(r, "GET", "/api/item", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(r, "GET", "/api/item", "", "Authorization", "Bearer nope").Code)

	rec = do(r, "POST", "/login", `{"username":"alice","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, "POST", "/login", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	bearer := rec.Header().Get("Authorization")
	require.True(t, strings.HasPrefix(bearer, "Bearer "))

	require.Equal(t, http.StatusOK, do(r, "GET", "/api/item", "", "Authorization", bearer).Code)
	require.Equal(t, http.StatusOK, do(r, "GET", "/api/order/history/alice", "", "Authorization", bearer).Code)
	require.Equal(t, http.StatusForbidden, do(r, "GET", "/api/order/history/bob", "", "Authorization", bearer).Code)
	require.Equal(t, http.StatusForbidden, do(r, "POST", "/api/cart/addToCart", `{"username":"bob","itemId":1,"quantity":1}`, "Authorization", bearer).Code)
}
