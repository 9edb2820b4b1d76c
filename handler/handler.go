package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"ecommerce-api/model"
	"ecommerce-api/service"
)

// TokenAuth issues and verifies bearer tokens. A nil TokenAuth disables
// authentication.
type TokenAuth interface {
	Issue(username string) (string, error)
	Verify(token string) (string, error)
}

// Handler is the HTTP layer in front of the services.
type Handler struct {
	users  service.UserServiceInterface
	items  service.ItemServiceInterface
	carts  service.CartServiceInterface
	orders service.OrderServiceInterface
	tokens TokenAuth
}

func NewHandler(
	users service.UserServiceInterface,
	items service.ItemServiceInterface,
	carts service.CartServiceInterface,
	orders service.OrderServiceInterface,
	tokens TokenAuth,
) *Handler {
	return &Handler{users: users, items: items, carts: carts, orders: orders, tokens: tokens}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(RequestID, RequestLogger, Metrics)

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// open routes
	r.HandleFunc("/api/user/create", h.CreateUser).Methods("POST")
	if h.tokens != nil {
		r.HandleFunc("/login", h.Login).Methods("POST")
	}

	api := r.PathPrefix("/api").Subrouter()
	if h.tokens != nil {
		api.Use(h.RequireAuth)
	}

	// Users
	api.HandleFunc("/user/id/{id}", h.FindUserByID).Methods("GET")
	api.HandleFunc("/user/{username}", h.FindUserByUsername).Methods("GET")

	// Items
	api.HandleFunc("/item", h.ListItems).Methods("GET")
	api.HandleFunc("/item/{id}", h.FindItemByID).Methods("GET")
	api.HandleFunc("/item/name/{name}", h.FindItemsByName).Methods("GET")

	// Cart
	api.HandleFunc("/cart/addToCart", h.AddToCart).Methods("POST")
	api.HandleFunc("/cart/removeFromCart", h.RemoveFromCart).Methods("POST")

	// Orders
	api.HandleFunc("/order/submit/{username}", h.SubmitOrder).Methods("POST")
	api.HandleFunc("/order/history/{username}", h.OrderHistory).Methods("GET")
}

// --- request / response shapes ---
type createUserReq struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type modifyCartReq struct {
	Username string `json:"username"`
	ItemID   int64  `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeServiceErr maps service errors to bodiless status codes; anything
// unrecognized is a 500.
func writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, service.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, service.ErrConflict):
		w.WriteHeader(http.StatusConflict)
	default:
		log.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": RequestIDFrom(r.Context()),
		}).Error("request failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

// --- Handlers ---

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateUser handles POST /api/user/create
// body: { "username": "...", "password": "...", "confirmPassword": "..." }
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.users.CreateUser(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Login handles POST /login and returns the token in the Authorization header.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	token, err := h.tokens.Issue(u.Username)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// FindUserByID handles GET /api/user/id/{id}
func (h *Handler) FindUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// FindUserByUsername handles GET /api/user/{username}
func (h *Handler) FindUserByUsername(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.FindByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListItems handles GET /api/item
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListAll(r.Context())
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// FindItemByID handles GET /api/item/{id}
func (h *Handler) FindItemByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	it, err := h.items.FindByID(r.Context(), id)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// FindItemsByName handles GET /api/item/name/{name}
func (h *Handler) FindItemsByName(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.FindByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// AddToCart handles POST /api/cart/addToCart
// body: { "username": "...", "itemId": 1, "quantity": 2 }
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	h.modifyCart(w, r, "add", h.carts.AddToCart)
}

// RemoveFromCart handles POST /api/cart/removeFromCart
// body: { "username": "...", "itemId": 1, "quantity": 2 }
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.modifyCart(w, r, "remove", h.carts.RemoveFromCart)
}

type cartFunc func(ctx context.Context, username string, itemID int64, quantity int) (*model.Cart, error)

func (h *Handler) modifyCart(w http.ResponseWriter, r *http.Request, op string, fn cartFunc) {
	var req modifyCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !h.authorize(w, r, req.Username) {
		return
	}
	cart, err := fn(r.Context(), req.Username, req.ItemID, req.Quantity)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	CartMutations.WithLabelValues(op).Inc()
	writeJSON(w, http.StatusOK, cart)
}

// SubmitOrder handles POST /api/order/submit/{username}
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if !h.authorize(w, r, username) {
		return
	}
	o, err := h.orders.Submit(r.Context(), username)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	OrdersSubmitted.Inc()
	writeJSON(w, http.StatusOK, o)
}

// OrderHistory handles GET /api/order/history/{username}
func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if !h.authorize(w, r, username) {
		return
	}
	orders, err := h.orders.OrdersForUser(r.Context(), username)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
