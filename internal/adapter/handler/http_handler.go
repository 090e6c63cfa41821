package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/core/service"
)

const requestTimeout = 15 * time.Second

type HTTPHandler struct {
	svc               *service.InventoryService
	logger            *zap.Logger
	lowStockThreshold int
}

type ProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	SupplierID   string          `json:"supplier_id"`
	DateReceived string          `json:"date_received"`
}

type UpdateProductRequest struct {
	Quantity *int             `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

type SupplierRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type OrderRequest struct {
	OrderID    string             `json:"order_id"`
	SupplierID string             `json:"supplier_id"`
	OrderDate  string             `json:"order_date"`
	Items      []domain.OrderItem `json:"items"`
}

type SellOrderRequest struct {
	OrderID      string             `json:"order_id"`
	CustomerName string             `json:"customer_name"`
	SellDate     string             `json:"sell_date"`
	Items        []domain.OrderItem `json:"items"`
}

type ErrorResponse struct {
	Error string   `json:"error"`
	SKUs  []string `json:"skus,omitempty"`
}

type DashboardResponse struct {
	service.Summary
	TotalValueDisplay string `json:"total_value_display"`
}

func NewHTTPHandler(svc *service.InventoryService, logger *zap.Logger, lowStockThreshold int) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger, lowStockThreshold: lowStockThreshold}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, h.requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.addProduct)
			r.Get("/{sku}", h.getProduct)
			r.Put("/{sku}", h.updateProduct)
			r.Delete("/{sku}", h.removeProduct)
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", h.listSuppliers)
			r.Post("/", h.addSupplier)
			r.Get("/{id}", h.getSupplier)
			r.Delete("/{id}", h.removeSupplier)
		})
		r.Get("/orders", h.listOrders)
		r.Post("/orders", h.addOrder)
		r.Get("/sell-orders", h.listSellOrders)
		r.Post("/sell-orders", h.addSellOrder)
		r.Get("/dashboard", h.dashboard)
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	persistence := "connected"
	if !h.svc.Persistent() {
		persistence = "cache-only"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "persistence": persistence})
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, h.svc.SearchProducts(q))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.GetAllProducts())
}

func (h *HTTPHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decode(w, r, &req) {
		return
	}

	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.SKU == "" || req.Name == "":
		writeError(w, http.StatusBadRequest, "sku and name are required")
		return
	case req.Quantity < 0:
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	case req.Price.IsNegative():
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if req.DateReceived != "" {
		if _, err := time.Parse(domain.DateLayout, req.DateReceived); err != nil {
			writeError(w, http.StatusBadRequest, "date_received must be YYYY-MM-DD")
			return
		}
	}

	p := domain.Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Quantity:     req.Quantity,
		Price:        req.Price,
		SupplierID:   req.SupplierID,
		DateReceived: req.DateReceived,
	}
	h.svc.AddProduct(r.Context(), p)
	writeJSON(w, http.StatusCreated, p)
}

func (h *HTTPHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.svc.FindProductBySKU(chi.URLParam(r, "sku"))
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var req UpdateProductRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.Quantity == nil || req.Price == nil:
		writeError(w, http.StatusBadRequest, "quantity and price are required")
		return
	case *req.Quantity < 0:
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	case req.Price.IsNegative():
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	if _, ok := h.svc.FindProductBySKU(sku); !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.svc.UpdateProduct(r.Context(), sku, *req.Quantity, *req.Price)
	p, _ := h.svc.FindProductBySKU(sku)
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	if !h.svc.RemoveProduct(r.Context(), chi.URLParam(r, "sku")) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetAllSuppliers())
}

func (h *HTTPHandler) addSupplier(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if !decode(w, r, &req) {
		return
	}

	s := domain.Supplier{
		ID:      strings.TrimSpace(req.ID),
		Name:    strings.TrimSpace(req.Name),
		Contact: strings.TrimSpace(req.Contact),
	}
	if s.ID == "" || s.Name == "" || s.Contact == "" {
		writeError(w, http.StatusBadRequest, "id, name and contact are required")
		return
	}

	h.svc.AddSupplier(r.Context(), s)
	writeJSON(w, http.StatusCreated, s)
}

func (h *HTTPHandler) getSupplier(w http.ResponseWriter, r *http.Request) {
	s, ok := h.svc.FindSupplierByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "supplier not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *HTTPHandler) removeSupplier(w http.ResponseWriter, r *http.Request) {
	err := h.svc.RemoveSupplier(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrNotImplemented) {
		writeError(w, http.StatusNotImplemented, "supplier removal is not implemented")
		return
	}
	if err != nil {
		h.logger.Error("remove supplier failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetAllOrders())
}

func (h *HTTPHandler) addOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.SupplierID) == "" {
		writeError(w, http.StatusBadRequest, "supplier_id is required")
		return
	}
	if msg := validateItems(req.Items); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	date, err := parseDate(req.OrderDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "order_date must be YYYY-MM-DD")
		return
	}

	o := domain.Order{
		OrderID:    orderID(req.OrderID),
		SupplierID: strings.TrimSpace(req.SupplierID),
		Items:      req.Items,
		OrderDate:  date,
	}
	h.svc.AddOrder(r.Context(), o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *HTTPHandler) listSellOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetAllSellOrders())
}

func (h *HTTPHandler) addSellOrder(w http.ResponseWriter, r *http.Request) {
	var req SellOrderRequest
	if !decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.CustomerName) == "" {
		writeError(w, http.StatusBadRequest, "customer_name is required")
		return
	}
	if msg := validateItems(req.Items); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	date, err := parseDate(req.SellDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sell_date must be YYYY-MM-DD")
		return
	}
	if short := h.insufficientStock(req.Items); len(short) > 0 {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "insufficient stock", SKUs: short})
		return
	}

	o := domain.SellOrder{
		OrderID:      orderID(req.OrderID),
		CustomerName: strings.TrimSpace(req.CustomerName),
		Items:        req.Items,
		OrderDate:    date,
	}
	h.svc.AddSellOrder(r.Context(), o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *HTTPHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	threshold := h.lowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "threshold must be a non-negative integer")
			return
		}
		threshold = n
	}

	summary := h.svc.Summary(threshold)
	writeJSON(w, http.StatusOK, DashboardResponse{
		Summary:           summary,
		TotalValueDisplay: "$" + summary.TotalValue.StringFixed(2),
	})
}

// insufficientStock returns the skus whose requested total exceeds what is
// on hand. Unknown skus count as zero stock.
func (h *HTTPHandler) insufficientStock(items []domain.OrderItem) []string {
	wanted := make(map[string]int, len(items))
	for _, item := range items {
		wanted[item.SKU] += item.Quantity
	}

	var short []string
	for sku, qty := range wanted {
		p, ok := h.svc.FindProductBySKU(sku)
		if !ok || qty > p.Quantity {
			short = append(short, sku)
		}
	}
	sort.Strings(short)
	return short
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func validateItems(items []domain.OrderItem) string {
	if len(items) == 0 {
		return "at least one item is required"
	}
	for _, item := range items {
		if strings.TrimSpace(item.SKU) == "" {
			return "item sku is required"
		}
		if item.Quantity <= 0 {
			return "item quantity must be positive"
		}
	}
	return ""
}

// parseDate defaults to today (UTC) when raw is empty.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse(domain.DateLayout, raw)
}

func orderID(raw string) string {
	if id := strings.TrimSpace(raw); id != "" {
		return id
	}
	return uuid.NewString()
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
