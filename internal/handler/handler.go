package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yosbany/NRDOperaciones-sub000/internal/auth"
	"github.com/yosbany/NRDOperaciones-sub000/internal/gzip"
	"github.com/yosbany/NRDOperaciones-sub000/internal/handler/config"
	"github.com/yosbany/NRDOperaciones-sub000/internal/logger"
	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
	"github.com/yosbany/NRDOperaciones-sub000/internal/service"
)

func Serve(cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	return srv.ListenAndServe()
}

type handler struct {
	auth    auth.Auth
	service service.Service
	zaplog  *zap.Logger
}

func newHandler(auth auth.Auth, service service.Service, zaplog *zap.Logger) *handler {
	return &handler{
		auth:    auth,
		service: service,
		zaplog:  zaplog,
	}
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/register", h.mdlw(h.auth.Register, false))
	mux.HandleFunc("POST /api/user/login", h.mdlw(h.auth.Login, false))
	mux.HandleFunc("GET /api/contacts", h.mdlw(h.GetContacts, true))
	mux.HandleFunc("GET /api/products", h.mdlw(h.GetProducts, true))
	mux.HandleFunc("POST /api/products", h.mdlw(h.PostProduct, true))
	mux.HandleFunc("PUT /api/products/{id}", h.mdlw(h.PutProduct, true))
	mux.HandleFunc("GET /api/contacts/{id}/orders", h.mdlw(h.GetOrders, true))
	mux.HandleFunc("POST /api/orders", h.mdlw(h.PostOrder, true))
	mux.HandleFunc("PUT /api/orders/{id}/state", h.mdlw(h.PutOrderState, true))
	mux.HandleFunc("DELETE /api/orders/{id}", h.mdlw(h.DeleteOrder, true))
	mux.HandleFunc("GET /api/contacts/{id}/suggestions", h.mdlw(h.GetSuggestions, true))
	mux.HandleFunc("POST /api/orders/trend-check", h.mdlw(h.PostTrendCheck, true))
	mux.HandleFunc("GET /api/recipes", h.mdlw(h.GetRecipes, true))
	mux.HandleFunc("GET /api/recipes/{id}/cost", h.mdlw(h.GetRecipeCost, true))

	return mux
}

func (h *handler) mdlw(fn http.HandlerFunc, authed bool) http.HandlerFunc {
	if authed {
		fn = h.auth.Middleware(fn)
	}
	return gzip.GzipMiddleware(logger.RequestLogMdlw(fn, h.zaplog))
}

// Contactos

type contactJSONResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Phone     string   `json:"phone,omitempty"`
	OrderDays []string `json:"order_days,omitempty"`
}

func (h *handler) GetContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.GetContacts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	contactsJSON := make([]contactJSONResponse, 0, len(contacts))
	for _, contact := range contacts {
		contactsJSON = append(contactsJSON, contactJSONResponse{
			ID:        contact.ID,
			Name:      contact.Data.Name,
			Kind:      contact.Data.Kind,
			Phone:     contact.Data.Phone,
			OrderDays: contact.Data.OrderDays,
		})
	}
	h.writeJSON(w, contactsJSON)
}

// Productos

type productJSON struct {
	ID               string           `json:"id,omitempty"`
	ContactID        string           `json:"contact_id,omitempty"`
	Name             string           `json:"name"`
	Unit             string           `json:"unit,omitempty"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	OutOfSeason      bool             `json:"out_of_season,omitempty"`
	OutOfSeasonUntil string           `json:"out_of_season_until,omitempty"`
	Archived         bool             `json:"archived,omitempty"`
}

func productFromJSON(pj productJSON) model.Product {
	product := model.Product{
		ID: pj.ID,
		Data: model.ProductData{
			ContactID:        pj.ContactID,
			Name:             pj.Name,
			Unit:             pj.Unit,
			OutOfSeason:      pj.OutOfSeason,
			OutOfSeasonUntil: pj.OutOfSeasonUntil,
			Archived:         pj.Archived,
		},
	}
	if pj.Price != nil {
		product.Data.Price = decimal.NewNullDecimal(*pj.Price)
	}
	return product
}

func productToJSON(product model.Product) productJSON {
	pj := productJSON{
		ID:               product.ID,
		ContactID:        product.Data.ContactID,
		Name:             product.Data.Name,
		Unit:             product.Data.Unit,
		OutOfSeason:      product.Data.OutOfSeason,
		OutOfSeasonUntil: product.Data.OutOfSeasonUntil,
		Archived:         product.Data.Archived,
	}
	if product.Data.Price.Valid {
		price := product.Data.Price.Decimal
		pj.Price = &price
	}
	return pj
}

func (h *handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetProducts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	productsJSON := make([]productJSON, 0, len(products))
	for _, product := range products {
		productsJSON = append(productsJSON, productToJSON(product))
	}
	h.writeJSON(w, productsJSON)
}

func (h *handler) PostProduct(w http.ResponseWriter, r *http.Request) {
	var pj productJSON
	if !h.readJSON(w, r, &pj) {
		return
	}

	id, err := h.service.PostProduct(productFromJSON(pj))
	if err != nil {
		switch err {
		case service.ErrInsufficientData:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case service.ErrAlreadyExists:
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, struct {
		ID string `json:"id"`
	}{ID: id})
}

func (h *handler) PutProduct(w http.ResponseWriter, r *http.Request) {
	var pj productJSON
	if !h.readJSON(w, r, &pj) {
		return
	}
	pj.ID = r.PathValue("id")

	err := h.service.PutProduct(productFromJSON(pj))
	if err != nil {
		switch err {
		case service.ErrInsufficientData:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case service.ErrNotFound:
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
}

// Pedidos

type lineItemJSON struct {
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit,omitempty"`
}

type orderJSON struct {
	ID        string         `json:"id,omitempty"`
	ContactID string         `json:"contact_id"`
	Date      string         `json:"date,omitempty"`
	State     string         `json:"state,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	LineItems []lineItemJSON `json:"line_items"`
}

func orderToJSON(order model.Order) orderJSON {
	oj := orderJSON{
		ID:        order.ID,
		ContactID: order.Data.ContactID,
		Date:      order.Data.Date,
		State:     order.Data.State,
		Kind:      order.Data.Kind,
		LineItems: make([]lineItemJSON, 0, len(order.Data.LineItems)),
	}
	for _, item := range order.Data.LineItems {
		oj.LineItems = append(oj.LineItems, lineItemJSON(item))
	}
	return oj
}

func orderFromJSON(oj orderJSON) model.Order {
	order := model.Order{
		ID: oj.ID,
		Data: model.OrderData{
			ContactID: oj.ContactID,
			Date:      oj.Date,
			State:     oj.State,
			Kind:      oj.Kind,
		},
	}
	for _, item := range oj.LineItems {
		order.Data.LineItems = append(order.Data.LineItems, model.LineItem(item))
	}
	return order
}

func (h *handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrders(r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrInsufficientData:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ordersJSON := make([]orderJSON, 0, len(orders))
	for _, order := range orders {
		ordersJSON = append(ordersJSON, orderToJSON(order))
	}
	h.writeJSON(w, ordersJSON)
}

func (h *handler) PostOrder(w http.ResponseWriter, r *http.Request) {
	var oj orderJSON
	if !h.readJSON(w, r, &oj) {
		return
	}

	order, err := h.service.PostOrder(orderFromJSON(oj))
	if err != nil {
		switch err {
		case service.ErrInsufficientData, service.ErrUnknownState, service.ErrUnknownKind:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case service.ErrAlreadyExists:
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, orderToJSON(order))
}

type putOrderStateJSONRequest struct {
	ContactID string `json:"contact_id"`
	State     string `json:"state"`
}

func (h *handler) PutOrderState(w http.ResponseWriter, r *http.Request) {
	var req putOrderStateJSONRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	err := h.service.PutOrderState(req.ContactID, r.PathValue("id"), req.State)
	if err != nil {
		switch err {
		case service.ErrInsufficientData, service.ErrUnknownState:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case service.ErrNotFound:
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
}

func (h *handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteOrder(r.URL.Query().Get("contact"), r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrInsufficientData:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case service.ErrNotFound:
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
}

// Sugerencias y tendencias

type suggestionJSONResponse struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	Unit           string `json:"unit"`
	Average        int    `json:"average"`
	OrdersAnalyzed int    `json:"orders_analyzed"`
	OutOfSeason    bool   `json:"out_of_season"`
	Archived       bool   `json:"archived"`
}

type suggestedOrderJSONResponse struct {
	Order       orderJSON                `json:"order"`
	Suggestions []suggestionJSONResponse `json:"suggestions"`
}

func (h *handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	order, suggestions, err := h.service.SuggestedOrder(r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrInsufficientData:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	resp := suggestedOrderJSONResponse{
		Order:       orderToJSON(order),
		Suggestions: make([]suggestionJSONResponse, 0, len(suggestions)),
	}
	// la disponibilidad se marca aca: el motor sugiere por demanda
	// aunque el producto este archivado o fuera de temporada
	today := time.Now()
	for _, s := range suggestions {
		resp.Suggestions = append(resp.Suggestions, suggestionJSONResponse{
			ProductID:      s.Product.ID,
			ProductName:    s.Product.Data.Name,
			Quantity:       s.Quantity,
			Unit:           s.Unit,
			Average:        s.Average,
			OrdersAnalyzed: s.OrdersAnalyzed,
			OutOfSeason:    s.Product.CurrentlyOutOfSeason(today),
			Archived:       s.Product.Data.Archived,
		})
	}
	h.writeJSON(w, resp)
}

type trendCheckJSONRequest struct {
	ContactID string  `json:"contact_id"`
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type trendCheckJSONResponse struct {
	Deviant   bool `json:"deviant"`
	Average   *int `json:"average"`
	CycleDays *int `json:"cycle_days"`
}

func (h *handler) PostTrendCheck(w http.ResponseWriter, r *http.Request) {
	var req trendCheckJSONRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	trend, err := h.service.CheckQuantity(req.ContactID, req.ProductID, req.Quantity)
	if err != nil {
		switch err {
		case service.ErrInsufficientData:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, trendCheckJSONResponse{
		Deviant:   trend.Deviant,
		Average:   trend.Average,
		CycleDays: trend.CycleDays,
	})
}

// Recetas

type recipeJSONResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	ProductID   string               `json:"product_id,omitempty"`
	Yield       int                  `json:"yield"`
	Ingredients []ingredientJSONItem `json:"ingredients"`
}

type ingredientJSONItem struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
}

func (h *handler) GetRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.GetRecipes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	recipesJSON := make([]recipeJSONResponse, 0, len(recipes))
	for _, rec := range recipes {
		rj := recipeJSONResponse{
			ID:          rec.ID,
			Name:        rec.Data.Name,
			ProductID:   rec.Data.ProductID,
			Yield:       rec.Data.Yield,
			Ingredients: make([]ingredientJSONItem, 0, len(rec.Data.Ingredients)),
		}
		for _, ing := range rec.Data.Ingredients {
			rj.Ingredients = append(rj.Ingredients, ingredientJSONItem(ing))
		}
		recipesJSON = append(recipesJSON, rj)
	}
	h.writeJSON(w, recipesJSON)
}

type recipeCostJSONResponse struct {
	Total    decimal.Decimal `json:"total"`
	PerUnit  decimal.Decimal `json:"per_unit"`
	Costed   int             `json:"costed"`
	Uncosted int             `json:"uncosted"`
}

func (h *handler) GetRecipeCost(w http.ResponseWriter, r *http.Request) {
	cost, _, err := h.service.RecipeCost(r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrInsufficientData:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case service.ErrNotFound:
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, recipeCostJSONResponse{
		Total:    cost.Total,
		PerUnit:  cost.PerUnit,
		Costed:   cost.Costed,
		Uncosted: cost.Uncosted,
	})
}

// helpers

func (h *handler) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(buf.Bytes(), v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *handler) writeJSON(w http.ResponseWriter, v any) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}
