package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yosbany/NRDOperaciones-sub000/internal/datacache"
	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
	"github.com/yosbany/NRDOperaciones-sub000/internal/notification"
	"github.com/yosbany/NRDOperaciones-sub000/internal/recipe"
	"github.com/yosbany/NRDOperaciones-sub000/internal/store"
	"github.com/yosbany/NRDOperaciones-sub000/internal/suggestion"
)

type Service interface {
	GetContacts() ([]model.Contact, error)
	GetProducts() ([]model.Product, error)
	PostProduct(product model.Product) (string, error)
	PutProduct(product model.Product) error
	GetOrders(contactID string) ([]model.Order, error)
	PostOrder(order model.Order) (model.Order, error)
	PutOrderState(contactID string, orderID string, state string) error
	DeleteOrder(contactID string, orderID string) error
	SuggestedOrder(contactID string) (model.Order, []suggestion.Suggestion, error)
	CheckQuantity(contactID string, productID string, quantity float64) (suggestion.Trend, error)
	GetRecipes() ([]model.Recipe, error)
	RecipeCost(recipeID string) (recipe.Cost, []recipe.IngredientCost, error)
	Close()
}

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrUnknownState     = errors.New("unknown order state")
	ErrUnknownKind      = errors.New("unknown order kind")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotFound         = errors.New("not found")
)

// formato local con el que se escriben las fechas nuevas
const orderDateLayout = "02-01-2006 15:04:05"

type service struct {
	store    store.Store
	engine   *suggestion.Engine
	cache    *datacache.Cache
	notifier notification.Notifier
	zaplog   *zap.Logger

	subsMutex sync.Mutex
	subs      map[string]*datacache.Subscription
}

// NewService arma el servicio. now es inyectable para los tests;
// con nil se usa time.Now.
func NewService(store store.Store, notifier notification.Notifier, zaplog *zap.Logger, now func() time.Time) Service {
	return &service{
		store:    store,
		engine:   suggestion.NewEngine(now),
		cache:    datacache.NewCache(),
		notifier: notifier,
		zaplog:   zaplog,
		subs:     make(map[string]*datacache.Subscription),
	}
}

func (service *service) GetContacts() ([]model.Contact, error) {
	ctx := context.Background()

	return service.store.ContactGetAll(ctx)
}

func (service *service) GetProducts() ([]model.Product, error) {
	ctx := context.Background()

	if cached, ok := service.cache.Get("products"); ok {
		return cached.([]model.Product), nil
	}

	products, err := service.store.ProductGetAll(ctx)
	if err != nil {
		return nil, err
	}
	service.publish("products", products)
	return products, nil
}

func (service *service) PostProduct(product model.Product) (string, error) {
	ctx := context.Background()

	if product.Data.Name == "" {
		return "", ErrInsufficientData
	}

	id, err := service.store.ProductPost(ctx, product)
	if err != nil {
		switch err {
		case store.ErrAlreadyExists:
			return "", ErrAlreadyExists
		default:
			return "", err
		}
	}
	service.cache.Invalidate("products")
	return id, nil
}

func (service *service) PutProduct(product model.Product) error {
	ctx := context.Background()

	if product.ID == "" || product.Data.Name == "" {
		return ErrInsufficientData
	}

	err := service.store.ProductPut(ctx, product)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			return ErrNotFound
		default:
			return err
		}
	}
	service.cache.Invalidate("products")
	return nil
}

func (service *service) GetOrders(contactID string) ([]model.Order, error) {
	ctx := context.Background()

	if contactID == "" {
		return nil, ErrInsufficientData
	}

	key := ordersKey(contactID)
	if cached, ok := service.cache.Get(key); ok {
		return cached.([]model.Order), nil
	}

	orders, err := service.store.OrderGetByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	service.publish(key, orders)
	return orders, nil
}

func (service *service) PostOrder(order model.Order) (model.Order, error) {
	ctx := context.Background()

	if order.Data.ContactID == "" {
		return model.Order{}, ErrInsufficientData
	}
	if order.Data.State == "" {
		order.Data.State = model.OrderStatePending
	}
	if order.Data.Kind == "" {
		order.Data.Kind = model.OrderKindEmpty
	}
	if !validOrderState(order.Data.State) {
		return model.Order{}, ErrUnknownState
	}
	if !validOrderKind(order.Data.Kind) {
		return model.Order{}, ErrUnknownKind
	}
	if order.Data.Date == "" {
		order.Data.Date = time.Now().Format(orderDateLayout)
	}

	id, err := service.store.OrderPost(ctx, order)
	if err != nil {
		switch err {
		case store.ErrAlreadyExists:
			return model.Order{}, ErrAlreadyExists
		default:
			return model.Order{}, err
		}
	}
	order.ID = id
	service.cache.Invalidate(ordersKey(order.Data.ContactID))

	if order.Data.State == model.OrderStatePending {
		go service.notifyPending(order)
	}

	return order, nil
}

func (service *service) PutOrderState(contactID string, orderID string, state string) error {
	ctx := context.Background()

	if contactID == "" || orderID == "" {
		return ErrInsufficientData
	}
	if !validOrderState(state) {
		return ErrUnknownState
	}

	err := service.store.OrderPutState(ctx, orderID, state)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			return ErrNotFound
		default:
			return err
		}
	}
	service.cache.Invalidate(ordersKey(contactID))
	return nil
}

func (service *service) DeleteOrder(contactID string, orderID string) error {
	ctx := context.Background()

	if contactID == "" || orderID == "" {
		return ErrInsufficientData
	}

	err := service.store.OrderDelete(ctx, orderID)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			return ErrNotFound
		default:
			return err
		}
	}
	service.cache.Invalidate(ordersKey(contactID))
	return nil
}

// SuggestedOrder arma un pedido listo para guardar con la canasta
// que propone el motor para el contacto.
func (service *service) SuggestedOrder(contactID string) (model.Order, []suggestion.Suggestion, error) {
	if contactID == "" {
		return model.Order{}, nil, ErrInsufficientData
	}

	orders, err := service.GetOrders(contactID)
	if err != nil {
		return model.Order{}, nil, err
	}
	products, err := service.GetProducts()
	if err != nil {
		return model.Order{}, nil, err
	}

	suggestions := service.engine.GenerateSuggestions(contactID, orders, products)

	order := model.Order{
		Data: model.OrderData{
			ContactID: contactID,
			Date:      time.Now().Format(orderDateLayout),
			State:     model.OrderStatePending,
			Kind:      model.OrderKindSuggested,
		},
	}
	for _, s := range suggestions {
		order.Data.LineItems = append(order.Data.LineItems, model.LineItem{
			ProductID: s.Product.ID,
			Quantity:  strconv.Itoa(s.Quantity),
			Unit:      s.Unit,
		})
	}

	return order, suggestions, nil
}

// CheckQuantity consulta al motor si la cantidad ingresada se aparta
// de la tendencia y, de ser asi, dispara el aviso.
func (service *service) CheckQuantity(contactID string, productID string, quantity float64) (suggestion.Trend, error) {
	if contactID == "" || productID == "" {
		return suggestion.Trend{}, ErrInsufficientData
	}

	orders, err := service.GetOrders(contactID)
	if err != nil {
		return suggestion.Trend{}, err
	}

	trend := service.engine.TrendDeviation(contactID, productID, quantity, orders)

	if trend.Deviant && service.notifier != nil {
		if product, ok := service.findProduct(productID); ok {
			service.notifier.TrendWarning(contactID, product, quantity, *trend.Average, trend.CycleDays)
		}
	}

	return trend, nil
}

func (service *service) GetRecipes() ([]model.Recipe, error) {
	ctx := context.Background()

	return service.store.RecipeGetAll(ctx)
}

func (service *service) RecipeCost(recipeID string) (recipe.Cost, []recipe.IngredientCost, error) {
	ctx := context.Background()

	if recipeID == "" {
		return recipe.Cost{}, nil, ErrInsufficientData
	}

	rec, err := service.store.RecipeGet(ctx, recipeID)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			return recipe.Cost{}, nil, ErrNotFound
		default:
			return recipe.Cost{}, nil, err
		}
	}

	products, err := service.GetProducts()
	if err != nil {
		return recipe.Cost{}, nil, err
	}

	cost, details := recipe.ComputeCost(rec, products)
	return cost, details, nil
}

// Close da de baja las suscripciones del cache.
func (service *service) Close() {
	service.subsMutex.Lock()
	defer service.subsMutex.Unlock()

	for _, sub := range service.subs {
		sub.Close()
	}
	service.subs = make(map[string]*datacache.Subscription)
}

// publish guarda la foto en el cache manteniendo viva la entrada
// con una suscripcion propia del servicio.
func (service *service) publish(key string, value any) {
	service.subsMutex.Lock()
	if _, ok := service.subs[key]; !ok {
		service.subs[key] = service.cache.Subscribe(key, nil)
	}
	service.subsMutex.Unlock()

	service.cache.Publish(key, value)
}

func (service *service) notifyPending(order model.Order) {
	contacts, err := service.store.ContactGetAll(context.Background())
	if err != nil {
		service.zaplog.Warn("contact lookup failed", zap.Error(err))
		return
	}
	for _, contact := range contacts {
		if contact.ID == order.Data.ContactID {
			if service.notifier != nil {
				service.notifier.OrderPending(order, contact)
			}
			return
		}
	}
}

func (service *service) findProduct(productID string) (model.Product, bool) {
	products, err := service.GetProducts()
	if err != nil {
		return model.Product{}, false
	}
	for _, p := range products {
		if p.ID == productID {
			return p, true
		}
	}
	return model.Product{}, false
}

func ordersKey(contactID string) string {
	return "orders/" + contactID
}

func validOrderState(state string) bool {
	switch state {
	case model.OrderStatePending,
		model.OrderStateSentPrinted,
		model.OrderStateCompleted,
		model.OrderStateRejected:
		return true
	}
	return false
}

func validOrderKind(kind string) bool {
	switch kind {
	case model.OrderKindEmpty,
		model.OrderKindDuplicated,
		model.OrderKindSuggested,
		model.OrderKindAutomatic:
		return true
	}
	return false
}
