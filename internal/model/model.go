package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contactos: proveedores, clientes y elaboradores

type Contact struct {
	ID   string
	Data ContactData
}
type ContactData struct {
	Name      string
	Kind      string
	Phone     string
	OrderDays []string
}

const (
	ContactKindSupplier = "SUPPLIER"
	ContactKindClient   = "CLIENT"
	ContactKindProducer = "PRODUCER"
)

// Pedidos

type Order struct {
	ID   string
	Data OrderData
}
type OrderData struct {
	ContactID string
	Date      string
	State     string
	Kind      string
	LineItems []LineItem
}

// LineItem es la forma canonica. El store normaliza las formas
// historicas antes de que lleguen aca.
type LineItem struct {
	ProductID string
	Quantity  string
	Unit      string
}

const (
	OrderStatePending     = "PENDING"
	OrderStateSentPrinted = "SENT_PRINTED"
	OrderStateCompleted   = "COMPLETED"
	OrderStateRejected    = "REJECTED"
)

const (
	OrderKindEmpty      = "EMPTY"
	OrderKindDuplicated = "DUPLICATED"
	OrderKindSuggested  = "SUGGESTED"
	OrderKindAutomatic  = "AUTOMATIC"
)

// Productos

type Product struct {
	ID   string
	Data ProductData
}
type ProductData struct {
	ContactID        string
	Name             string
	Unit             string
	Price            decimal.NullDecimal
	OutOfSeason      bool
	OutOfSeasonUntil string
	Archived         bool
}

// CurrentlyOutOfSeason: fuera de temporada si la marca esta activa
// y hoy todavia no paso la fecha limite
func (p Product) CurrentlyOutOfSeason(today time.Time) bool {
	if !p.Data.OutOfSeason {
		return false
	}
	until, ok := ParseOrderDate(p.Data.OutOfSeasonUntil)
	if !ok {
		return false
	}
	// la fecha limite es inclusiva hasta el fin del dia
	return today.Before(until.AddDate(0, 0, 1))
}

// Recetas de costo

type Recipe struct {
	ID   string
	Data RecipeData
}
type RecipeData struct {
	Name        string
	ProductID   string
	Yield       int
	Ingredients []Ingredient
}
type Ingredient struct {
	ProductID string
	Quantity  decimal.Decimal
	Unit      string
}
