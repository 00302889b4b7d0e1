package suggestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
)

const testContact = "c-panaderia"

// reloj fijo para que la ventana de 3 meses sea determinista
var testNow = func() time.Time {
	return time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
}

func order(id string, contactID string, date string, items ...model.LineItem) model.Order {
	return model.Order{
		ID: id,
		Data: model.OrderData{
			ContactID: contactID,
			Date:      date,
			State:     model.OrderStateCompleted,
			Kind:      model.OrderKindEmpty,
			LineItems: items,
		},
	}
}

func product(id string, name string, unit string) model.Product {
	return model.Product{
		ID:   id,
		Data: model.ProductData{ContactID: testContact, Name: name, Unit: unit},
	}
}

func TestGenerateSuggestionsAverage(t *testing.T) {
	engine := NewEngine(testNow)

	products := []model.Product{product("p1", "Harina", "kg")}
	orders := []model.Order{
		order("o1", testContact, "10-01-2024", model.LineItem{ProductID: "p1", Quantity: "10", Unit: "kg"}),
		order("o2", testContact, "10-02-2024", model.LineItem{ProductID: "p1", Quantity: "20", Unit: "kg"}),
		order("o3", testContact, "10-03-2024", model.LineItem{ProductID: "p1", Quantity: "30", Unit: "kg"}),
	}

	suggestions := engine.GenerateSuggestions(testContact, orders, products)
	require.Len(t, suggestions, 1)
	require.Equal(t, 20, suggestions[0].Average)
	require.Equal(t, 20, suggestions[0].Quantity)
	require.Equal(t, "kg", suggestions[0].Unit)
	require.Equal(t, 3, suggestions[0].OrdersAnalyzed)
}

func TestGenerateSuggestionsEmptyHistory(t *testing.T) {
	engine := NewEngine(testNow)

	suggestions := engine.GenerateSuggestions(testContact, nil, []model.Product{product("p1", "Harina", "kg")})
	require.Empty(t, suggestions)

	// pedidos de otro contacto tampoco cuentan
	orders := []model.Order{
		order("o1", "otro", "10-01-2024", model.LineItem{ProductID: "p1", Quantity: "10", Unit: "kg"}),
	}
	suggestions = engine.GenerateSuggestions(testContact, orders, []model.Product{product("p1", "Harina", "kg")})
	require.Empty(t, suggestions)
}

func TestGenerateSuggestionsDeterministicOrder(t *testing.T) {
	engine := NewEngine(testNow)

	products := []model.Product{
		product("p1", "Harina", "kg"),
		product("p2", "Azucar", "kg"),
		product("p3", "Levadura", "g"),
	}
	orders := []model.Order{
		order("o1", testContact, "10-01-2024",
			model.LineItem{ProductID: "p1", Quantity: "10", Unit: "kg"},
			model.LineItem{ProductID: "p2", Quantity: "5", Unit: "kg"},
			model.LineItem{ProductID: "p3", Quantity: "500", Unit: "g"}),
		order("o2", testContact, "10-02-2024",
			model.LineItem{ProductID: "p1", Quantity: "12", Unit: "kg"},
			model.LineItem{ProductID: "p2", Quantity: "7", Unit: "kg"}),
	}

	first := engine.GenerateSuggestions(testContact, orders, products)
	require.Len(t, first, 3)
	// mas evidencia primero, nombre como desempate
	require.Equal(t, "Azucar", first[0].Product.Data.Name)
	require.Equal(t, "Harina", first[1].Product.Data.Name)
	require.Equal(t, "Levadura", first[2].Product.Data.Name)

	// mismo insumo, mismo resultado
	second := engine.GenerateSuggestions(testContact, orders, products)
	require.Equal(t, first, second)
}

func TestGenerateSuggestionsMostRecentUnit(t *testing.T) {
	engine := NewEngine(testNow)

	products := []model.Product{product("p1", "Harina", "kg")}
	orders := []model.Order{
		order("o1", testContact, "10-01-2024", model.LineItem{ProductID: "p1", Quantity: "10", Unit: "bolsa"}),
		order("o2", testContact, "10-03-2024", model.LineItem{ProductID: "p1", Quantity: "2", Unit: "kg"}),
	}

	suggestions := engine.GenerateSuggestions(testContact, orders, products)
	require.Len(t, suggestions, 1)
	require.Equal(t, "kg", suggestions[0].Unit)

	// sin unidad en el historial: cae a la unidad del producto
	orders = []model.Order{
		order("o1", testContact, "10-01-2024", model.LineItem{ProductID: "p1", Quantity: "10"}),
	}
	suggestions = engine.GenerateSuggestions(testContact, orders, products)
	require.Len(t, suggestions, 1)
	require.Equal(t, "kg", suggestions[0].Unit)
}

func TestGenerateSuggestionsDanglingReference(t *testing.T) {
	engine := NewEngine(testNow)

	products := []model.Product{product("p1", "Harina", "kg")}
	orders := []model.Order{
		order("o1", testContact, "10-01-2024",
			model.LineItem{ProductID: "p1", Quantity: "10", Unit: "kg"},
			// referencia a un producto que ya no existe
			model.LineItem{ProductID: "fantasma", Quantity: "99", Unit: "kg"}),
	}

	suggestions := engine.GenerateSuggestions(testContact, orders, products)
	require.Len(t, suggestions, 1)
	require.Equal(t, "p1", suggestions[0].Product.ID)
}

func TestGenerateSuggestionsMalformedQuantity(t *testing.T) {
	engine := NewEngine(testNow)

	products := []model.Product{product("p1", "Harina", "kg")}
	orders := []model.Order{
		order("o1", testContact, "10-01-2024", model.LineItem{ProductID: "p1", Quantity: "10", Unit: "kg"}),
		// "abc" no cuenta como cero: se excluye del promedio
		order("o2", testContact, "10-02-2024", model.LineItem{ProductID: "p1", Quantity: "abc", Unit: "kg"}),
		order("o3", testContact, "10-03-2024", model.LineItem{ProductID: "p1", Quantity: "20", Unit: "kg"}),
	}

	suggestions := engine.GenerateSuggestions(testContact, orders, products)
	require.Len(t, suggestions, 1)
	require.Equal(t, 15, suggestions[0].Average)
	require.Equal(t, 2, suggestions[0].OrdersAnalyzed)

	// solo cantidades ilegibles: el producto queda fuera
	orders = []model.Order{
		order("o1", testContact, "10-01-2024", model.LineItem{ProductID: "p1", Quantity: "abc", Unit: "kg"}),
	}
	suggestions = engine.GenerateSuggestions(testContact, orders, products)
	require.Empty(t, suggestions)
}

func TestTrendDeviationBoundary(t *testing.T) {
	engine := NewEngine(testNow)

	orders := []model.Order{
		order("o1", testContact, "10-03-2024", model.LineItem{ProductID: "p1", Quantity: "20", Unit: "kg"}),
	}

	// desvio exacto del 20%: todavia no es atipico
	trend := engine.TrendDeviation(testContact, "p1", 24, orders)
	require.False(t, trend.Deviant)
	require.NotNil(t, trend.Average)
	require.Equal(t, 20, *trend.Average)

	// 25%: atipico
	trend = engine.TrendDeviation(testContact, "p1", 25, orders)
	require.True(t, trend.Deviant)

	// por debajo tambien cuenta
	trend = engine.TrendDeviation(testContact, "p1", 15, orders)
	require.True(t, trend.Deviant)
}

func TestTrendDeviationZeroAverage(t *testing.T) {
	engine := NewEngine(testNow)

	orders := []model.Order{
		order("o1", testContact, "10-03-2024", model.LineItem{ProductID: "p1", Quantity: "0", Unit: "kg"}),
		order("o2", testContact, "15-03-2024", model.LineItem{ProductID: "p1", Quantity: "0", Unit: "kg"}),
	}

	// promedio cero: nunca atipico, sin division por cero
	trend := engine.TrendDeviation(testContact, "p1", 1000, orders)
	require.False(t, trend.Deviant)
	require.Equal(t, 0, *trend.Average)
}

func TestTrendDeviationInsufficientEvidence(t *testing.T) {
	engine := NewEngine(testNow)

	// sin historial
	trend := engine.TrendDeviation(testContact, "p1", 10, nil)
	require.False(t, trend.Deviant)
	require.Nil(t, trend.Average)
	require.Nil(t, trend.CycleDays)

	// historial fuera de la ventana de 3 meses
	orders := []model.Order{
		order("o1", testContact, "10-11-2023", model.LineItem{ProductID: "p1", Quantity: "20", Unit: "kg"}),
	}
	trend = engine.TrendDeviation(testContact, "p1", 10, orders)
	require.Nil(t, trend.Average)

	// fecha ilegible: el pedido no bloquea, solo no aporta
	orders = []model.Order{
		order("o1", testContact, "fecha rota", model.LineItem{ProductID: "p1", Quantity: "20", Unit: "kg"}),
	}
	trend = engine.TrendDeviation(testContact, "p1", 10, orders)
	require.False(t, trend.Deviant)
	require.Nil(t, trend.Average)
}

func TestTrendDeviationCalendarWindow(t *testing.T) {
	engine := NewEngine(testNow)

	// 1 de enero esta justo en el borde de la ventana (abril - 3 meses)
	inside := order("o1", testContact, "2024-01-01 12:00:00", model.LineItem{ProductID: "p1", Quantity: "20", Unit: "kg"})
	outside := order("o2", testContact, "2023-12-31", model.LineItem{ProductID: "p1", Quantity: "80", Unit: "kg"})

	trend := engine.TrendDeviation(testContact, "p1", 20, []model.Order{inside, outside})
	require.NotNil(t, trend.Average)
	require.Equal(t, 20, *trend.Average)
}

func TestTrendCycleDays(t *testing.T) {
	engine := NewEngine(testNow)

	orders := []model.Order{
		order("o1", testContact, "2024-03-10", model.LineItem{ProductID: "p1", Quantity: "20", Unit: "kg"}),
		order("o2", testContact, "2024-02-20", model.LineItem{ProductID: "p1", Quantity: "22", Unit: "kg"}),
		order("o3", testContact, "2024-01-15", model.LineItem{ProductID: "p1", Quantity: "18", Unit: "kg"}),
	}

	trend := engine.TrendDeviation(testContact, "p1", 20, orders)
	// saltos de 19 y 36 dias: ciclo de 28
	require.NotNil(t, trend.CycleDays)
	require.Equal(t, 28, *trend.CycleDays)

	// con un solo pedido no hay ciclo
	trend = engine.TrendDeviation(testContact, "p1", 20, orders[:1])
	require.Nil(t, trend.CycleDays)
	require.NotNil(t, trend.Average)
}
