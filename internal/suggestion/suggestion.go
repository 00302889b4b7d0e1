package suggestion

import (
	"math"
	"sort"
	"time"

	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
)

// Motor de sugerencias y tendencias. Calculo puro sobre una foto
// en memoria de pedidos y productos: no hace IO ni guarda estado.

type Suggestion struct {
	Product        model.Product
	Quantity       int
	Unit           string
	Average        int
	OrdersAnalyzed int
}

type Trend struct {
	Deviant   bool
	Average   *int
	CycleDays *int
}

// desvio relativo a partir del cual se marca una cantidad como atipica
const deviationThreshold = 0.20

// ventana de tendencia: meses de calendario hacia atras
const trendWindowMonths = 3

type Engine struct {
	now func() time.Time
}

// NewEngine crea el motor. now es inyectable para los tests;
// con nil se usa time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// GenerateSuggestions arma la canasta sugerida para un nuevo pedido del
// contacto: por cada producto con historial, la cantidad promedio y la
// ultima unidad usada. Sin historial devuelve lista vacia.
func (e *Engine) GenerateSuggestions(contactID string, orders []model.Order, products []model.Product) []Suggestion {
	productByID := make(map[string]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	type group struct {
		quantities []float64
		orders     map[string]struct{}
		lastDate   time.Time
		lastUnit   string
	}
	groups := make(map[string]*group)

	for _, order := range orders {
		if order.Data.ContactID != contactID {
			continue
		}
		orderDate, orderDateOK := model.ParseOrderDate(order.Data.Date)
		for _, item := range order.Data.LineItems {
			// referencia colgante: no hay producto al que atribuirla
			if _, ok := productByID[item.ProductID]; !ok {
				continue
			}
			q, ok := model.ParseQuantity(item.Quantity)
			if !ok {
				continue
			}
			g := groups[item.ProductID]
			if g == nil {
				g = &group{orders: make(map[string]struct{})}
				groups[item.ProductID] = g
			}
			g.quantities = append(g.quantities, q)
			g.orders[order.ID] = struct{}{}
			// la unidad mas reciente; pedidos sin fecha legible no compiten
			if item.Unit != "" && orderDateOK && !orderDate.Before(g.lastDate) {
				g.lastDate = orderDate
				g.lastUnit = item.Unit
			}
		}
	}

	suggestions := make([]Suggestion, 0, len(groups))
	for productID, g := range groups {
		if len(g.quantities) == 0 {
			continue
		}
		product := productByID[productID]
		avg := roundMean(g.quantities)
		unit := g.lastUnit
		if unit == "" {
			unit = product.Data.Unit
		}
		suggestions = append(suggestions, Suggestion{
			Product:        product,
			Quantity:       avg,
			Unit:           unit,
			Average:        avg,
			OrdersAnalyzed: len(g.orders),
		})
	}

	// mas evidencia primero; el nombre desempata para que el orden sea estable
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].OrdersAnalyzed != suggestions[j].OrdersAnalyzed {
			return suggestions[i].OrdersAnalyzed > suggestions[j].OrdersAnalyzed
		}
		return suggestions[i].Product.Data.Name < suggestions[j].Product.Data.Name
	})

	return suggestions
}

// TrendDeviation decide si una cantidad a punto de guardarse se aparta
// del historial reciente del producto para ese contacto. Nunca falla:
// datos insuficientes o ilegibles colapsan en "sin aviso".
func (e *Engine) TrendDeviation(contactID string, productID string, candidateQuantity float64, orders []model.Order) Trend {
	// ventana de meses de calendario, no de dias fijos
	since := e.now().AddDate(0, -trendWindowMonths, 0)

	type dated struct {
		date     time.Time
		quantity float64
		hasQty   bool
	}
	var recent []dated

	for _, order := range orders {
		if order.Data.ContactID != contactID {
			continue
		}
		date, ok := model.ParseOrderDate(order.Data.Date)
		if !ok || date.Before(since) {
			continue
		}
		for _, item := range order.Data.LineItems {
			if item.ProductID != productID {
				continue
			}
			q, qok := model.ParseQuantity(item.Quantity)
			recent = append(recent, dated{date: date, quantity: q, hasQty: qok})
			break
		}
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].date.After(recent[j].date)
	})

	var quantities []float64
	for _, d := range recent {
		if d.hasQty {
			quantities = append(quantities, d.quantity)
		}
	}
	if len(quantities) == 0 {
		return Trend{}
	}

	avg := roundMean(quantities)

	var deviant bool
	if avg != 0 {
		deviant = math.Abs(candidateQuantity-float64(avg))/float64(avg) > deviationThreshold
	}

	trend := Trend{Deviant: deviant, Average: &avg}

	// cadencia: promedio de los saltos en dias entre pedidos consecutivos
	var gaps []float64
	for i := 0; i+1 < len(recent); i++ {
		gap := recent[i].date.Sub(recent[i+1].date).Hours() / 24
		if gap > 0 && !math.IsInf(gap, 0) {
			gaps = append(gaps, math.Round(gap))
		}
	}
	if len(gaps) > 0 {
		cycle := roundMean(gaps)
		trend.CycleDays = &cycle
	}

	return trend
}

func roundMean(values []float64) int {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return int(math.Round(sum / float64(len(values))))
}
