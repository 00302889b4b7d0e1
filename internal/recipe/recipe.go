package recipe

import (
	"github.com/shopspring/decimal"

	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
)

// Costeo de recetas. Igual que el motor de sugerencias, es calculo
// puro sobre una foto: los datos incompletos restan precision,
// nunca cortan el calculo.

type Cost struct {
	Total    decimal.Decimal
	PerUnit  decimal.Decimal
	Costed   int
	Uncosted int
}

type IngredientCost struct {
	Ingredient model.Ingredient
	Product    model.Product
	Found      bool
	Cost       decimal.Decimal
	Costed     bool
}

// ComputeCost suma cantidad por precio de cada ingrediente. Un
// ingrediente sin producto o sin precio queda sin costear y se
// informa aparte para que la pantalla lo marque.
func ComputeCost(recipe model.Recipe, products []model.Product) (Cost, []IngredientCost) {
	productByID := make(map[string]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	cost := Cost{Total: decimal.Zero, PerUnit: decimal.Zero}
	details := make([]IngredientCost, 0, len(recipe.Data.Ingredients))

	for _, ing := range recipe.Data.Ingredients {
		detail := IngredientCost{Ingredient: ing}

		p, ok := productByID[ing.ProductID]
		if ok {
			detail.Product = p
			detail.Found = true
			if p.Data.Price.Valid {
				detail.Cost = ing.Quantity.Mul(p.Data.Price.Decimal)
				detail.Costed = true
			}
		}

		if detail.Costed {
			cost.Total = cost.Total.Add(detail.Cost)
			cost.Costed++
		} else {
			cost.Uncosted++
		}
		details = append(details, detail)
	}

	if recipe.Data.Yield > 0 {
		cost.PerUnit = cost.Total.DivRound(decimal.NewFromInt(int64(recipe.Data.Yield)), 4)
	}

	return cost, details
}
