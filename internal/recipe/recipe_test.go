package recipe

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
)

func priced(id string, name string, price string) model.Product {
	return model.Product{
		ID: id,
		Data: model.ProductData{
			Name:  name,
			Price: decimal.NewNullDecimal(decimal.RequireFromString(price)),
		},
	}
}

func TestComputeCost(t *testing.T) {
	products := []model.Product{
		priced("p1", "Harina", "45.50"),
		priced("p2", "Levadura", "320"),
	}
	receta := model.Recipe{
		ID: "r1",
		Data: model.RecipeData{
			Name:      "Pan frances",
			ProductID: "pan",
			Yield:     40,
			Ingredients: []model.Ingredient{
				{ProductID: "p1", Quantity: decimal.RequireFromString("10"), Unit: "kg"},
				{ProductID: "p2", Quantity: decimal.RequireFromString("0.2"), Unit: "kg"},
			},
		},
	}

	cost, details := ComputeCost(receta, products)
	require.Len(t, details, 2)
	require.Equal(t, 2, cost.Costed)
	require.Equal(t, 0, cost.Uncosted)
	// 10*45.50 + 0.2*320 = 519
	require.True(t, cost.Total.Equal(decimal.RequireFromString("519")), cost.Total.String())
	// 519 / 40 = 12.975
	require.True(t, cost.PerUnit.Equal(decimal.RequireFromString("12.975")), cost.PerUnit.String())
}

func TestComputeCostDegrades(t *testing.T) {
	// p2 sin precio, p3 inexistente
	products := []model.Product{
		priced("p1", "Harina", "40"),
		{ID: "p2", Data: model.ProductData{Name: "Sal"}},
	}
	receta := model.Recipe{
		Data: model.RecipeData{
			Yield: 10,
			Ingredients: []model.Ingredient{
				{ProductID: "p1", Quantity: decimal.RequireFromString("2")},
				{ProductID: "p2", Quantity: decimal.RequireFromString("1")},
				{ProductID: "p3", Quantity: decimal.RequireFromString("5")},
			},
		},
	}

	cost, details := ComputeCost(receta, products)
	require.Equal(t, 1, cost.Costed)
	require.Equal(t, 2, cost.Uncosted)
	require.True(t, cost.Total.Equal(decimal.RequireFromString("80")))

	require.True(t, details[0].Costed)
	require.True(t, details[1].Found)
	require.False(t, details[1].Costed)
	require.False(t, details[2].Found)
}

func TestComputeCostZeroYield(t *testing.T) {
	receta := model.Recipe{Data: model.RecipeData{Yield: 0}}

	cost, details := ComputeCost(receta, nil)
	require.Empty(t, details)
	require.True(t, cost.Total.IsZero())
	require.True(t, cost.PerUnit.IsZero())
}
