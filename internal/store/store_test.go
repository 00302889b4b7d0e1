package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
)

func TestOrderGetByContact(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &store{database: db}
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, contact_id, order_date, state, kind FROM purchase_order WHERE contact_id = \$1`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "contact_id", "order_date", "state", "kind"}).
			AddRow("o1", "c1", "15-03-2024 08:30:00", model.OrderStatePending, model.OrderKindEmpty))

	// conviven la forma nueva (product_id), la vieja (legacy_id)
	// y un renglon sin referencia que se descarta
	mock.ExpectQuery(`SELECT product_id, legacy_id, quantity, unit FROM order_line_item WHERE order_id = \$1 ORDER BY position`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "legacy_id", "quantity", "unit"}).
			AddRow("p1", nil, "10", "kg").
			AddRow(nil, "p2", "3", "bolsa").
			AddRow(nil, nil, "5", "kg"))

	orders, err := store.OrderGetByContact(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "o1", orders[0].ID)
	require.Equal(t, []model.LineItem{
		{ProductID: "p1", Quantity: "10", Unit: "kg"},
		{ProductID: "p2", Quantity: "3", Unit: "bolsa"},
	}, orders[0].Data.LineItems)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderPost(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &store{database: db}
	ctx := context.Background()

	order := model.Order{
		ID: "o1",
		Data: model.OrderData{
			ContactID: "c1",
			Date:      "2024-03-15 08:30:00",
			State:     model.OrderStatePending,
			Kind:      model.OrderKindSuggested,
			LineItems: []model.LineItem{
				{ProductID: "p1", Quantity: "10", Unit: "kg"},
			},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO purchase_order \(id, contact_id, order_date, state, kind\) VALUES \(\$1, \$2, \$3, \$4, \$5\)`).
		WithArgs("o1", "c1", "2024-03-15 08:30:00", model.OrderStatePending, model.OrderKindSuggested).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_line_item \(order_id, product_id, quantity, unit\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs("o1", "p1", "10", "kg").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := store.OrderPost(ctx, order)
	require.NoError(t, err)
	require.Equal(t, "o1", id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderPostAlreadyExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &store{database: db}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO purchase_order`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err = store.OrderPost(ctx, model.Order{ID: "o1", Data: model.OrderData{ContactID: "c1", State: model.OrderStatePending, Kind: model.OrderKindEmpty}})
	require.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderPutStateNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &store{database: db}
	ctx := context.Background()

	mock.ExpectExec(`UPDATE purchase_order SET state = \$1 WHERE id = \$2`).
		WithArgs(model.OrderStateCompleted, "no-existe").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.OrderPutState(ctx, "no-existe", model.OrderStateCompleted)
	require.ErrorIs(t, err, ErrNoRows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizeLineItem(t *testing.T) {
	// forma nueva
	item, ok := normalizeLineItem(rawLineItem{
		ProductID: nullString("p1"),
		Quantity:  nullString(" 10 "),
		Unit:      nullString("kg"),
	})
	require.True(t, ok)
	require.Equal(t, model.LineItem{ProductID: "p1", Quantity: "10", Unit: "kg"}, item)

	// forma vieja: la referencia viene en legacy_id
	item, ok = normalizeLineItem(rawLineItem{
		LegacyID: nullString("p2"),
		Quantity: nullString("3"),
	})
	require.True(t, ok)
	require.Equal(t, "p2", item.ProductID)

	// sin referencia no hay a quien atribuir el renglon
	_, ok = normalizeLineItem(rawLineItem{Quantity: nullString("5")})
	require.False(t, ok)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
