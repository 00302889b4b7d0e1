package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
	"github.com/yosbany/NRDOperaciones-sub000/internal/store/config"
)

type Store interface {
	AuthRegister(ctx context.Context, login string, password string) (string, error)
	AuthLogin(ctx context.Context, login string, password string) (string, error)
	ContactGetAll(ctx context.Context) ([]model.Contact, error)
	ProductGetAll(ctx context.Context) ([]model.Product, error)
	ProductPost(ctx context.Context, product model.Product) (string, error)
	ProductPut(ctx context.Context, product model.Product) error
	OrderGetAll(ctx context.Context) ([]model.Order, error)
	OrderGetByContact(ctx context.Context, contactID string) ([]model.Order, error)
	OrderPost(ctx context.Context, order model.Order) (string, error)
	OrderPutState(ctx context.Context, orderID string, state string) error
	OrderDelete(ctx context.Context, orderID string) error
	RecipeGetAll(ctx context.Context) ([]model.Recipe, error)
	RecipeGet(ctx context.Context, recipeID string) (model.Recipe, error)
}

var (
	ErrNoRows        = errors.New("no rows")
	ErrAlreadyExists = errors.New("already exists")
)

type store struct {
	database *sql.DB
}

func NewStore(cfg config.Config) (Store, error) {
	db, err := sql.Open("pgx", cfg.DBDsn)
	if err != nil {
		return nil, err
	}

	// Tabla de cuentas
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS auth (" +
			" login VARCHAR (20) PRIMARY KEY," +
			" uuid SERIAL UNIQUE," +
			" password VARCHAR (30) NOT NULL" +
			" );")
	if err != nil {
		return nil, err
	}

	// Tabla de contactos: proveedores, clientes y elaboradores
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS contact (" +
			" id VARCHAR (36) PRIMARY KEY," +
			" name VARCHAR (100) NOT NULL," +
			" kind VARCHAR (10) NOT NULL," +
			" phone VARCHAR (20)," +
			" order_days VARCHAR (100)" +
			" );")
	if err != nil {
		return nil, err
	}

	// Tabla de productos
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS product (" +
			" id VARCHAR (36) PRIMARY KEY," +
			" contact_id VARCHAR (36)," +
			" name VARCHAR (100) NOT NULL," +
			" unit VARCHAR (20)," +
			" price NUMERIC," +
			" out_of_season BOOLEAN NOT NULL DEFAULT FALSE," +
			" out_of_season_until VARCHAR (30)," +
			" archived BOOLEAN NOT NULL DEFAULT FALSE" +
			" );")
	if err != nil {
		return nil, err
	}

	// Tabla de pedidos. La fecha queda como texto: en los datos
	// migrados conviven el formato local y el ISO
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS purchase_order (" +
			" id VARCHAR (36) PRIMARY KEY," +
			" contact_id VARCHAR (36) NOT NULL," +
			" order_date VARCHAR (30)," +
			" state VARCHAR (15) NOT NULL," +
			" kind VARCHAR (15) NOT NULL" +
			" );")
	if err != nil {
		return nil, err
	}

	// Tabla de renglones. Conviven dos formas historicas:
	// product_id (actual) y legacy_id (documentos viejos);
	// la cantidad se guarda como texto tal cual vino
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS order_line_item (" +
			" order_id VARCHAR (36) NOT NULL," +
			" position SERIAL," +
			" product_id VARCHAR (36)," +
			" legacy_id VARCHAR (36)," +
			" quantity VARCHAR (20)," +
			" unit VARCHAR (20)," +
			" PRIMARY KEY (order_id, position)" +
			" );")
	if err != nil {
		return nil, err
	}

	// Tablas de recetas de costo
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS recipe (" +
			" id VARCHAR (36) PRIMARY KEY," +
			" name VARCHAR (100) NOT NULL," +
			" product_id VARCHAR (36)," +
			" yield INTEGER NOT NULL DEFAULT 0" +
			" );")
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS recipe_ingredient (" +
			" recipe_id VARCHAR (36) NOT NULL," +
			" position SERIAL," +
			" product_id VARCHAR (36) NOT NULL," +
			" quantity NUMERIC NOT NULL," +
			" unit VARCHAR (20)," +
			" PRIMARY KEY (recipe_id, position)" +
			" );")
	if err != nil {
		return nil, err
	}

	return &store{database: db}, nil
}

func (store *store) AuthRegister(ctx context.Context, login string, password string) (string, error) {
	// Alta de usuario
	row := store.database.QueryRowContext(ctx,
		"INSERT INTO auth (login, password)"+
			" VALUES ($1, $2)"+
			" RETURNING uuid",
		login,
		password)

	var code int
	err := row.Scan(&code)
	if err != nil {
		// Chequeo: ya existe
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return "", ErrAlreadyExists
			}
		}
		return "", err
	}

	return strconv.Itoa(code), nil
}

func (store *store) AuthLogin(ctx context.Context, login string, password string) (string, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT uuid FROM auth"+
			" WHERE login = $1"+
			"   AND password = $2",
		login,
		password)
	var code int
	err := row.Scan(&code)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNoRows
		}
		return "", err
	}

	return strconv.Itoa(code), nil
}

func (store *store) ContactGetAll(ctx context.Context) ([]model.Contact, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, name, kind, phone, order_days"+
			" FROM contact"+
			" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var contacts []model.Contact
	for rows.Next() {
		var contact model.Contact
		var phone, orderDays sql.NullString
		err := rows.Scan(&contact.ID,
			&contact.Data.Name,
			&contact.Data.Kind,
			&phone,
			&orderDays)
		if err != nil {
			return nil, err
		}
		contact.Data.Phone = phone.String
		if orderDays.String != "" {
			contact.Data.OrderDays = strings.Split(orderDays.String, ",")
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

func (store *store) ProductGetAll(ctx context.Context) ([]model.Product, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, contact_id, name, unit, price, out_of_season, out_of_season_until, archived"+
			" FROM product"+
			" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []model.Product
	for rows.Next() {
		var product model.Product
		var contactID, unit, until sql.NullString
		err := rows.Scan(&product.ID,
			&contactID,
			&product.Data.Name,
			&unit,
			&product.Data.Price,
			&product.Data.OutOfSeason,
			&until,
			&product.Data.Archived)
		if err != nil {
			return nil, err
		}
		product.Data.ContactID = contactID.String
		product.Data.Unit = unit.String
		product.Data.OutOfSeasonUntil = until.String
		products = append(products, product)
	}

	return products, rows.Err()
}

func (store *store) ProductPost(ctx context.Context, product model.Product) (string, error) {
	id := product.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := store.database.ExecContext(ctx,
		"INSERT INTO product (id, contact_id, name, unit, price, out_of_season, out_of_season_until, archived)"+
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		id,
		product.Data.ContactID,
		product.Data.Name,
		product.Data.Unit,
		product.Data.Price,
		product.Data.OutOfSeason,
		product.Data.OutOfSeasonUntil,
		product.Data.Archived)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return "", ErrAlreadyExists
			}
		}
		return "", err
	}
	return id, nil
}

func (store *store) ProductPut(ctx context.Context, product model.Product) error {
	result, err := store.database.ExecContext(ctx,
		"UPDATE product"+
			" SET contact_id = $1, name = $2, unit = $3, price = $4,"+
			" out_of_season = $5, out_of_season_until = $6, archived = $7"+
			" WHERE id = $8",
		product.Data.ContactID,
		product.Data.Name,
		product.Data.Unit,
		product.Data.Price,
		product.Data.OutOfSeason,
		product.Data.OutOfSeasonUntil,
		product.Data.Archived,
		product.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoRows
	}
	return nil
}

func (store *store) OrderGetAll(ctx context.Context) ([]model.Order, error) {
	return store.orderGet(ctx,
		"SELECT id, contact_id, order_date, state, kind"+
			" FROM purchase_order")
}

func (store *store) OrderGetByContact(ctx context.Context, contactID string) ([]model.Order, error) {
	return store.orderGet(ctx,
		"SELECT id, contact_id, order_date, state, kind"+
			" FROM purchase_order"+
			" WHERE contact_id = $1",
		contactID)
}

func (store *store) orderGet(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := store.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []model.Order
	for rows.Next() {
		var order model.Order
		var date sql.NullString
		err := rows.Scan(&order.ID,
			&order.Data.ContactID,
			&date,
			&order.Data.State,
			&order.Data.Kind)
		if err != nil {
			return nil, err
		}
		order.Data.Date = date.String
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := store.lineItemGet(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Data.LineItems = items
	}

	return orders, nil
}

func (store *store) lineItemGet(ctx context.Context, orderID string) ([]model.LineItem, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT product_id, legacy_id, quantity, unit"+
			" FROM order_line_item"+
			" WHERE order_id = $1"+
			" ORDER BY position",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.LineItem
	for rows.Next() {
		var raw rawLineItem
		err := rows.Scan(&raw.ProductID, &raw.LegacyID, &raw.Quantity, &raw.Unit)
		if err != nil {
			return nil, err
		}
		// normalizacion en el borde: adentro solo circula la forma canonica
		if item, ok := normalizeLineItem(raw); ok {
			items = append(items, item)
		}
	}

	return items, rows.Err()
}

func (store *store) OrderPost(ctx context.Context, order model.Order) (string, error) {
	id := order.ID
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO purchase_order (id, contact_id, order_date, state, kind)"+
			" VALUES ($1, $2, $3, $4, $5)",
		id,
		order.Data.ContactID,
		order.Data.Date,
		order.Data.State,
		order.Data.Kind)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return "", ErrAlreadyExists
			}
		}
		return "", err
	}

	for _, item := range order.Data.LineItems {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_line_item (order_id, product_id, quantity, unit)"+
				" VALUES ($1, $2, $3, $4)",
			id,
			item.ProductID,
			item.Quantity,
			item.Unit)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func (store *store) OrderPutState(ctx context.Context, orderID string, state string) error {
	result, err := store.database.ExecContext(ctx,
		"UPDATE purchase_order"+
			" SET state = $1"+
			" WHERE id = $2",
		state,
		orderID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoRows
	}
	return nil
}

func (store *store) OrderDelete(ctx context.Context, orderID string) error {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM order_line_item WHERE order_id = $1",
		orderID)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx,
		"DELETE FROM purchase_order WHERE id = $1",
		orderID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoRows
	}

	return tx.Commit()
}

func (store *store) RecipeGetAll(ctx context.Context) ([]model.Recipe, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, name, product_id, yield"+
			" FROM recipe"+
			" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recipes []model.Recipe
	for rows.Next() {
		var recipe model.Recipe
		var productID sql.NullString
		err := rows.Scan(&recipe.ID,
			&recipe.Data.Name,
			&productID,
			&recipe.Data.Yield)
		if err != nil {
			return nil, err
		}
		recipe.Data.ProductID = productID.String
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range recipes {
		ingredients, err := store.ingredientGet(ctx, recipes[i].ID)
		if err != nil {
			return nil, err
		}
		recipes[i].Data.Ingredients = ingredients
	}

	return recipes, nil
}

func (store *store) RecipeGet(ctx context.Context, recipeID string) (model.Recipe, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT id, name, product_id, yield"+
			" FROM recipe"+
			" WHERE id = $1",
		recipeID)
	var recipe model.Recipe
	var productID sql.NullString
	err := row.Scan(&recipe.ID,
		&recipe.Data.Name,
		&productID,
		&recipe.Data.Yield)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Recipe{}, ErrNoRows
		}
		return model.Recipe{}, err
	}
	recipe.Data.ProductID = productID.String

	recipe.Data.Ingredients, err = store.ingredientGet(ctx, recipe.ID)
	if err != nil {
		return model.Recipe{}, err
	}
	return recipe, nil
}

func (store *store) ingredientGet(ctx context.Context, recipeID string) ([]model.Ingredient, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT product_id, quantity, unit"+
			" FROM recipe_ingredient"+
			" WHERE recipe_id = $1"+
			" ORDER BY position",
		recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ingredients []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		var unit sql.NullString
		err := rows.Scan(&ing.ProductID, &ing.Quantity, &unit)
		if err != nil {
			return nil, err
		}
		ing.Unit = unit.String
		ingredients = append(ingredients, ing)
	}

	return ingredients, rows.Err()
}
