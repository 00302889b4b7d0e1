package store

import (
	"database/sql"
	"strings"

	"github.com/yosbany/NRDOperaciones-sub000/internal/model"
)

// Forma cruda de un renglon tal como vive en la tabla. Los documentos
// viejos referencian el producto en legacy_id; los nuevos en product_id.
type rawLineItem struct {
	ProductID sql.NullString
	LegacyID  sql.NullString
	Quantity  sql.NullString
	Unit      sql.NullString
}

// normalizeLineItem colapsa las dos formas historicas en la forma
// canonica. Un renglon sin referencia a producto no se puede
// atribuir y se descarta aca.
func normalizeLineItem(raw rawLineItem) (model.LineItem, bool) {
	productID := strings.TrimSpace(raw.ProductID.String)
	if productID == "" {
		productID = strings.TrimSpace(raw.LegacyID.String)
	}
	if productID == "" {
		return model.LineItem{}, false
	}

	return model.LineItem{
		ProductID: productID,
		Quantity:  strings.TrimSpace(raw.Quantity.String),
		Unit:      strings.TrimSpace(raw.Unit.String),
	}, true
}
