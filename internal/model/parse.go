package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Formatos de fecha que conviven en los datos persistidos:
// el formato local dd-mm-yyyy y el formato ISO yyyy-mm-dd,
// con o sin componente de hora.
var orderDateLayouts = []string{
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseOrderDate interpreta una fecha persistida. Sin hora se asume
// medianoche. Si no se puede interpretar devuelve ok=false: nunca error.
func ParseOrderDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// el sufijo de zona del formato ISO completo se tolera aparte
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseQuantity interpreta una cantidad persistida como texto.
// Un valor no numerico es "sin dato", nunca cero.
func ParseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, false
	}
	return q, true
}
