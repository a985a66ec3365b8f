// internal/service/customer/normalize.go
package customer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"retention-service/internal/domain/agency"
	"retention-service/internal/domain/customer"

	"go.uber.org/zap"
)

// Row is one raw record as returned by a source, keyed by column name.
type Row = map[string]any

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps raw source rows to customers in load order. IDs are the
// 1-based position of the row. Malformed fields degrade to their zero value.
func Normalize(rows []Row, a agency.Agency, logger *zap.Logger) []customer.Customer {
	out := make([]customer.Customer, len(rows))
	for i, row := range rows {
		out[i] = normalizeRow(i, row, a, logger)
	}
	return out
}

func normalizeRow(index int, row Row, a agency.Agency, logger *zap.Logger) customer.Customer {
	m := a.Mapping

	c := customer.Customer{
		ID:          index + 1,
		Serial:      text(row["SERIE"]),
		Model:       firstText(row, m.Model, "MODELO"),
		InvoiceName: firstText(row, m.InvoiceName, "NOMBRE_FAC", "NOMBRE_FACT"),
		Contact:     text(row["CONTACTO"]),
		Cellphone:   text(row["CELULAR"]),
		Landline:    text(row["TELEFONO"]),
		Office:      text(row["OFICINA"]),
		Advisor:     text(row["NOMBRE_ASESOR"]),
	}

	c.Agency = strings.TrimSpace(firstText(row, m.Agency, "AGENCIA", "AGENCI"))
	if c.Agency == "" {
		c.Agency = a.Name
	}

	if raw, ok := row["ANIO_VIN"]; ok && raw != nil {
		c.Year = parseYear(raw, index, logger)
	} else if raw, ok := row["AnioVeh_"]; ok && raw != nil {
		c.Year = parseYear(raw, index, logger)
	}

	if raw, ok := row["PAQUETE"]; ok && raw != nil {
		p := text(raw)
		c.Package = &p
	}
	c.OrderNumber = truthyNumber(row["ORDEN"])
	c.Total = truthyNumber(row["TOTAL"])
	c.DaysSinceVisit = parseDays(row["DIAS_SIN_VENIR"])

	field := m.LastVisit
	if field == "" {
		field = "ULT_VISITA"
	}
	if raw := row[field]; raw != nil {
		c.LastVisit = parseDate(raw)
		if c.LastVisit == nil {
			logger.Debug("unparseable last visit date",
				zap.Int("row", index),
				zap.String("field", field),
				zap.Any("value", raw),
			)
		}
	}

	return c
}

// firstText returns the first non-empty value among the given columns.
func firstText(row Row, fields ...string) string {
	for _, f := range fields {
		if f == "" {
			continue
		}
		if s := text(row[f]); s != "" {
			return s
		}
	}
	return ""
}

// text renders a raw value as a string. Numbers come out in plain decimal
// so large phone numbers do not pick up an exponent.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	s := strings.TrimSpace(text(v))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func truthyNumber(v any) *float64 {
	f, ok := number(v)
	if !ok || f == 0 || math.IsNaN(f) {
		return nil
	}
	return &f
}

// parseDays coerces days-since-visit to a finite, non-negative int.
func parseDays(v any) int {
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= float64(math.MaxInt) {
		return 0
	}
	return int(f)
}

// parseYear reads the leading integer of the value, 0 when there is none.
func parseYear(v any, index int, logger *zap.Logger) int {
	n, ok := leadingInt(text(v))
	if !ok {
		logger.Debug("unparseable model year", zap.Int("row", index), zap.Any("value", v))
		return 0
	}
	return n
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDate accepts DD/MM/YYYY, ISO dates and native times.
func parseDate(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return nil
		}
		return &t
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, "/"):
		parts := strings.Split(s, "/")
		if len(parts) != 3 {
			return nil
		}
		var nums [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil
			}
			nums[i] = n
		}
		t := time.Date(nums[2], time.Month(nums[1]), nums[0], 0, 0, 0, 0, time.UTC)
		return &t
	case strings.Contains(s, "-"):
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		if len(s) > 10 {
			if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
				return &t
			}
		}
	}
	return nil
}
