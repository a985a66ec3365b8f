// internal/service/customer/contact.go
package customer

import (
	"math"
	"strconv"
	"strings"

	"retention-service/internal/domain/customer"
)

// NoContact is shown when a record has no phone number at all.
const NoContact = "-"

// ContactNumber picks the number staff should call: cellphone, then
// landline, then office, normalized and prefixed with "+".
func ContactNumber(c *customer.Customer) string {
	for _, phone := range []string{c.Cellphone, c.Landline, c.Office} {
		if strings.TrimSpace(phone) != "" {
			return "+" + NormalizePhone(phone)
		}
	}
	return NoContact
}

// NormalizePhone expands spreadsheet scientific notation (5.2181E+11) into
// plain digits. Anything else is returned unchanged.
func NormalizePhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return NoContact
	}
	if !strings.ContainsAny(phone, "eE") {
		return phone
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(phone), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return phone
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}
