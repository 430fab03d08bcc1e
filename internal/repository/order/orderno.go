package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderNoPrefix = "ORD"

// NewOrderNo builds a human-facing order number: a second-resolution
// timestamp plus six random characters. The suffix entropy is too small to
// guarantee global uniqueness under concurrent checkouts; the orders table
// enforces uniqueness and Create retries with a fresh number on conflict.
func NewOrderNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return orderNoPrefix + time.Now().UTC().Format("20060102150405") + suffix
}
