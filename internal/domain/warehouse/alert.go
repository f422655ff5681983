package warehouse

import (
	"time"

	"workshop/internal/core/types"
)

// Severity of a minimum-stock alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one row of the idempotent daily alert log. The unique
// (item, severity, date) constraint is the dedup primitive.
type Alert struct {
	ID          int64          `db:"id" json:"id"`
	ItemID      int64          `db:"item_id" json:"itemId"`
	Severity    Severity       `db:"severity" json:"severity"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	MinQuantity types.Quantity `db:"min_quantity" json:"minQuantity"`
	AlertDate   types.Date     `db:"alert_date" json:"alertDate"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// AlertEntry is one classified item in an alert run result.
type AlertEntry struct {
	Item     *Item    `json:"item"`
	Severity Severity `json:"severity"`
}

// AlertRun is the result of one alert engine pass, sorted most starved
// first.
type AlertRun struct {
	Entries  []AlertEntry     `json:"entries"`
	Counts   map[Severity]int `json:"counts"`
	Inserted int              `json:"inserted"`
}
