package intake

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a single order event from the POS topic.
type Event struct {
	OrderID         string          `json:"order_id"`
	Status          string          `json:"status"`
	Items           []ItemPayload   `json:"items"`
	Customer        CustomerPayload `json:"customer"`
	PrepTimeMinutes int             `json:"prep_time_minutes"`
	Reason          string          `json:"reason"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ItemPayload is one order line as the POS publishes it.
type ItemPayload struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CustomerPayload is the delivery destination as the POS publishes it.
type CustomerPayload struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}
