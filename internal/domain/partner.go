package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

type (
	// PartnerAvailability represents the availability state of a delivery partner.
	PartnerAvailability string
)

// Partner represents a delivery partner. A partner holds at most one active
// order at any instant; CurrentOrderID is set exactly while Availability is busy.
type Partner struct {
	ID              string
	Name            string
	Phone           string
	Vehicle         string
	Availability    PartnerAvailability
	CurrentOrderID  *string
	Rating          float64
	CompletedCount  int
	TodayDeliveries int
	Earnings        decimal.Decimal
	Location        *GeoPoint
}

// PartialPartnerUpdate carries optional fields to update a partner.
// A nil field means "do not change" that attribute. Availability and
// CurrentOrderID are deliberately absent: those move only through the
// coordinator's commit path.
type PartialPartnerUpdate struct {
	ID      string
	Name    *string
	Phone   *string
	Vehicle *string
}

// rePhone is a regex to validate phone numbers
var rePhone = regexp.MustCompile(`^\+[0-9]{10,14}$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}
