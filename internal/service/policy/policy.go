// Package policy decides which partners are eligible for an order and in what
// priority. The coordinator consults it before attempting a commit; the pull
// feed uses it to scope what each partner sees.
package policy

import (
	"sort"

	"dispatch-console/internal/domain"
)

// Policy is the partner eligibility and ranking rule set.
type Policy struct {
	maxDistanceKm float64
}

// New creates a Policy. maxDistanceKm of 0 disables the distance filter.
func New(maxDistanceKm float64) Policy {
	return Policy{maxDistanceKm: maxDistanceKm}
}

// Eligible reports whether the partner may take the order: available, and
// within range when both sides carry coordinates. Without location data every
// available partner is eligible.
func (p Policy) Eligible(o *domain.Order, partner *domain.Partner) bool {
	if partner.Availability != domain.AvailabilityAvailable {
		return false
	}
	if p.maxDistanceKm <= 0 {
		return true
	}
	if partner.Location == nil || o.Customer.Point == nil {
		return true
	}
	return partner.Location.DistanceKm(*o.Customer.Point) <= p.maxDistanceKm
}

// EligibleSet filters partners down to those eligible for the order.
func (p Policy) EligibleSet(o *domain.Order, partners []domain.Partner) []domain.Partner {
	out := make([]domain.Partner, 0, len(partners))
	for i := range partners {
		if p.Eligible(o, &partners[i]) {
			out = append(out, partners[i])
		}
	}
	return out
}

// Rank orders partners for push assignment: fewest deliveries today first
// (load balancing), ties broken by higher rating, then by id for stability.
// The ranking is advisory; pull-mode partners self-select and ignore it.
func (p Policy) Rank(partners []domain.Partner) []domain.Partner {
	ranked := append([]domain.Partner(nil), partners...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TodayDeliveries != b.TodayDeliveries {
			return a.TodayDeliveries < b.TodayDeliveries
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	})
	return ranked
}

// Suggest returns the top-ranked eligible partner for a push assignment,
// nil when no partner qualifies.
func (p Policy) Suggest(o *domain.Order, partners []domain.Partner) *domain.Partner {
	eligible := p.Rank(p.EligibleSet(o, partners))
	if len(eligible) == 0 {
		return nil
	}
	return &eligible[0]
}

// FeedVisible reports whether the order belongs in the partner's pull feed.
// An order leaves every feed the instant a claim commits.
func (p Policy) FeedVisible(o *domain.Order, partner *domain.Partner) bool {
	return o.VisibleInPullFeed() && p.Eligible(o, partner)
}
