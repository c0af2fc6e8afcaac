package services

import (
	"sort"

	"quickdrop/internal/core/domain/model/courier"
)

// CourierDispatcher ranks couriers for automatic assignment.
//
// Candidates must be active, online, verified and below the active shipment cap.
// They are ordered by rating (highest first), then current load (lowest first),
// then registration time (earliest first), with the id as a final tie breaker so
// the ranking is deterministic.
type CourierDispatcher struct {
	maxActive int
}

// NewCourierDispatcher creates a dispatcher enforcing maxActive non-terminal
// shipments per courier; zero or less means unlimited.
func NewCourierDispatcher(maxActive int) CourierDispatcher {
	return CourierDispatcher{maxActive: maxActive}
}

// Rank filters out ineligible candidates and returns the rest best first.
// The input slice is not modified.
func (d CourierDispatcher) Rank(candidates []courier.Candidate) []courier.Candidate {
	ranked := make([]courier.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Courier.Validate() != nil {
			continue
		}
		if c.Courier.CheckAvailability(c.ActiveShipments, d.maxActive, true) != nil {
			continue
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Courier.Rating() != b.Courier.Rating() {
			return a.Courier.Rating() > b.Courier.Rating()
		}
		if a.ActiveShipments != b.ActiveShipments {
			return a.ActiveShipments < b.ActiveShipments
		}
		if !a.Courier.CreatedAt().Equal(b.Courier.CreatedAt()) {
			return a.Courier.CreatedAt().Before(b.Courier.CreatedAt())
		}
		return a.Courier.ID().String() < b.Courier.ID().String()
	})

	return ranked
}

// MaxActive returns the configured cap.
func (d CourierDispatcher) MaxActive() int {
	return d.maxActive
}
