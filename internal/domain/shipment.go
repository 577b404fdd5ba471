package domain

import (
	"sort"
	"time"
)

// ShipmentPair is one deliverable attempt, fully self-contained so the
// delivery engine never touches live store objects.
type ShipmentPair struct {
	SitePath       string
	SubscriptionID string
	AttemptID      string
	To             string
	DialectID      string
	Payload        []byte

	// Durable marks attempts persisted by the originating unit of work;
	// the engine writes those back in a fresh store-backed unit of work.
	// Memory-backed attempts are written back without a store transaction.
	Durable bool
}

// ShipmentInfo is the parcel handed to the delivery engine when the
// originating unit of work finishes.
type ShipmentInfo struct {
	ID        string
	Note      string
	CreatedAt time.Time
	Pairs     []*ShipmentPair
}

// SortPairsByDestination orders pairs by URL so deliveries to one host run
// back to back and reuse connections.
func (s *ShipmentInfo) SortPairsByDestination() {
	sort.SliceStable(s.Pairs, func(i, j int) bool {
		return s.Pairs[i].To < s.Pairs[j].To
	})
}

// HasDurablePairs reports whether any pair needs a store-backed write-back.
func (s *ShipmentInfo) HasDurablePairs() bool {
	for _, p := range s.Pairs {
		if p.Durable {
			return true
		}
	}
	return false
}
