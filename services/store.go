package services

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"taxi-report/models"
)

// TripStore is the cleaned trip collection, indexed by drop-off time so that
// each period is answered with a binary-searched range instead of a full scan.
type TripStore struct {
	trips []models.Trip
}

// NewTripStore copies the trips and sorts the copy by drop-off time.
func NewTripStore(trips []models.Trip) *TripStore {
	sorted := make([]models.Trip, len(trips))
	copy(sorted, trips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DropoffTime.Before(sorted[j].DropoffTime)
	})
	return &TripStore{trips: sorted}
}

// Len returns the number of trips held.
func (s *TripStore) Len() int {
	return len(s.trips)
}

// All returns a read-only view over every trip in drop-off order.
func (s *TripStore) All() []models.Trip {
	return s.trips
}

// DroppedOffBetween returns the trips whose drop-off falls on any calendar day
// from first to last inclusive. The returned slice aliases the store.
func (s *TripStore) DroppedOffBetween(first, last civil.Date) []models.Trip {
	from := dayStart(first)
	until := dayStart(last.AddDays(1))

	lo := sort.Search(len(s.trips), func(i int) bool {
		return !s.trips[i].DropoffTime.Before(from)
	})
	hi := sort.Search(len(s.trips), func(i int) bool {
		return !s.trips[i].DropoffTime.Before(until)
	})
	if hi < lo {
		hi = lo
	}
	return s.trips[lo:hi]
}

// dayStart is midnight UTC of d. Source timestamps are naive wall-clock
// values, so they are compared in UTC without any zone conversion.
func dayStart(d civil.Date) time.Time {
	return d.In(time.UTC)
}
