package services

import (
	"math"
	"time"

	"cloud.google.com/go/civil"

	"taxi-report/models"
	"taxi-report/utils"
)

const (
	minTripDuration = 60 * time.Second
	maxAverageSpeed = 100.0 // mph
	maxTotalAmount  = 5000.0
)

// Names of the cleaning steps, in the order they are applied.
const (
	ReasonDuplicate     = "duplicate"
	ReasonMissingField  = "missing_field"
	ReasonOutsideWindow = "outside_window"
	ReasonNotForward    = "dropoff_not_after_pickup"
	ReasonTooShort      = "shorter_than_60s"
	ReasonTooFast       = "faster_than_100mph"
	ReasonNoDistance    = "non_positive_distance"
	ReasonBadAmount     = "amount_out_of_range"
	ReasonNoPassengers  = "no_passengers"
)

// window is the inclusive calendar range a trip must fall into.
type window struct {
	from  time.Time
	until time.Time // exclusive: midnight after the last day
}

// predicate is one link of the filter chain. keep reports whether the record
// survives this step; every predicate is evaluated independently.
type predicate struct {
	reason string
	keep   func(r *models.RawTrip, w window) bool
}

var filterChain = []predicate{
	{ReasonMissingField, hasRequiredFields},
	{ReasonOutsideWindow, insideWindow},
	{ReasonNotForward, dropoffAfterPickup},
	{ReasonTooShort, lastsAtLeastAMinute},
	{ReasonTooFast, plausibleSpeed},
	{ReasonNoDistance, positiveDistance},
	{ReasonBadAmount, plausibleAmount},
	{ReasonNoPassengers, hasPassengers},
}

// Cleaner prunes raw trips that fail the plausibility rules.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean de-duplicates raw and keeps only the records that pass every
// predicate of the filter chain for the [start, end] day range. The input is
// not modified; survivors keep their input order.
func (c *Cleaner) Clean(raw []models.RawTrip, start, end civil.Date) ([]models.Trip, models.CleanStats) {
	stats := models.CleanStats{
		Input:   len(raw),
		Dropped: make(map[string]int),
		Reasons: reasonOrder(),
	}
	w := window{from: dayStart(start), until: dayStart(end.AddDays(1))}

	seen := make(map[tripKey]struct{}, len(raw))
	result := make([]models.Trip, 0, len(raw))

	for i := range raw {
		r := &raw[i]

		key := keyOf(r)
		if _, dup := seen[key]; dup {
			stats.Dropped[ReasonDuplicate]++
			continue
		}
		seen[key] = struct{}{}

		if reason, ok := survives(r, w); !ok {
			stats.Dropped[reason]++
			continue
		}

		result = append(result, toTrip(r))
	}

	stats.Output = len(result)
	c.logger.Info("[cleaner] Cleaned %d → %d trips (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	for _, reason := range stats.Reasons {
		if n := stats.Dropped[reason]; n > 0 {
			c.logger.Debug("[cleaner] %-26s %d", reason, n)
		}
	}
	return result, stats
}

func survives(r *models.RawTrip, w window) (string, bool) {
	for _, p := range filterChain {
		if !p.keep(r, w) {
			return p.reason, false
		}
	}
	return "", true
}

func reasonOrder() []string {
	reasons := []string{ReasonDuplicate}
	for _, p := range filterChain {
		reasons = append(reasons, p.reason)
	}
	return reasons
}

func toTrip(r *models.RawTrip) models.Trip {
	class, code := models.ClassifyRateCode(r.RateCodeID)
	return models.Trip{
		PickupTime:     *r.PickupTime,
		DropoffTime:    *r.DropoffTime,
		PassengerCount: int(*r.PassengerCount),
		TripDistance:   *r.TripDistance,
		RateCode:       code,
		RateClass:      class,
		TotalAmount:    *r.TotalAmount,
	}
}

// Distance and amount are not required by name, but a missing value can never
// satisfy their range checks, so they are rejected here as well.
func hasRequiredFields(r *models.RawTrip, _ window) bool {
	return r.PickupTime != nil && r.DropoffTime != nil && r.PassengerCount != nil &&
		r.TripDistance != nil && r.TotalAmount != nil
}

func insideWindow(r *models.RawTrip, w window) bool {
	if r.PickupTime == nil || r.DropoffTime == nil {
		return false
	}
	return !r.PickupTime.Before(w.from) && r.DropoffTime.Before(w.until)
}

func dropoffAfterPickup(r *models.RawTrip, _ window) bool {
	d, ok := duration(r)
	return ok && d > 0
}

func lastsAtLeastAMinute(r *models.RawTrip, _ window) bool {
	d, ok := duration(r)
	return ok && d >= minTripDuration
}

// plausibleSpeed recomputes the duration itself so it never divides by a
// non-positive interval, whatever order the chain runs in.
func plausibleSpeed(r *models.RawTrip, _ window) bool {
	d, ok := duration(r)
	if !ok || d <= 0 || !finite(r.TripDistance) {
		return false
	}
	return *r.TripDistance/d.Hours() <= maxAverageSpeed
}

func positiveDistance(r *models.RawTrip, _ window) bool {
	return finite(r.TripDistance) && *r.TripDistance > 0
}

func plausibleAmount(r *models.RawTrip, _ window) bool {
	return finite(r.TotalAmount) && *r.TotalAmount > 0 && *r.TotalAmount <= maxTotalAmount
}

// Passenger counts are whole numbers; a fraction below one cannot become a
// positive count.
func hasPassengers(r *models.RawTrip, _ window) bool {
	return finite(r.PassengerCount) && *r.PassengerCount >= 1
}

func duration(r *models.RawTrip) (time.Duration, bool) {
	if r.PickupTime == nil || r.DropoffTime == nil {
		return 0, false
	}
	return r.DropoffTime.Sub(*r.PickupTime), true
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// tripKey identifies a raw record for duplicate detection. Missing values
// compare equal to each other.
type tripKey struct {
	pickup        int64
	dropoff       int64
	passengers    float64
	distance      float64
	rateCode      float64
	amount        float64
	hasPickup     bool
	hasDropoff    bool
	hasPassengers bool
	hasDistance   bool
	hasRateCode   bool
	hasAmount     bool
}

func keyOf(r *models.RawTrip) tripKey {
	var k tripKey
	if r.PickupTime != nil {
		k.pickup, k.hasPickup = r.PickupTime.UnixNano(), true
	}
	if r.DropoffTime != nil {
		k.dropoff, k.hasDropoff = r.DropoffTime.UnixNano(), true
	}
	k.passengers, k.hasPassengers = floatKey(r.PassengerCount)
	k.distance, k.hasDistance = floatKey(r.TripDistance)
	k.rateCode, k.hasRateCode = floatKey(r.RateCodeID)
	k.amount, k.hasAmount = floatKey(r.TotalAmount)
	return k
}

// floatKey treats NaN like a missing value, since NaN != NaN would otherwise
// keep every NaN-bearing duplicate.
func floatKey(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}
