package models

import "time"

// RawTrip holds the six source columns of a trip exactly as decoded from the
// monthly extract. Any field may be missing in the source and is nil then.
type RawTrip struct {
	PickupTime     *time.Time
	DropoffTime    *time.Time
	PassengerCount *float64
	TripDistance   *float64
	RateCodeID     *float64
	TotalAmount    *float64
}

// Trip is a cleaned, validated trip record ready for aggregation.
type Trip struct {
	PickupTime     time.Time
	DropoffTime    time.Time
	PassengerCount int
	TripDistance   float64
	RateCode       *int
	RateClass      RateClass
	TotalAmount    float64
}

// Duration returns the elapsed time between pickup and drop-off.
func (t Trip) Duration() time.Duration {
	return t.DropoffTime.Sub(t.PickupTime)
}

// DayType classifies the trip by the weekday of its drop-off.
func (t Trip) DayType() DayType {
	return DayTypeOf(t.DropoffTime)
}

// Raw converts the trip back into its source representation.
func (t Trip) Raw() RawTrip {
	pickup, dropoff := t.PickupTime, t.DropoffTime
	passengers := float64(t.PassengerCount)
	distance, amount := t.TripDistance, t.TotalAmount

	raw := RawTrip{
		PickupTime:     &pickup,
		DropoffTime:    &dropoff,
		PassengerCount: &passengers,
		TripDistance:   &distance,
		TotalAmount:    &amount,
	}
	if t.RateCode != nil {
		code := float64(*t.RateCode)
		raw.RateCodeID = &code
	}
	return raw
}
