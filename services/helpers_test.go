package services

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"taxi-report/models"
	"taxi-report/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func ts(s string) *time.Time {
	v, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return &v
}

func num(v float64) *float64 { return &v }

// rawTrip builds a raw record with one passenger and the given fields.
func rawTrip(pickup, dropoff string, distance, rateCode, amount float64) models.RawTrip {
	return models.RawTrip{
		PickupTime:     ts(pickup),
		DropoffTime:    ts(dropoff),
		PassengerCount: num(1),
		TripDistance:   num(distance),
		RateCodeID:     num(rateCode),
		TotalAmount:    num(amount),
	}
}

func cleanTrip(pickup, dropoff string, distance float64, rateCode int, amount float64) models.Trip {
	class, code := models.ClassifyRateCode(num(float64(rateCode)))
	return models.Trip{
		PickupTime:     *ts(pickup),
		DropoffTime:    *ts(dropoff),
		PassengerCount: 1,
		TripDistance:   distance,
		RateCode:       code,
		RateClass:      class,
		TotalAmount:    amount,
	}
}
