package services

import (
	"fmt"
	"testing"
	"time"

	"taxi-report/models"
)

func tripsOnDay(day string, n int) []models.Trip {
	trips := make([]models.Trip, 0, n)
	for i := 0; i < n; i++ {
		pickup := fmt.Sprintf("%s %02d:00:00", day, i%24)
		dropoff := fmt.Sprintf("%s %02d:10:00", day, i%24)
		trips = append(trips, cleanTrip(pickup, dropoff, 2, 1, 12))
	}
	return trips
}

func TestWeeklyPercentageVariation(t *testing.T) {
	weeks, err := GenerateWeeks(mustDate(t, "2022-01-03"), mustDate(t, "2022-01-23"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var trips []models.Trip
	trips = append(trips, tripsOnDay("2022-01-12", 10)...)
	trips = append(trips, tripsOnDay("2022-01-19", 20)...)

	got := NewWeeklyAggregator(newTestLogger()).Aggregate(NewTripStore(trips), weeks)

	wantServices := []int{0, 10, 20}
	for i, w := range got {
		if w.TotalServices != wantServices[i] {
			t.Errorf("week %d services: got %d, want %d", i, w.TotalServices, wantServices[i])
		}
	}
	if got[0].PercentageVariation != nil {
		t.Errorf("week 0 variation: got %v, want nil", *got[0].PercentageVariation)
	}
	if got[1].PercentageVariation != nil {
		t.Errorf("week 1 variation: got %v, want nil (previous week empty)", *got[1].PercentageVariation)
	}
	if v := got[2].PercentageVariation; v == nil || *v != 100 {
		t.Errorf("week 2 variation: got %v, want 100", v)
	}
	if got[0].TripTime != nil || got[0].TripDistance != nil || got[0].TripAmount != nil {
		t.Error("empty week should have nil summaries")
	}
}

func TestWeeklyMetrics(t *testing.T) {
	weeks, err := GenerateWeeks(mustDate(t, "2022-03-07"), mustDate(t, "2022-03-13"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trips := []models.Trip{
		cleanTrip("2022-03-07 00:00:00", "2022-03-07 00:02:00", 1, 1, 10),
		cleanTrip("2022-03-09 10:00:00", "2022-03-09 10:10:00", 3, 2, 52.5),
		cleanTrip("2022-03-13 23:30:00", "2022-03-13 23:59:59", 5, 1, 30),
		// picked up the previous Sunday, counted by drop-off
		cleanTrip("2022-03-06 23:55:00", "2022-03-07 00:05:00", 2, 1, 7.5),
		// outside the week on both sides
		cleanTrip("2022-03-06 10:00:00", "2022-03-06 10:30:00", 9, 1, 40),
		cleanTrip("2022-03-13 23:55:00", "2022-03-14 00:05:00", 9, 1, 40),
	}

	got := NewWeeklyAggregator(newTestLogger()).Aggregate(NewTripStore(trips), weeks)
	if len(got) != 1 {
		t.Fatalf("weeks: got %d, want 1", len(got))
	}
	w := got[0]

	if w.TotalServices != 4 {
		t.Errorf("TotalServices: got %d, want 4", w.TotalServices)
	}
	if w.TripTime.Min != 120 || w.TripTime.Max != 1799 {
		t.Errorf("TripTime min/max: got %.0f/%.0f, want 120/1799", w.TripTime.Min, w.TripTime.Max)
	}
	wantMeanTime := (120.0 + 600 + 1799 + 600) / 4
	if w.TripTime.Mean != wantMeanTime {
		t.Errorf("TripTime mean: got %f, want %f", w.TripTime.Mean, wantMeanTime)
	}
	if w.TripDistance.Min != 1 || w.TripDistance.Max != 5 || w.TripDistance.Mean != 2.75 {
		t.Errorf("TripDistance: got %+v, want 1/5/2.75", *w.TripDistance)
	}
	if w.TripAmount.Min != 7.5 || w.TripAmount.Max != 52.5 || w.TripAmount.Mean != 25 {
		t.Errorf("TripAmount: got %+v, want 7.5/52.5/25", *w.TripAmount)
	}
}

func TestWeeklyDoesNotModifyInputPeriods(t *testing.T) {
	weeks, _ := GenerateWeeks(mustDate(t, "2022-03-07"), mustDate(t, "2022-03-13"))
	NewWeeklyAggregator(newTestLogger()).Aggregate(NewTripStore(tripsOnDay("2022-03-08", 3)), weeks)
	if weeks[0].TotalServices != 0 || weeks[0].TripTime != nil {
		t.Error("input week periods were modified")
	}
}

func TestStoreRangeIsDayInclusive(t *testing.T) {
	trips := []models.Trip{
		cleanTrip("2022-03-31 23:00:00", "2022-03-31 23:59:59", 1, 1, 10),
		cleanTrip("2022-03-01 00:00:00", "2022-03-01 00:05:00", 1, 1, 10),
		cleanTrip("2022-03-31 23:55:00", "2022-04-01 00:00:00", 1, 1, 10),
		cleanTrip("2022-02-28 23:50:00", "2022-02-28 23:59:00", 1, 1, 10),
	}
	store := NewTripStore(trips)

	got := store.DroppedOffBetween(mustDate(t, "2022-03-01"), mustDate(t, "2022-03-31"))
	if len(got) != 2 {
		t.Fatalf("range: got %d trips, want 2", len(got))
	}
	if !got[0].DropoffTime.Before(got[1].DropoffTime) {
		t.Error("range is not sorted by drop-off")
	}
	if store.Len() != 4 {
		t.Errorf("Len: got %d, want 4", store.Len())
	}
	if !trips[0].DropoffTime.Equal(time.Date(2022, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("NewTripStore reordered the caller's slice")
	}
}
