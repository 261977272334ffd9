package models

import (
	"math"
	"time"
)

// RateClass is the tariff group a trip is reported under.
type RateClass int

const (
	RateClassRegular RateClass = iota
	RateClassAirport
	RateClassOther
)

// RateClasses lists every class in report order.
var RateClasses = []RateClass{RateClassRegular, RateClassAirport, RateClassOther}

// ClassifyRateCode maps a source rate code to its class. Only the exact
// integral codes 1 and 2 are recognised; everything else, including a
// missing code, is Other.
func ClassifyRateCode(code *float64) (RateClass, *int) {
	if code == nil || math.IsNaN(*code) || math.IsInf(*code, 0) {
		return RateClassOther, nil
	}
	if *code != math.Trunc(*code) || math.Abs(*code) > math.MaxInt32 {
		return RateClassOther, nil
	}

	n := int(*code)
	switch n {
	case 1:
		return RateClassRegular, &n
	case 2:
		return RateClassAirport, &n
	default:
		return RateClassOther, &n
	}
}

// SheetName is the workbook tab the class is exported to.
func (c RateClass) SheetName() string {
	switch c {
	case RateClassRegular:
		return "Regular"
	case RateClassAirport:
		return "JFK"
	default:
		return "Others"
	}
}

func (c RateClass) String() string {
	switch c {
	case RateClassRegular:
		return "regular"
	case RateClassAirport:
		return "airport"
	default:
		return "other"
	}
}

// DayType separates weekday from weekend trips.
type DayType int

const (
	Weekday DayType = iota
	Weekend
)

// DayTypes lists both day types in report order.
var DayTypes = []DayType{Weekday, Weekend}

// DayTypeOf returns Weekend for Saturday and Sunday, Weekday otherwise.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

func (d DayType) String() string {
	if d == Weekend {
		return "Weekend"
	}
	return "Weekday"
}
