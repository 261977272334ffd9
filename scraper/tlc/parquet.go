package tlc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"taxi-report/models"
)

// Columns read from each extract. Everything else in the file is ignored.
const (
	colPickup     = "tpep_pickup_datetime"
	colDropoff    = "tpep_dropoff_datetime"
	colPassengers = "passenger_count"
	colDistance   = "trip_distance"
	colRateCode   = "RatecodeID"
	colAmount     = "total_amount"
)

const readBatchSize = 4096

// julianUnixEpoch is the Julian day number of 1970-01-01, used by INT96
// timestamps.
const julianUnixEpoch = 2440588

type column struct {
	index int
	unit  time.Duration // timestamp columns only
}

type tripColumns struct {
	pickup, dropoff column

	passengers, distance, rateCode, amount column
}

// DecodeParquet reads the trip columns of a monthly extract. Null or absent
// cells stay nil in the returned records; no row is filtered here.
func DecodeParquet(path string) ([]models.RawTrip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	cols, err := lookupColumns(pf.Schema())
	if err != nil {
		return nil, err
	}

	trips := make([]models.RawTrip, 0, pf.NumRows())
	buf := make([]parquet.Row, readBatchSize)

	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				trips = append(trips, cols.decode(row))
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("read rows: %w", err)
			}
		}
		rows.Close()
	}
	return trips, nil
}

func lookupColumns(schema *parquet.Schema) (*tripColumns, error) {
	find := func(name string, required bool) (column, error) {
		leaf, ok := schema.Lookup(name)
		if !ok {
			if required {
				return column{}, fmt.Errorf("parquet: missing column %q", name)
			}
			return column{index: -1}, nil
		}
		return column{index: leaf.ColumnIndex, unit: timestampUnit(leaf.Node)}, nil
	}

	var (
		cols tripColumns
		err  error
	)
	if cols.pickup, err = find(colPickup, true); err != nil {
		return nil, err
	}
	if cols.dropoff, err = find(colDropoff, true); err != nil {
		return nil, err
	}
	if cols.passengers, err = find(colPassengers, false); err != nil {
		return nil, err
	}
	if cols.distance, err = find(colDistance, false); err != nil {
		return nil, err
	}
	if cols.rateCode, err = find(colRateCode, false); err != nil {
		return nil, err
	}
	if cols.amount, err = find(colAmount, false); err != nil {
		return nil, err
	}
	return &cols, nil
}

// timestampUnit reads the unit of an INT64 timestamp column. Columns without
// a timestamp annotation are taken as microseconds since the epoch.
func timestampUnit(node parquet.Node) time.Duration {
	lt := node.Type().LogicalType()
	if lt == nil || lt.Timestamp == nil {
		return time.Microsecond
	}
	switch unit := lt.Timestamp.Unit; {
	case unit.Millis != nil:
		return time.Millisecond
	case unit.Nanos != nil:
		return time.Nanosecond
	default:
		return time.Microsecond
	}
}

func (c *tripColumns) decode(row parquet.Row) models.RawTrip {
	byColumn := make(map[int]parquet.Value, len(row))
	for _, v := range row {
		byColumn[v.Column()] = v
	}
	get := func(col column) (parquet.Value, bool) {
		if col.index < 0 {
			return parquet.Value{}, false
		}
		v, ok := byColumn[col.index]
		if !ok || v.IsNull() {
			return parquet.Value{}, false
		}
		return v, true
	}

	var trip models.RawTrip
	if v, ok := get(c.pickup); ok {
		trip.PickupTime = toTime(v, c.pickup.unit)
	}
	if v, ok := get(c.dropoff); ok {
		trip.DropoffTime = toTime(v, c.dropoff.unit)
	}
	if v, ok := get(c.passengers); ok {
		trip.PassengerCount = toFloat(v)
	}
	if v, ok := get(c.distance); ok {
		trip.TripDistance = toFloat(v)
	}
	if v, ok := get(c.rateCode); ok {
		trip.RateCodeID = toFloat(v)
	}
	if v, ok := get(c.amount); ok {
		trip.TotalAmount = toFloat(v)
	}
	return trip
}

// toTime converts a timestamp cell to a naive UTC wall-clock time.
func toTime(v parquet.Value, unit time.Duration) *time.Time {
	var t time.Time
	switch v.Kind() {
	case parquet.Int64:
		t = time.Unix(0, v.Int64()*int64(unit)).UTC()
	case parquet.Int96:
		i96 := v.Int96()
		nanos := int64(uint64(i96[1])<<32 | uint64(i96[0]))
		days := int64(i96[2]) - julianUnixEpoch
		t = time.Unix(days*86400, nanos).UTC()
	default:
		return nil
	}
	return &t
}

func toFloat(v parquet.Value) *float64 {
	var f float64
	switch v.Kind() {
	case parquet.Double:
		f = v.Double()
	case parquet.Float:
		f = float64(v.Float())
	case parquet.Int64:
		f = float64(v.Int64())
	case parquet.Int32:
		f = float64(v.Int32())
	default:
		return nil
	}
	return &f
}
