package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"gluco_watch/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const glucoseMeasurement = "glucose"

type InfluxOpts struct {
	URL, Token, Org, Bucket string
}

// pointWriter is satisfied by api.WriteAPIBlocking.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// SeriesSink appends every reading to an InfluxDB bucket, one point per tick.
type SeriesSink struct {
	writer pointWriter
	close  func()
}

func NewSeriesSink(o InfluxOpts) *SeriesSink {
	client := influxdb2.NewClient(o.URL, o.Token)
	return &SeriesSink{
		writer: client.WriteAPIBlocking(o.Org, o.Bucket),
		close:  client.Close,
	}
}

var _ Sink = (*SeriesSink)(nil)

func (s *SeriesSink) Name() string { return "series" }

func (s *SeriesSink) Persist(ctx context.Context, rec models.Record) error {
	if err := s.writer.WritePoint(ctx, glucosePoint(rec)); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (s *SeriesSink) Close() {
	if s.close != nil {
		s.close()
	}
}

// glucosePoint is stamped with the reading time, so a repeated reading overwrites its own point.
func glucosePoint(rec models.Record) *write.Point {
	sec, frac := math.Modf(rec.Reading.Timestamp)
	ts := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()

	return write.NewPoint(glucoseMeasurement,
		map[string]string{"identity": rec.Identity},
		map[string]interface{}{
			"glucose":         rec.Reading.GlucoseValue,
			"iso_time":        rec.Reading.ISOTime,
			"fetched_at_unix": rec.FetchedAt.Unix(),
		},
		ts,
	)
}
