// Package reading pulls the latest glucose reading out of an EasyView status payload.
package reading

import (
	"math"
	"time"

	"gluco_watch/internal/errs"
	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
)

// SeriesPath is the location of the chronological [timestamp, value, ...] tuples.
var SeriesPath = []string{"data", "chart", "sg"}

const (
	seriesPathName = "data.chart.sg"
	isoLayout      = "2006-01-02T15:04:05"
)

// ExtractLatest returns the last tuple of data.chart.sg as a Reading. The
// vendor timestamp is already local time, so no zone is applied when
// rendering ISOTime.
func ExtractLatest(payload jsonval.Value) (models.Reading, error) {
	series, ok := payload.Path(SeriesPath...)
	if !ok {
		return models.Reading{}, &errs.SchemaError{Path: seriesPathName, Reason: "path not found"}
	}
	if series.Kind() != jsonval.Array {
		return models.Reading{}, &errs.SchemaError{Path: seriesPathName, Reason: "not a sequence, got " + series.Kind().String()}
	}
	if series.Len() == 0 {
		return models.Reading{}, &errs.SchemaError{Path: seriesPathName, Reason: "empty sequence"}
	}

	last := series.Index(series.Len() - 1)
	if last.Kind() != jsonval.Array || last.Len() < 2 {
		return models.Reading{}, &errs.SchemaError{Path: seriesPathName, Reason: "last entry has fewer than two elements"}
	}
	ts, ok := finite(last.Index(0))
	if !ok {
		return models.Reading{}, &errs.SchemaError{Path: seriesPathName, Reason: "timestamp is not numeric"}
	}
	value, ok := finite(last.Index(1))
	if !ok {
		return models.Reading{}, &errs.SchemaError{Path: seriesPathName, Reason: "glucose value is not numeric"}
	}

	return models.Reading{
		GlucoseValue: math.Round(value*10) / 10,
		Timestamp:    ts,
		ISOTime:      naiveISO(ts),
	}, nil
}

func finite(v jsonval.Value) (float64, bool) {
	f, ok := v.Number()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func naiveISO(ts float64) string {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(isoLayout)
}
