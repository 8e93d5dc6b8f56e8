package models

import (
	"time"

	"gluco_watch/internal/jsonval"
)

// Credentials are the vendor login credentials. Set once at startup.
type Credentials struct {
	Username string
	Password string
	UserType string // "P" for patient accounts
}

// Reading is the latest glucose sample pulled out of a status payload.
type Reading struct {
	GlucoseValue float64 `json:"glucose"`   // mmol/L, one decimal
	Timestamp    float64 `json:"timestamp"` // epoch seconds as sent by the vendor
	ISOTime      string  `json:"iso_time"`  // naive local time, no zone suffix
}

// Time returns the reading time, truncated to whole seconds.
func (r Reading) Time() time.Time {
	return time.Unix(int64(r.Timestamp), 0).UTC()
}

// Record is what a tick hands to the sinks.
type Record struct {
	Identity  string
	Reading   Reading
	FetchedAt time.Time
	// Raw is the sanitized status payload; nil when raw storage is disabled.
	Raw *jsonval.Value
}

// Document renders the record in the layout shared by every sink:
//
//	{"identity", "main": {...}, "fetched_at", "fetched_at_unix", "fetched_at_unix_ms", "raw"?}
func (r Record) Document() jsonval.Value {
	fetched := r.FetchedAt.UTC()
	members := []jsonval.Member{
		jsonval.M("identity", jsonval.StringValue(r.Identity)),
		jsonval.M("main", jsonval.ObjectValue(
			jsonval.M("glucose", jsonval.FloatValue(r.Reading.GlucoseValue)),
			jsonval.M("timestamp", jsonval.FloatValue(r.Reading.Timestamp)),
			jsonval.M("iso_time", jsonval.StringValue(r.Reading.ISOTime)),
		)),
		jsonval.M("fetched_at", jsonval.StringValue(fetched.Format(time.RFC3339))),
		jsonval.M("fetched_at_unix", jsonval.IntValue(fetched.Unix())),
		jsonval.M("fetched_at_unix_ms", jsonval.IntValue(fetched.UnixMilli())),
	}
	if r.Raw != nil {
		members = append(members, jsonval.M("raw", *r.Raw))
	}
	return jsonval.ObjectValue(members...)
}

// MarshalJSON encodes Document, so a Record can be written by any JSON sink.
func (r Record) MarshalJSON() ([]byte, error) {
	return r.Document().MarshalJSON()
}
