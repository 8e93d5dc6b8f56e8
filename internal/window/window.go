// Package window builds the EasyView time-range request token.
package window

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	secondsPerHour = 3600
	secondsPerDay  = 24 * secondsPerHour
)

// Bounds that keep every intermediate value far from int64 overflow.
const (
	MaxTZOffsetHours = 24
	MaxWindowHours   = 24 * 366
)

var (
	errWindowHours = fmt.Errorf("window hours must be in [1, %d]", MaxWindowHours)
	errTZOffset    = fmt.Errorf("tz offset hours must be in [-%d, %d]", MaxTZOffsetHours, MaxTZOffsetHours)
	errMalformed   = errors.New("malformed window token")
)

// Window is a UTC time range aligned to a local midnight.
type Window struct {
	Start         int64
	End           int64
	TZOffsetHours int
}

// wire keeps the serialized key order fixed: ts first, then tz.
type wire struct {
	TS [2]int64 `json:"ts"`
	TZ int      `json:"tz"`
}

// Compute returns the window ending at the first local midnight strictly after
// now. When now falls exactly on a local midnight the window still ends at the
// following one.
func Compute(now time.Time, tzOffsetHours, windowHours int) (Window, error) {
	if windowHours < 1 || windowHours > MaxWindowHours {
		return Window{}, errWindowHours
	}
	if tzOffsetHours < -MaxTZOffsetHours || tzOffsetHours > MaxTZOffsetHours {
		return Window{}, errTZOffset
	}

	shift := int64(tzOffsetHours) * secondsPerHour
	nowLocal := now.Unix() + shift
	endLocal := (floorDiv(nowLocal, secondsPerDay) + 1) * secondsPerDay
	end := endLocal - shift

	return Window{
		Start:         end - int64(windowHours)*secondsPerHour,
		End:           end,
		TZOffsetHours: tzOffsetHours,
	}, nil
}

// Encode renders the window as compact JSON, base64 (standard alphabet with
// padding), then percent-encodes it for use as a query value.
func (w Window) Encode() string {
	b, _ := json.Marshal(wire{TS: [2]int64{w.Start, w.End}, TZ: w.TZOffsetHours})
	return url.QueryEscape(base64.StdEncoding.EncodeToString(b))
}

// Token computes and encodes the window for now in one step.
func Token(now time.Time, tzOffsetHours, windowHours int) (string, error) {
	w, err := Compute(now, tzOffsetHours, windowHours)
	if err != nil {
		return "", err
	}
	return w.Encode(), nil
}

// Decode reverses Encode.
func Decode(token string) (Window, error) {
	b64, err := url.QueryUnescape(token)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Window{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return Window{Start: w.TS[0], End: w.TS[1], TZOffsetHours: w.TZ}, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
