package ranking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/schedule"
)

// Bucket is a start-time band for the today filter. BucketAny matches all rows.
type Bucket string

const (
	BucketAny          Bucket = ""
	BucketNow          Bucket = "now"
	BucketEarlyEvening Bucket = "19-21"
	BucketLateEvening  Bucket = "21-23"
	BucketVeryLate     Bucket = "23+"
)

var ErrUnknownBucket = errors.New("unknown time bucket")

// Buckets lists the selectable time buckets in display order.
var Buckets = []Bucket{BucketNow, BucketEarlyEvening, BucketLateEvening, BucketVeryLate}

// ParseBucket accepts a query value; empty means BucketAny.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.TrimSpace(s))
	switch b {
	case BucketAny, BucketNow, BucketEarlyEvening, BucketLateEvening, BucketVeryLate:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

// Label is the filter option text.
func (b Bucket) Label() string {
	if b == BucketNow {
		return "いま行ける"
	}
	return strings.Replace(string(b), "-", "–", 1)
}

// Filter narrows rows before sorting. Zero value keeps everything.
type Filter struct {
	Venue  string `json:"venue,omitempty"`
	Bucket Bucket `json:"time,omitempty"`
}

// Key identifies the filter so callers can detect a change and reset paging.
func (f Filter) Key() string {
	return f.Venue + "|" + string(f.Bucket)
}

func (f Filter) Apply(rows []models.RankedRow, now time.Time) []models.RankedRow {
	if f.Venue == "" && f.Bucket == BucketAny {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		if f.Venue != "" && r.VenueName != f.Venue {
			continue
		}
		if !f.Bucket.Matches(r, now) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Matches reports whether r belongs to the bucket. Buckets other than "now"
// look at the start time only; a malformed start never matches.
func (b Bucket) Matches(r models.RankedRow, now time.Time) bool {
	switch b {
	case BucketAny:
		return true
	case BucketNow:
		return schedule.IsActive(r.StartTime, r.EndTime, now)
	}
	start, err := schedule.ParseMinutes(r.StartTime)
	if err != nil {
		return false
	}
	switch b {
	case BucketEarlyEvening:
		return start >= 19*60 && start < 21*60
	case BucketLateEvening:
		return start >= 21*60 && start < 23*60
	case BucketVeryLate:
		return start >= 23*60
	}
	return false
}

// Venues returns the distinct venue names of rows in first-seen order.
func Venues(rows []models.CandidateRow) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		if r.VenueName == "" || seen[r.VenueName] {
			continue
		}
		seen[r.VenueName] = true
		out = append(out, r.VenueName)
	}
	return out
}
