package models

import "time"

type Coord struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

type Person struct {
	ID           int64  `json:"id" yaml:"-"`
	Slug         string `json:"slug" yaml:"slug"`
	DisplayName  string `json:"display_name" yaml:"display_name"`
	IsStaff      bool   `json:"is_staff" yaml:"is_staff"`
	CanComment   bool   `json:"can_comment" yaml:"can_comment"`
	AvatarURL    string `json:"avatar_url" yaml:"avatar_url"`
	InstagramURL string `json:"instagram_url,omitempty" yaml:"instagram_url"`
}

type Shop struct {
	ID          int64    `json:"id" yaml:"-"`
	Slug        string   `json:"slug" yaml:"slug"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Area        string   `json:"area" yaml:"area"`
	Lat         *float64 `json:"lat,omitempty" yaml:"lat"`
	Lng         *float64 `json:"lng,omitempty" yaml:"lng"`
}

// Shift is one scheduled appearance of a person at a shop. Start and End are
// wall-clock "HH:MM" strings; End may be "24:00".
type Shift struct {
	ID     int64     `json:"id" yaml:"-"`
	Person string    `json:"person" yaml:"person"`
	Shop   string    `json:"shop" yaml:"shop"`
	Date   time.Time `json:"date" yaml:"-"`
	Start  string    `json:"start" yaml:"start"`
	End    string    `json:"end" yaml:"end"`
}

type Recommendation struct {
	ID         string    `json:"id" yaml:"id"`
	FromPerson string    `json:"from_person" yaml:"from"`
	ToPerson   string    `json:"to_person" yaml:"to"`
	Body       string    `json:"body" yaml:"body"`
	IsApproved bool      `json:"is_approved" yaml:"approved"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type Favorite struct {
	UserID int64  `json:"user_id"`
	Person string `json:"person"`
}

// CandidateRow is one listing entry for today: a person working a slot at a
// venue. CuratedScore is nil for rows that were not editorially picked.
type CandidateRow struct {
	Slug         string   `json:"slug"`
	DisplayName  string   `json:"display_name"`
	VenueName    string   `json:"venue_name"`
	VenueSlug    string   `json:"venue_slug,omitempty"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	CuratedScore *int     `json:"curated_score,omitempty"`
	ImageSrc     string   `json:"image_src,omitempty"`
}

type Badge string

const (
	BadgeNone    Badge = ""
	BadgeWalking Badge = "walking"
	BadgeLate    Badge = "late"
	BadgeCurated Badge = "curated"
)

// RankedRow is a CandidateRow annotated for display. It is built fresh for
// every ranking call and never persisted.
type RankedRow struct {
	CandidateRow
	DistanceKm     *float64 `json:"distance_km"`
	DistanceLabel  string   `json:"distance_label"`
	EffectiveScore int      `json:"effective_score"`
	OriginalIndex  int      `json:"original_index"`
	ActiveNow      bool     `json:"active_now"`
	LateSlot       bool     `json:"late_slot"`
	Badge          Badge    `json:"badge,omitempty"`
}

// About is a recommendation received by a person, with the recommender's own
// approved received count used for ordering.
type About struct {
	Recommendation
	FromDisplayName string `json:"from_display_name"`
	FromReceived    int    `json:"from_received_count"`
}

type WeekShift struct {
	Shift
	ShopDisplayName string `json:"shop_display_name"`
	ShopArea        string `json:"shop_area"`
}

type By struct {
	Recommendation
	ToDisplayName string `json:"to_display_name"`
}

type PersonPage struct {
	Person     Person      `json:"person"`
	Abouts     []About     `json:"abouts"`
	WeekShifts []WeekShift `json:"week_shifts"`
	Bys        []By        `json:"bys"`
	Fallback   bool        `json:"fallback"`
}
