package ranking

import (
	"fmt"
	"strings"

	"github.com/example/shiftboard/internal/models"
)

// BadgePolicy picks at most one badge per row: the first rule in Order that
// matches wins.
type BadgePolicy struct {
	Order      []models.Badge
	WalkingKm  float64
	CuratedMin int
}

// DefaultBadgePolicy prefers the walking badge within 1km, then late.
func DefaultBadgePolicy() BadgePolicy {
	return BadgePolicy{
		Order:     []models.Badge{models.BadgeWalking, models.BadgeLate},
		WalkingKm: 1.0,
	}
}

// ParseBadgeOrder reads a comma separated rule list such as "walking,late".
func ParseBadgeOrder(s string) ([]models.Badge, error) {
	var out []models.Badge
	seen := map[models.Badge]bool{}
	for _, part := range strings.Split(s, ",") {
		b := models.Badge(strings.ToLower(strings.TrimSpace(part)))
		if b == models.BadgeNone {
			continue
		}
		switch b {
		case models.BadgeWalking, models.BadgeLate, models.BadgeCurated:
		default:
			return nil, fmt.Errorf("unknown badge %q", part)
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

func (p BadgePolicy) BadgeFor(r models.RankedRow) models.Badge {
	for _, b := range p.Order {
		if p.matches(b, r) {
			return b
		}
	}
	return models.BadgeNone
}

func (p BadgePolicy) matches(b models.Badge, r models.RankedRow) bool {
	switch b {
	case models.BadgeWalking:
		return r.DistanceKm != nil && *r.DistanceKm <= p.WalkingKm
	case models.BadgeLate:
		return r.LateSlot
	case models.BadgeCurated:
		return p.CuratedMin > 0 && r.EffectiveScore >= p.CuratedMin
	}
	return false
}
