package profile

import (
	"strings"
	"time"

	"github.com/example/shiftboard/internal/models"
)

// FallbackPage is the placeholder shown for unknown people or while the
// store is failing.
func FallbackPage(slug string, now time.Time) models.PersonPage {
	s := slug
	if s == "" {
		s = "anonymous"
	}
	name := strings.ToUpper(s[:1]) + s[1:]
	return models.PersonPage{
		Person: models.Person{Slug: s, DisplayName: name, IsStaff: true, CanComment: true},
		Abouts: []models.About{{
			Recommendation:  models.Recommendation{ID: "b", FromPerson: "ben", ToPerson: s, Body: "Creativity!", IsApproved: true},
			FromDisplayName: "Ben",
		}},
		WeekShifts: []models.WeekShift{{
			Shift:           models.Shift{Person: s, Shop: "shibuya-chic", Date: now},
			ShopDisplayName: "渋谷CHIC",
			ShopArea:        "渋谷",
		}},
		Bys: []models.By{{
			Recommendation: models.Recommendation{ID: "to1", FromPerson: s, ToPerson: "ben", IsApproved: true},
			ToDisplayName:  "Ben",
		}},
		Fallback: true,
	}
}
