// Package fixtures provides the default dataset used to seed the in-memory
// store and to serve pages while the database is unavailable.
package fixtures

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/shiftboard/internal/models"
	"github.com/example/shiftboard/internal/schedule"
)

//go:embed default.yaml
var defaultYAML []byte

// Provider yields a dataset anchored at the given day.
type Provider interface {
	Snapshot(now time.Time) Snapshot
}

type Dataset struct {
	Shops           []models.Shop   `yaml:"shops"`
	People          []models.Person `yaml:"people"`
	Shifts          []ShiftFixture  `yaml:"shifts"`
	Picks           []PickFixture   `yaml:"picks"`
	Recommendations []RecFixture    `yaml:"recommendations"`
	Users           []UserFixture   `yaml:"users"`
}

type ShiftFixture struct {
	Person string `yaml:"person"`
	Shop   string `yaml:"shop"`
	Day    int    `yaml:"day"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
}

type PickFixture struct {
	Person string `yaml:"person"`
	Score  int    `yaml:"score"`
}

type RecFixture struct {
	models.Recommendation `yaml:",inline"`
	AgeHours              int `yaml:"age_hours"`
}

type UserFixture struct {
	Email     string   `yaml:"email"`
	Favorites []string `yaml:"favorites"`
}

// Snapshot is a Dataset with concrete dates. Day is the date that day
// offsets and picks were resolved against.
type Snapshot struct {
	Day             time.Time
	Shops           []models.Shop
	People          []models.Person
	Shifts          []models.Shift
	Picks           map[string]int // person slug -> curated score for today
	PickOrder       []string
	Recommendations []models.Recommendation
	Users           []models.User
	Favorites       []models.Favorite
}

// Default returns the embedded dataset.
func Default() *Dataset {
	ds, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("fixtures: embedded dataset: %v", err))
	}
	return ds
}

// Load reads a dataset from path; an empty path returns Default.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (d *Dataset) validate() error {
	people := map[string]bool{}
	for _, p := range d.People {
		if p.Slug == "" {
			return fmt.Errorf("fixtures: person without slug")
		}
		if people[p.Slug] {
			return fmt.Errorf("fixtures: duplicate person %q", p.Slug)
		}
		people[p.Slug] = true
	}
	shops := map[string]bool{}
	for _, s := range d.Shops {
		shops[s.Slug] = true
	}
	for _, s := range d.Shifts {
		if !people[s.Person] || !shops[s.Shop] {
			return fmt.Errorf("fixtures: shift %s@%s references unknown person or shop", s.Person, s.Shop)
		}
	}
	for _, p := range d.Picks {
		if !people[p.Person] {
			return fmt.Errorf("fixtures: pick references unknown person %q", p.Person)
		}
	}
	for _, r := range d.Recommendations {
		if !people[r.FromPerson] || !people[r.ToPerson] {
			return fmt.Errorf("fixtures: recommendation %s references unknown person", r.ID)
		}
	}
	return nil
}

// Snapshot materializes the dataset relative to now.
func (d *Dataset) Snapshot(now time.Time) Snapshot {
	today := schedule.StartOfDay(now)
	s := Snapshot{
		Day:    today,
		Shops:  append([]models.Shop(nil), d.Shops...),
		People: append([]models.Person(nil), d.People...),
		Picks:  make(map[string]int, len(d.Picks)),
	}
	for i := range s.Shops {
		s.Shops[i].ID = int64(i + 1)
	}
	for i := range s.People {
		s.People[i].ID = int64(i + 1)
	}
	for i, f := range d.Shifts {
		s.Shifts = append(s.Shifts, models.Shift{
			ID:     int64(i + 1),
			Person: f.Person,
			Shop:   f.Shop,
			Date:   today.AddDate(0, 0, f.Day),
			Start:  f.Start,
			End:    f.End,
		})
	}
	for _, p := range d.Picks {
		s.Picks[p.Person] = p.Score
		s.PickOrder = append(s.PickOrder, p.Person)
	}
	for _, r := range d.Recommendations {
		rec := r.Recommendation
		rec.CreatedAt = now.Add(-time.Duration(r.AgeHours) * time.Hour)
		s.Recommendations = append(s.Recommendations, rec)
	}
	for i, u := range d.Users {
		id := int64(i + 1)
		s.Users = append(s.Users, models.User{ID: id, Email: u.Email})
		for _, fav := range u.Favorites {
			s.Favorites = append(s.Favorites, models.Favorite{UserID: id, Person: fav})
		}
	}
	return s
}
