package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/shiftboard/internal/fixtures"
	"github.com/example/shiftboard/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	// quick ping
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) DB() *sql.DB  { return p.db }
func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

const rowColumns = `pe.slug, pe.display_name, sh.display_name, sh.slug, s.start_time, s.end_time, sh.lat, sh.lng, pe.avatar_url`

func scanRow(sc interface{ Scan(...any) error }, extra ...any) (models.CandidateRow, error) {
	var r models.CandidateRow
	var lat, lng sql.NullFloat64
	dest := append([]any{&r.Slug, &r.DisplayName, &r.VenueName, &r.VenueSlug, &r.StartTime, &r.EndTime, &lat, &lng, &r.ImageSrc}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return r, err
	}
	if lat.Valid && lng.Valid {
		r.Latitude, r.Longitude = &lat.Float64, &lng.Float64
	}
	return r, nil
}

func (p *PostgresStore) TodayRows(ctx context.Context, day time.Time) ([]models.CandidateRow, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT `+rowColumns+`
FROM shifts s
JOIN people pe ON pe.id = s.person_id
JOIN shops sh ON sh.id = s.shop_id
WHERE s.date = $1::date
ORDER BY s.id`, dayKey(day))
	if err != nil {
		return nil, fmt.Errorf("today rows: %w", err)
	}
	defer rows.Close()
	var out []models.CandidateRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan today row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CuratedPicks(ctx context.Context, day time.Time) ([]models.CandidateRow, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT DISTINCT ON (k.position, pe.id) `+rowColumns+`, k.score
FROM picks k
JOIN people pe ON pe.id = k.person_id
JOIN shifts s ON s.person_id = k.person_id AND s.date = k.date
JOIN shops sh ON sh.id = s.shop_id
WHERE k.date = $1::date
ORDER BY k.position, pe.id, s.id`, dayKey(day))
	if err != nil {
		return nil, fmt.Errorf("curated picks: %w", err)
	}
	defer rows.Close()
	var out []models.CandidateRow
	for rows.Next() {
		var score int
		r, err := scanRow(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		r.CuratedScore = &score
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Shops(ctx context.Context) ([]models.Shop, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, slug, display_name, area, lat, lng FROM shops ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("shops: %w", err)
	}
	defer rows.Close()
	var out []models.Shop
	for rows.Next() {
		var s models.Shop
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.Slug, &s.DisplayName, &s.Area, &lat, &lng); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			s.Lat, s.Lng = &lat.Float64, &lng.Float64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Person(ctx context.Context, slug string) (models.Person, error) {
	var pe models.Person
	err := p.db.QueryRowContext(ctx, `SELECT id, slug, display_name, is_staff, can_comment, avatar_url, instagram_url FROM people WHERE slug = $1`, slug).
		Scan(&pe.ID, &pe.Slug, &pe.DisplayName, &pe.IsStaff, &pe.CanComment, &pe.AvatarURL, &pe.InstagramURL)
	if errors.Is(err, sql.ErrNoRows) {
		return pe, fmt.Errorf("person %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return pe, fmt.Errorf("person %q: %w", slug, err)
	}
	return pe, nil
}

func (p *PostgresStore) RecommendationsAbout(ctx context.Context, slug string) ([]models.About, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT r.id, f.slug, t.slug, r.body, r.is_approved, r.created_at, f.display_name,
       (SELECT count(*) FROM recommendations c WHERE c.to_person_id = r.from_person_id AND c.is_approved)
FROM recommendations r
JOIN people f ON f.id = r.from_person_id
JOIN people t ON t.id = r.to_person_id
WHERE t.slug = $1 AND r.is_approved
ORDER BY r.created_at DESC`, slug)
	if err != nil {
		return nil, fmt.Errorf("recommendations about %q: %w", slug, err)
	}
	defer rows.Close()
	var out []models.About
	for rows.Next() {
		var a models.About
		if err := rows.Scan(&a.ID, &a.FromPerson, &a.ToPerson, &a.Body, &a.IsApproved, &a.CreatedAt, &a.FromDisplayName, &a.FromReceived); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStore) RecommendationsBy(ctx context.Context, slug string, limit int) ([]models.By, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT r.id, f.slug, t.slug, r.body, r.is_approved, r.created_at, t.display_name
FROM recommendations r
JOIN people f ON f.id = r.from_person_id
JOIN people t ON t.id = r.to_person_id
WHERE f.slug = $1 AND r.is_approved
ORDER BY r.created_at DESC
LIMIT $2`, slug, limit)
	if err != nil {
		return nil, fmt.Errorf("recommendations by %q: %w", slug, err)
	}
	defer rows.Close()
	var out []models.By
	for rows.Next() {
		var b models.By
		if err := rows.Scan(&b.ID, &b.FromPerson, &b.ToPerson, &b.Body, &b.IsApproved, &b.CreatedAt, &b.ToDisplayName); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *PostgresStore) WeekShifts(ctx context.Context, slug string, from, to time.Time) ([]models.WeekShift, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT s.id, pe.slug, sh.slug, s.date, s.start_time, s.end_time, sh.display_name, sh.area
FROM shifts s
JOIN people pe ON pe.id = s.person_id
JOIN shops sh ON sh.id = s.shop_id
WHERE pe.slug = $1 AND s.date BETWEEN $2::date AND $3::date
ORDER BY s.date, s.start_time`, slug, dayKey(from), dayKey(to))
	if err != nil {
		return nil, fmt.Errorf("week shifts %q: %w", slug, err)
	}
	defer rows.Close()
	var out []models.WeekShift
	for rows.Next() {
		var w models.WeekShift
		if err := rows.Scan(&w.ID, &w.Person, &w.Shop, &w.Date, &w.Start, &w.End, &w.ShopDisplayName, &w.ShopArea); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SaveRecommendation(ctx context.Context, r *models.Recommendation) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := p.db.ExecContext(ctx, `
INSERT INTO recommendations(id, from_person_id, to_person_id, body, is_approved, created_at)
SELECT $1, f.id, t.id, $4, $5, $6
FROM people f, people t
WHERE f.slug = $2 AND t.slug = $3`,
		r.ID, r.FromPerson, r.ToPerson, r.Body, r.IsApproved, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("save recommendation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recommendation %s -> %s: %w", r.FromPerson, r.ToPerson, ErrNotFound)
	}
	return nil
}

// ApproveRecommendation only updates pending rows; an already approved id
// is read back with changed=false.
func (p *PostgresStore) ApproveRecommendation(ctx context.Context, id string) (models.Recommendation, bool, error) {
	var r models.Recommendation
	err := p.db.QueryRowContext(ctx, `
UPDATE recommendations r SET is_approved = TRUE
FROM people f, people t
WHERE r.id = $1 AND NOT r.is_approved AND f.id = r.from_person_id AND t.id = r.to_person_id
RETURNING r.id, f.slug, t.slug, r.body, r.is_approved, r.created_at`, id).
		Scan(&r.ID, &r.FromPerson, &r.ToPerson, &r.Body, &r.IsApproved, &r.CreatedAt)
	if err == nil {
		return r, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return r, false, fmt.Errorf("approve recommendation: %w", err)
	}
	err = p.db.QueryRowContext(ctx, `
SELECT r.id, f.slug, t.slug, r.body, r.is_approved, r.created_at
FROM recommendations r
JOIN people f ON f.id = r.from_person_id
JOIN people t ON t.id = r.to_person_id
WHERE r.id = $1`, id).
		Scan(&r.ID, &r.FromPerson, &r.ToPerson, &r.Body, &r.IsApproved, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, false, fmt.Errorf("recommendation %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return r, false, fmt.Errorf("approve recommendation: %w", err)
	}
	return r, false, nil
}

func (p *PostgresStore) ReceivedCounts(ctx context.Context, slugs []string) (map[string]int, error) {
	if slugs == nil {
		slugs = []string{}
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT t.slug, count(r.id)
FROM people t
LEFT JOIN recommendations r ON r.to_person_id = t.id AND r.is_approved
WHERE cardinality($1::text[]) = 0 OR t.slug = ANY($1::text[])
GROUP BY t.slug
HAVING cardinality($1::text[]) > 0 OR count(r.id) > 0`, pq.Array(slugs))
	if err != nil {
		return nil, fmt.Errorf("received counts: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var slug string
		var n int
		if err := rows.Scan(&slug, &n); err != nil {
			return nil, err
		}
		out[slug] = n
	}
	return out, rows.Err()
}

// Seed replaces all rows with the snapshot, picks dated on pickDay.
func (p *PostgresStore) Seed(ctx context.Context, snap fixtures.Snapshot, pickDay time.Time) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// children before parents
	for _, table := range []string{"favorites", "recommendations", "picks", "shifts", "users", "people", "shops"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	personID := map[string]int64{}
	for _, pe := range snap.People {
		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO people(slug, display_name, is_staff, can_comment, avatar_url, instagram_url) VALUES($1,$2,$3,$4,$5,$6) RETURNING id`,
			pe.Slug, pe.DisplayName, pe.IsStaff, pe.CanComment, pe.AvatarURL, pe.InstagramURL).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert person %s: %w", pe.Slug, err)
		}
		personID[pe.Slug] = id
	}
	shopID := map[string]int64{}
	for _, s := range snap.Shops {
		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO shops(slug, display_name, area, lat, lng) VALUES($1,$2,$3,$4,$5) RETURNING id`,
			s.Slug, s.DisplayName, s.Area, s.Lat, s.Lng).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert shop %s: %w", s.Slug, err)
		}
		shopID[s.Slug] = id
	}
	for _, sh := range snap.Shifts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO shifts(person_id, shop_id, date, start_time, end_time) VALUES($1,$2,$3::date,$4,$5)`,
			personID[sh.Person], shopID[sh.Shop], dayKey(sh.Date), sh.Start, sh.End); err != nil {
			return fmt.Errorf("insert shift: %w", err)
		}
	}
	for i, slug := range snap.PickOrder {
		if _, err := tx.ExecContext(ctx, `INSERT INTO picks(date, person_id, score, position) VALUES($1::date,$2,$3,$4)`,
			dayKey(pickDay), personID[slug], snap.Picks[slug], i); err != nil {
			return fmt.Errorf("insert pick %s: %w", slug, err)
		}
	}
	for _, r := range snap.Recommendations {
		if _, err := tx.ExecContext(ctx, `INSERT INTO recommendations(id, from_person_id, to_person_id, body, is_approved, created_at) VALUES($1,$2,$3,$4,$5,$6)`,
			r.ID, personID[r.FromPerson], personID[r.ToPerson], r.Body, r.IsApproved, r.CreatedAt); err != nil {
			return fmt.Errorf("insert recommendation %s: %w", r.ID, err)
		}
	}
	userID := map[int64]int64{}
	for _, u := range snap.Users {
		var id int64
		if err := tx.QueryRowContext(ctx, `INSERT INTO users(email) VALUES($1) RETURNING id`, u.Email).Scan(&id); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
		userID[u.ID] = id
	}
	for _, f := range snap.Favorites {
		if _, err := tx.ExecContext(ctx, `INSERT INTO favorites(user_id, person_id) VALUES($1,$2)`, userID[f.UserID], personID[f.Person]); err != nil {
			return fmt.Errorf("insert favorite: %w", err)
		}
	}
	return tx.Commit()
}
