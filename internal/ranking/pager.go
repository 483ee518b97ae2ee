package ranking

import "github.com/example/shiftboard/internal/models"

// Pager reveals a ranked list progressively. Max of zero means uncapped.
type Pager struct {
	PageSize int
	Step     int
	Max      int
}

// Page is the visible window of a ranked list.
type Page struct {
	Rows    []models.RankedRow `json:"rows"`
	Visible int                `json:"visible"`
	Total   int                `json:"total"`
	HasMore bool               `json:"has_more"`
	Next    int                `json:"next,omitempty"`
}

// Clamp normalizes a requested visible count: non-positive selects the first
// page and anything above Max is capped.
func (p Pager) Clamp(visible int) int {
	if visible <= 0 {
		visible = p.PageSize
	}
	if p.Max > 0 && visible > p.Max {
		visible = p.Max
	}
	return visible
}

// Reveal returns the visible count after one "show more".
func (p Pager) Reveal(visible int) int {
	step := p.Step
	if step <= 0 {
		step = p.PageSize
	}
	return p.Clamp(p.Clamp(visible) + step)
}

// Page slices the leading rows; it never reorders them.
func (p Pager) Page(rows []models.RankedRow, visible int) Page {
	visible = p.Clamp(visible)
	n := visible
	if n > len(rows) {
		n = len(rows)
	}
	pg := Page{Rows: rows[:n], Visible: visible, Total: len(rows)}
	if n < len(rows) && (p.Max == 0 || visible < p.Max) {
		pg.HasMore = true
		pg.Next = p.Reveal(visible)
	}
	return pg
}
