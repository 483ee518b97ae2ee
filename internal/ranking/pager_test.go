package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/shiftboard/internal/models"
)

func ranked(n int) []models.RankedRow {
	out := make([]models.RankedRow, n)
	for i := range out {
		out[i] = models.RankedRow{CandidateRow: models.CandidateRow{Slug: fmt.Sprintf("p%02d", i)}, OriginalIndex: i}
	}
	return out
}

func TestPicksPagerReveal(t *testing.T) {
	p := Pager{PageSize: 5, Step: 15, Max: 20}
	rows := ranked(27)

	first := p.Page(rows, 0)
	assert.Len(t, first.Rows, 5)
	assert.True(t, first.HasMore)
	assert.Equal(t, 20, first.Next)

	second := p.Page(rows, p.Reveal(first.Visible))
	assert.Equal(t, 20, second.Visible)
	assert.Len(t, second.Rows, 20)
	assert.False(t, second.HasMore)
	assert.Equal(t, 20, p.Reveal(second.Visible))

	assert.Equal(t, rows[:20], second.Rows, "reveal must not reorder")
}

func TestTodayPagerUncapped(t *testing.T) {
	p := Pager{PageSize: 20, Step: 20}
	rows := ranked(45)
	assert.Equal(t, 40, p.Reveal(20))
	pg := p.Page(rows, 40)
	assert.Len(t, pg.Rows, 40)
	assert.True(t, pg.HasMore)
	pg = p.Page(rows, 60)
	assert.Len(t, pg.Rows, 45)
	assert.False(t, pg.HasMore)
}

func TestPagerClamp(t *testing.T) {
	p := Pager{PageSize: 5, Step: 15, Max: 20}
	assert.Equal(t, 5, p.Clamp(-3))
	assert.Equal(t, 20, p.Clamp(500))
	assert.Equal(t, 7, p.Clamp(7))
}

func TestPagerFewRows(t *testing.T) {
	p := Pager{PageSize: 5, Step: 15, Max: 20}
	pg := p.Page(ranked(3), 0)
	assert.Len(t, pg.Rows, 3)
	assert.False(t, pg.HasMore)
	assert.Equal(t, 3, pg.Total)
}
