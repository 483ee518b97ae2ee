package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2026, 10, 19, h, m, 0, 0, time.UTC)
}

func TestParseMinutes(t *testing.T) {
	cases := map[string]int{
		"0:00":  0,
		"9:05":  545,
		"19:00": 1140,
		"23:59": 1439,
		"24:00": 1440,
	}
	for in, want := range cases {
		got, err := ParseMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "19", "19:0", "19:000", "1900", "24:30", "25:00", "19:60", "ab:cd", "-1:00", " 9:00", "123:00"} {
		_, err := ParseMinutes(bad)
		assert.ErrorIs(t, err, ErrBadTime, bad)
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "09:05", FormatMinutes(545))
	assert.Equal(t, "24:00", FormatMinutes(1440))
}

func TestIsLateSlot(t *testing.T) {
	assert.True(t, IsLateSlot("23:30", "24:00"))
	assert.False(t, IsLateSlot("19:00", "23:00"))
	assert.True(t, IsLateSlot("23:00", "23:45"))
	assert.True(t, IsLateSlot("20:00", "24:00"))
	assert.True(t, IsLateSlot("22:00", "02:00"))
	assert.True(t, IsLateSlot("20:00", "20:00"))
	assert.False(t, IsLateSlot("bogus", "24:00"))
}

func TestIsActive(t *testing.T) {
	now := at(20, 15)
	assert.True(t, IsActive("19:00", "23:00", now))
	assert.False(t, IsActive("21:00", "24:00", now))
	assert.True(t, IsActive("20:15", "21:00", now))
	assert.False(t, IsActive("19:00", "20:15", now))
	assert.False(t, IsActive("19:00", "nope", now))
}

func TestIsActiveOvernight(t *testing.T) {
	assert.True(t, IsActive("21:00", "24:00", at(23, 59)))
	assert.False(t, IsActive("21:00", "24:00", at(0, 0)))
	assert.True(t, IsActive("22:00", "02:00", at(23, 0)))
	assert.True(t, IsActive("22:00", "02:00", at(1, 30)))
	assert.False(t, IsActive("22:00", "02:00", at(2, 0)))
	assert.False(t, IsActive("22:00", "02:00", at(21, 59)))
}

func TestWeek(t *testing.T) {
	// 2026-10-19 is a Monday
	start, end := Week(at(15, 0))
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Saturday, end.Weekday())
	assert.Equal(t, 18, start.Day())
	assert.Equal(t, 24, end.Day())
	assert.Equal(t, 0, start.Hour())
}
