package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shiftboard/internal/listing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rankOpts.view, rankOpts.lat, rankOpts.lng, rankOpts.mode = "picks", "", "", ""
	rankOpts.shop, rankOpts.bucket, rankOpts.visible, rankOpts.asJSON = "", "", 0, false
	dsn, fixturesPath = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRankPicksTable(t *testing.T) {
	out, err := execute(t, "rank", "--at", "2026-10-19T20:15:00+09:00")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "(fallback)")
	assert.Contains(t, lines[2], "alice")
	assert.Contains(t, lines[2], "walking")
	assert.Contains(t, out, "showing 3 of 3")
}

func TestRankTodayNearbyJSON(t *testing.T) {
	out, err := execute(t, "rank", "--view", "today", "--lat", "35.703119", "--lng", "139.579765",
		"--at", "2026-10-19T20:15:00+09:00", "--json")
	require.NoError(t, err)
	var res listing.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "chloe", res.Rows[0].Slug)
	assert.False(t, res.Fallback)
}

func TestRankRejectsBadInput(t *testing.T) {
	_, err := execute(t, "rank", "--time", "noon")
	assert.Error(t, err)
	_, err = execute(t, "rank", "--view", "week")
	assert.Error(t, err)
}

func TestSeedRequiresDSN(t *testing.T) {
	_, err := execute(t, "seed")
	assert.ErrorContains(t, err, "PG_DSN")
}
