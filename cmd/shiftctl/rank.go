package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/shiftboard/internal/listing"
	"github.com/example/shiftboard/internal/location"
	"github.com/example/shiftboard/internal/ranking"
	"github.com/example/shiftboard/internal/schedule"
	"github.com/example/shiftboard/internal/storage"
)

var rankOpts struct {
	view    string
	lat     string
	lng     string
	mode    string
	shop    string
	bucket  string
	visible int
	at      string
	tz      string
	asJSON  bool
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print a ranked listing as the site would show it",
	Long: `Ranks today's rows for a viewer position. Without --dsn the dataset
(embedded or --fixtures) is used.`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

func init() {
	f := rankCmd.Flags()
	f.StringVar(&rankOpts.view, "view", "picks", "picks or today")
	f.StringVar(&rankOpts.lat, "lat", "", "Viewer latitude")
	f.StringVar(&rankOpts.lng, "lng", "", "Viewer longitude")
	f.StringVar(&rankOpts.mode, "mode", "", "curated or nearby (default depends on view)")
	f.StringVar(&rankOpts.shop, "shop", "", "Venue name filter (today view)")
	f.StringVar(&rankOpts.bucket, "time", "", "Time bucket filter: now, 19-21, 21-23, 23+")
	f.IntVar(&rankOpts.visible, "visible", 0, "Visible row count (default first page)")
	f.StringVar(&rankOpts.at, "at", "", "Evaluate at this RFC3339 time instead of now")
	f.StringVar(&rankOpts.tz, "tz", "Asia/Tokyo", "Site time zone")
	f.BoolVar(&rankOpts.asJSON, "json", false, "Print JSON")
}

func runRank(cmd *cobra.Command, _ []string) error {
	loc, err := time.LoadLocation(rankOpts.tz)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	if rankOpts.at != "" {
		if now, err = time.Parse(time.RFC3339, rankOpts.at); err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		now = now.In(loc)
	}
	q := listing.Query{Visible: rankOpts.visible}
	if rankOpts.mode != "" {
		if q.Mode, err = ranking.ParseMode(rankOpts.mode); err != nil {
			return err
		}
	}
	bucket, err := ranking.ParseBucket(rankOpts.bucket)
	if err != nil {
		return err
	}
	q.Filter = ranking.Filter{Venue: rankOpts.shop, Bucket: bucket}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var store storage.Store
	if dsn != "" {
		pg, err := storage.NewPostgresStore(ctx, dsn)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
	} else {
		ds, err := dataset()
		if err != nil {
			return err
		}
		store = storage.NewMemoryStore(ds.Snapshot(now), schedule.FixedClock(now))
	}

	var sources []location.Source
	if rankOpts.lat != "" || rankOpts.lng != "" {
		sources = append(sources, location.Static(rankOpts.lat, rankOpts.lng))
	}
	viewer := location.NewResolver(location.DefaultFallback, 0).Resolve(ctx, sources...)
	q.Viewer = viewer.Coord

	svc := &listing.Service{
		Store:  store,
		Clock:  schedule.FixedClock(now),
		Badges: ranking.DefaultBadgePolicy(),
		Picks:  ranking.Pager{PageSize: 5, Step: 15, Max: 20},
		Today:  ranking.Pager{PageSize: 20, Step: 20},
		Logger: logger(),
	}
	var res listing.Result
	switch listing.View(rankOpts.view) {
	case listing.ViewPicks:
		res, err = svc.PicksView(ctx, q)
	case listing.ViewToday:
		res, err = svc.TodayView(ctx, q)
	default:
		return fmt.Errorf("unknown view %q", rankOpts.view)
	}
	if err != nil {
		return err
	}
	res.Fallback = viewer.Fallback

	if rankOpts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printRanked(cmd.OutOrStdout(), res)
	return nil
}

func printRanked(w io.Writer, res listing.Result) {
	fmt.Fprintf(w, "%s · %s · viewer %.6f,%.6f", res.View, res.Mode, res.Viewer.Lat, res.Viewer.Lng)
	if res.Fallback {
		fmt.Fprint(w, " (fallback)")
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSLUG\tVENUE\tTIME\tDIST\tSCORE\tBADGE\tNOW")
	for i, r := range res.Rows {
		active := ""
		if r.ActiveNow {
			active = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s-%s\t%s\t%s\t%s\t%s\n",
			i+1, r.Slug, r.VenueName, r.StartTime, r.EndTime, r.DistanceLabel,
			strconv.Itoa(r.EffectiveScore), r.Badge, active)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "showing %d of %d", len(res.Rows), res.Total)
	if res.HasMore {
		fmt.Fprintf(w, " (next %d)", res.Next)
	}
	fmt.Fprintln(w)
}
