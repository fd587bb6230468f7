// Command assess scores a batch of importer records offline and prints the
// result as JSON. It runs the same parse, geocode, validate and assess steps
// as the service, then optionally ranks, routes or summarizes the valid
// records. Rejected records are reported on stderr.
//
// Usage:
//
//	go run ./cmd/assess -in records.json -mode route -region "Almaty Region" -max 8
//	go run ./cmd/assess -in records.json -mode table -level high -condition-min 4
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-priority-service/internal/adapter/mapbox"
	"github.com/couchcryptid/hydro-priority-service/internal/config"
	"github.com/couchcryptid/hydro-priority-service/internal/domain"
	"github.com/couchcryptid/hydro-priority-service/internal/observability"
	"github.com/couchcryptid/hydro-priority-service/internal/pipeline"
	"github.com/couchcryptid/hydro-priority-service/internal/route"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	in      string
	mode    string
	region  string
	max     int
	sortBy  string
	order   string
	limit   int
	now     string
	geocode bool
	filter  route.Filter
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "-", "JSON array of importer records; - reads stdin")
	fs.StringVar(&o.mode, "mode", "list", "output: list, table, route, summary or heatmap")
	fs.StringVar(&o.region, "region", "", "only include objects in this region")
	fs.IntVar(&o.max, "max", route.DefaultMaxObjects, "route mode: maximum stops")
	fs.StringVar(&o.sortBy, "sort", "priority", "table mode: priority, condition, passport_date or name")
	fs.StringVar(&o.order, "order", "desc", "table mode: asc or desc")
	fs.IntVar(&o.limit, "limit", 100, "table mode: maximum rows, 0 for all")
	fs.StringVar(&o.now, "now", "", "assess as of this date (YYYY-MM-DD) instead of today")
	fs.BoolVar(&o.geocode, "geocode", false, "geocode through Mapbox using MAPBOX_TOKEN")

	var level, resourceType, waterType, fauna, from, to string
	fs.StringVar(&level, "level", "", "list/table: inspection priority level (low, medium, high)")
	fs.StringVar(&resourceType, "type", "", "list/table: resource type")
	fs.StringVar(&waterType, "water", "", "list/table: water type")
	fs.StringVar(&fauna, "fauna", "", "list/table: true or false")
	fs.IntVar(&o.filter.MinCondition, "condition-min", 0, "list/table: minimum technical condition")
	fs.IntVar(&o.filter.MaxCondition, "condition-max", 0, "list/table: maximum technical condition")
	fs.StringVar(&from, "from", "", "list/table: passport issued on or after (YYYY-MM-DD)")
	fs.StringVar(&to, "to", "", "list/table: passport issued on or before (YYYY-MM-DD)")
	fs.StringVar(&o.filter.Search, "search", "", "list/table: substring of name, region or description")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch o.mode {
	case "list", "table", "route", "summary", "heatmap":
	default:
		return o, fmt.Errorf("unknown mode %q", o.mode)
	}

	o.filter.Region = o.region
	if err := parseFilter(&o.filter, level, resourceType, waterType, fauna, from, to); err != nil {
		return o, err
	}
	return o, nil
}

func parseFilter(f *route.Filter, level, resourceType, waterType, fauna, from, to string) error {
	switch l := domain.PriorityLevel(strings.ToLower(level)); l {
	case "", domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		f.Level = l
	default:
		return fmt.Errorf("unknown -level %q", level)
	}

	if resourceType != "" {
		t, ok := domain.ParseResourceType(resourceType)
		if !ok {
			return fmt.Errorf("unknown -type %q", resourceType)
		}
		f.ResourceType = t
	}
	if waterType != "" {
		t, ok := domain.ParseWaterType(waterType)
		if !ok {
			return fmt.Errorf("unknown -water %q", waterType)
		}
		f.WaterType = t
	}
	if fauna != "" {
		v, err := strconv.ParseBool(fauna)
		if err != nil {
			return fmt.Errorf("invalid -fauna %q", fauna)
		}
		f.Fauna = &v
	}

	var err error
	if f.PassportFrom, err = parseDateFlag("from", from); err != nil {
		return err
	}
	if f.PassportTo, err = parseDateFlag("to", to); err != nil {
		return err
	}
	return nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return d.Time, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "assess: %v\n", err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if opts.now != "" {
		d, err := domain.ParseDate(opts.now)
		if err != nil {
			fmt.Fprintf(stderr, "assess: invalid -now: %v\n", err)
			return 2
		}
		domain.SetClock(clockwork.NewFakeClockAt(d.Time))
		defer domain.SetClock(nil)
	}

	geocoder, err := newGeocoder(opts.geocode, logger)
	if err != nil {
		fmt.Fprintf(stderr, "assess: %v\n", err)
		return 2
	}

	records, err := readRecords(opts.in, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "assess: %v\n", err)
		return 1
	}

	objs, rejected := assessAll(ctx, records, pipeline.NewTransformer(geocoder, logger), stderr)

	now := domain.Now()
	var out any
	switch opts.mode {
	case "table":
		out = route.Rank(objs, now, opts.filter, route.ParseSortKey(opts.sortBy), route.ParseOrder(opts.order), opts.limit)
	case "route":
		out = route.Plan(objs, now, route.Options{Region: opts.region, MaxObjects: opts.max})
	case "summary":
		out = route.Summarize(objs, now)
	case "heatmap":
		out = route.Heatmap(objs)
	default:
		out = opts.filter.Apply(objs, now)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "assess: write output: %v\n", err)
		return 1
	}

	if rejected > 0 {
		fmt.Fprintf(stderr, "assess: %d of %d records rejected\n", rejected, len(records))
		return 3
	}
	return 0
}

func newGeocoder(enabled bool, logger *slog.Logger) (domain.Geocoder, error) {
	if !enabled {
		return nil, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.MapboxToken == "" {
		return nil, errors.New("-geocode requires MAPBOX_TOKEN")
	}
	metrics := observability.NewUnregisteredMetrics()
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxCountry, cfg.MapboxTimeout, metrics, logger)
	return mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics), nil
}

func readRecords(path string, stdin io.Reader) ([]json.RawMessage, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode input: expected a JSON array of records: %w", err)
	}
	return records, nil
}

// assessAll transforms every record, reporting rejects on stderr with their
// position in the input.
func assessAll(ctx context.Context, records []json.RawMessage, t pipeline.Transformer, stderr io.Writer) ([]domain.WaterObject, int) {
	objs := make([]domain.WaterObject, 0, len(records))
	rejected := 0
	received := time.Now()
	for i, rec := range records {
		obj, err := t.Transform(ctx, domain.RawEvent{Value: rec, Offset: int64(i), Timestamp: received})
		if err != nil {
			rejected++
			fmt.Fprintf(stderr, "record %d rejected (%s): %v\n", i, pipeline.RejectReason(err), err)
			continue
		}
		objs = append(objs, obj)
	}
	return objs, rejected
}
