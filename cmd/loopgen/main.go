// Command loopgen generates running loops around a point or a place and
// writes them as GPX or GeoJSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kr/pretty"
	"github.com/nwah/looprun-server/nav"
)

var (
	configFile = flag.String("config", "config.toml", "Path to the TOML config file")
	at         = flag.String("at", "", "Start point as lat,lng")
	near       = flag.String("near", "", "Place name to start from (needs nominatim_url)")
	km         = flag.Float64("km", 5, "Requested loop length in kilometers")
	count      = flag.Int("count", 3, "Number of loops")
	format     = flag.String("format", "gpx", "Output format: gpx or geojson")
	out        = flag.String("out", "", "Output file (default stdout)")
	verbose    = flag.Bool("v", false, "Dump the generated routes to stderr")
)

type options struct {
	at, near string
	km       float64
	count    int
	format   nav.ExportFormat
	verbose  bool
}

func run(ctx context.Context, cfg nav.NavConfig, opts options, w io.Writer) error {
	if !opts.format.IsValid() {
		return fmt.Errorf("invalid format %q: must be one of: %s, %s", opts.format, nav.FormatGPX, nav.FormatGeoJSON)
	}

	var center nav.GeoPoint
	var err error
	switch {
	case opts.at != "":
		if center, err = nav.ParseLatLng(opts.at); err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
	case opts.near != "":
		if cfg.NominatimURL == "" {
			return fmt.Errorf("-near needs nominatim_url or NOMINATIM_URL")
		}
		if center, err = nav.NewGeocoder(cfg.NominatimURL, nil).Locate(ctx, opts.near); err != nil {
			return err
		}
		log.Printf("Debug: %q resolved to %.5f,%.5f", opts.near, center.Lat, center.Lng)
	default:
		return fmt.Errorf("either -at or -near is required")
	}

	routes, err := nav.NewGeneratorFromConfig(cfg, nil).Generate(ctx, center, opts.km, opts.count)
	if err != nil {
		return err
	}
	for _, r := range routes {
		log.Printf("%s  %-16s %6.2fkm  +%.0fm  (%s)", r.ID, r.Name, r.EstimatedDistanceKm, r.Ascend, r.Method)
	}
	if opts.verbose {
		pretty.Fprintf(os.Stderr, "%# v\n", routes)
	}

	var data []byte
	if opts.format == nav.FormatGPX {
		data, err = nav.RoutesGPX(routes...)
	} else {
		data, err = nav.RoutesGeoJSON(routes...)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func main() {
	flag.Parse()
	if err := generate(); err != nil {
		log.Fatalf("Failed to generate loops: %v", err)
	}
}

func generate() error {
	cfg, err := nav.LoadConfigFile(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		at:      *at,
		near:    *near,
		km:      *km,
		count:   *count,
		format:  nav.ExportFormat(*format),
		verbose: *verbose,
	}
	if *out == "" {
		return run(ctx, cfg, opts, os.Stdout)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := run(ctx, cfg, opts, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
