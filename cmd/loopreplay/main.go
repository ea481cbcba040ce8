// Command loopreplay feeds a recorded GPX track through a navigation session
// on a guide route and prints the guidance produced for every fix.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nwah/looprun-server/nav"
)

var (
	configFile = flag.String("config", "config.toml", "Path to the TOML config file")
	routeFile  = flag.String("route", "", "GPX file with the guide route")
	trackFile  = flag.String("track", "", "GPX file with the recorded track to replay")
	changes    = flag.Bool("changes", false, "Only print fixes where the instruction changes")
)

func readPoints(path string) ([]nav.RoutePoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return nav.ReadGPX(data)
}

// replay runs every track point through a session on route and writes one
// line per reported fix, then a summary of the recorded run.
func replay(ctx context.Context, cfg nav.NavConfig, route, track []nav.RoutePoint, onlyChanges bool, w io.Writer) error {
	guide := nav.RouteOption{Route: nav.Route{Points: route}, ID: "replay"}
	guide.EstimatedDistanceKm = nav.PathLengthKm(guide.Geo())

	s, err := nav.NewSession("replay", guide, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(w, "guide: %d points, %.2fkm, %d turns\n", len(route), guide.EstimatedDistanceKm, len(s.Turns()))

	var last nav.Guidance
	for i, p := range track {
		g, err := s.Update(ctx, nav.Fix{Position: p.GeoPoint})
		if err != nil {
			return fmt.Errorf("fix %d: %w", i, err)
		}
		changed := i == 0 || g.Instruction.Kind != last.Instruction.Kind || g.TurnIndex != last.TurnIndex
		last = g
		if onlyChanges && !changed {
			continue
		}
		fmt.Fprintf(w, "%5d  idx=%-5d %-10s %-18s in %6.0fm  left %6.0fm  off %4.0fm\n",
			i, g.ProgressIndex, g.Instruction.Icon, g.Instruction.Text, g.DistanceM, g.RemainingM, g.OffRouteM)
	}

	run, err := s.Recorded(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "recorded: %d points, %.2fkm, %d kcal\n", len(run.Path), run.DistanceKm, run.Calories)
	return nil
}

func main() {
	flag.Parse()
	if *routeFile == "" || *trackFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := nav.LoadConfigFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	route, err := readPoints(*routeFile)
	if err != nil {
		log.Fatalf("Failed to read guide route: %v", err)
	}
	track, err := readPoints(*trackFile)
	if err != nil {
		log.Fatalf("Failed to read track: %v", err)
	}

	if err := replay(context.Background(), cfg, route, track, *changes, os.Stdout); err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
}
