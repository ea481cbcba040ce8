package nav

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// LoopEngine is an external round-trip routing capability
type LoopEngine interface {
	RoundTrip(ctx context.Context, center GeoPoint, distanceM, seed int) (*RouteOption, error)
}

// Generator plans loop routes. It fans out the attempt menu to the engine,
// keeps the distinct candidates closest to the requested distance and falls
// back to geometric loops when the engine is missing or yields nothing.
type Generator struct {
	engine LoopEngine
	cfg    NavConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator around engine; a nil engine means
// fallback-only generation.
func NewGenerator(cfg NavConfig, engine LoopEngine) *Generator {
	return &Generator{
		engine: engine,
		cfg:    cfg.WithDefaults(),
		rng:    rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// NewGeneratorFromConfig wires a GraphHopper engine when one is configured
func NewGeneratorFromConfig(cfg NavConfig, client HTTPClient) *Generator {
	cfg = cfg.WithDefaults()
	var engine LoopEngine
	if cfg.EngineConfigured() {
		if client == nil {
			client = &http.Client{Timeout: cfg.AttemptTimeout}
		}
		engine = NewGraphHopper(cfg, client)
	}
	return NewGenerator(cfg, engine)
}

// Generate returns between 1 and count loops starting and ending at center,
// ordered by how close they are to distanceKm. Engine failures never surface;
// only invalid input is an error.
func (g *Generator) Generate(ctx context.Context, center GeoPoint, distanceKm float64, count int) ([]RouteOption, error) {
	if err := validateStruct(GenerateRequest{Center: center, DistanceKm: distanceKm, Count: count}); err != nil {
		return nil, err
	}

	if g.engine == nil {
		log.Printf("Warn: routing engine not configured, using geometric fallback")
		return Fallback(center, distanceKm, count, g.cfg.Fallback), nil
	}

	// Retry with progressively shorter distances before giving up
	for _, tier := range g.cfg.DistanceTiers {
		targetKm := distanceKm * tier
		candidates := g.collect(ctx, center, targetKm)
		if len(candidates) > 0 {
			routes := rankCandidates(dedupeCandidates(candidates, g.cfg.Dedupe), distanceKm, count)
			log.Printf("Debug: generated %d loops from %d candidates for ~%.1fkm", len(routes), len(candidates), targetKm)
			return routes, nil
		}
		log.Printf("Warn: no loops found for %.1fkm, trying shorter distance", targetKm)
	}

	log.Printf("Warn: all graphhopper attempts failed, using geometric fallback")
	return Fallback(center, distanceKm, count, g.cfg.Fallback), nil
}

func (g *Generator) seeds(n int) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	seeds := make([]int, n)
	for i := range seeds {
		seeds[i] = g.rng.Intn(100000)
	}
	return seeds
}

// collect runs every attempt concurrently and waits for all of them.
// Candidates keep attempt order so "first seen" is deterministic.
func (g *Generator) collect(ctx context.Context, center GeoPoint, targetKm float64) []RouteOption {
	attempts := g.cfg.Attempts
	seeds := g.seeds(len(attempts))
	results := make([]*RouteOption, len(attempts))

	var eg errgroup.Group
	for i, attempt := range attempts {
		eg.Go(func() error {
			actx := ctx
			if g.cfg.AttemptTimeout > 0 {
				var cancel context.CancelFunc
				actx, cancel = context.WithTimeout(ctx, g.cfg.AttemptTimeout)
				defer cancel()
			}

			distanceM := int(math.Round(targetKm * 1000 * attempt.Factor))
			opt, err := g.engine.RoundTrip(actx, center, distanceM, seeds[i]+attempt.SeedOffset)
			if err != nil {
				log.Printf("Warn: graphhopper attempt with factor %.2f failed: %v", attempt.Factor, err)
				return nil
			}
			if opt == nil || len(opt.Points) < 2 || !(opt.EstimatedDistanceKm > 0) {
				return nil
			}
			results[i] = opt
			return nil
		})
	}
	// attempts never return errors; a failed attempt just leaves a nil slot
	_ = eg.Wait()

	candidates := make([]RouteOption, 0, len(results))
	for _, r := range results {
		if r != nil {
			candidates = append(candidates, *r)
		}
	}
	return candidates
}

// dedupeCandidates drops candidates whose distance and ascend are both within
// the thresholds of an earlier one.
func dedupeCandidates(candidates []RouteOption, cfg DedupeConfig) []RouteOption {
	unique := make([]RouteOption, 0, len(candidates))
	for _, c := range candidates {
		duplicate := false
		for _, u := range unique {
			if math.Abs(u.EstimatedDistanceKm-c.EstimatedDistanceKm)*1000 < cfg.DistanceM &&
				math.Abs(u.Ascend-c.Ascend) < cfg.AscendM {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, c)
		}
	}
	return unique
}

// rankCandidates orders by closeness to distanceKm, keeps count and assigns
// display ids and names.
func rankCandidates(candidates []RouteOption, distanceKm float64, count int) []RouteOption {
	ranked := append([]RouteOption(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].EstimatedDistanceKm-distanceKm) < math.Abs(ranked[j].EstimatedDistanceKm-distanceKm)
	})
	if len(ranked) > count {
		ranked = ranked[:count]
	}
	for i := range ranked {
		ranked[i].ID = fmt.Sprintf("route-opt-%d", i+1)
		ranked[i].Name = routeName(ranked[i].Ascend)
	}
	return ranked
}

func routeName(ascend float64) string {
	switch {
	case ascend < 20:
		return "Flat loop"
	case ascend < 50:
		return "Rolling loop"
	default:
		return "Challenging loop"
	}
}
