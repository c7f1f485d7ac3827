package optim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/san-kum/harmony/internal/dynamo"
)

// ErrEmptyGrid is returned when a search has no axes or an axis has no values.
var ErrEmptyGrid = errors.New("optim: empty grid")

// Point is one combination of swept physics parameters, keyed by the
// parameter's yaml name.
type Point map[string]float64

// Result is the objective's value at one grid point.
type Result struct {
	Params Point
	Value  float64
	Err    error
}

// Objective scores one physics configuration, typically by running an
// offline session and reading a metric.
type Objective func(ctx context.Context, patch dynamo.PhysicsPatch) (float64, error)

// GridSearch evaluates an objective over the cartesian product of
// parameter values.
type GridSearch struct {
	names   []string
	ranges  [][]float64
	workers int
}

func NewGridSearch(names []string, ranges [][]float64) (*GridSearch, error) {
	if len(names) == 0 || len(names) != len(ranges) {
		return nil, ErrEmptyGrid
	}
	for i, name := range names {
		if _, err := PatchOf(Point{name: 0}); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrEmptyGrid, name)
		}
	}
	return &GridSearch{names: names, ranges: ranges, workers: runtime.NumCPU()}, nil
}

// WithWorkers bounds the number of objectives evaluated at once.
func (g *GridSearch) WithWorkers(n int) *GridSearch {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Points enumerates the grid, first axis outermost.
func (g *GridSearch) Points() []Point {
	var out []Point
	g.collect(0, Point{}, &out)
	return out
}

func (g *GridSearch) collect(depth int, current Point, out *[]Point) {
	if depth == len(g.names) {
		p := make(Point, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, v := range g.ranges[depth] {
		current[g.names[depth]] = v
		g.collect(depth+1, current, out)
	}
	delete(current, g.names[depth])
}

// Search evaluates every point and returns all results in grid order plus
// the best one. Points whose patch is invalid or whose objective fails are
// reported in their Result and skipped for the best pick. An error is
// returned only when ctx is cancelled or no point succeeded.
func (g *GridSearch) Search(ctx context.Context, obj Objective, maximize bool) (Result, []Result, error) {
	points := g.Points()
	results := make([]Result, len(points))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(g.workers, len(points)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = evaluate(ctx, obj, points[idx])
			}
		}()
	}

feed:
	for i := range points {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, results, err
	}

	best := -1
	var errs []error
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		if best < 0 || better(r.Value, results[best].Value, maximize) {
			best = i
		}
	}
	if best < 0 {
		return Result{}, results, errors.Join(errs...)
	}
	return results[best], results, nil
}

func evaluate(ctx context.Context, obj Objective, p Point) Result {
	patch, err := PatchOf(p)
	if err == nil {
		err = patch.Validate()
	}
	if err != nil {
		return Result{Params: p, Err: err}
	}
	v, err := obj(ctx, patch)
	if err != nil {
		return Result{Params: p, Err: fmt.Errorf("%s: %w", p, err)}
	}
	return Result{Params: p, Value: v}
}

func better(v, best float64, maximize bool) bool {
	if maximize {
		return v > best
	}
	return v < best
}

// PatchOf converts p to a physics patch.
func PatchOf(p Point) (dynamo.PhysicsPatch, error) {
	var patch dynamo.PhysicsPatch
	for name, v := range p {
		switch name {
		case "gravity":
			patch.Gravity = &v
		case "friction":
			patch.Friction = &v
		case "elasticity":
			patch.Elasticity = &v
		case "air_resistance":
			patch.AirResistance = &v
		case "density":
			patch.Density = &v
		case "time_scale":
			patch.TimeScale = &v
		default:
			return patch, fmt.Errorf("optim: unknown parameter %q", name)
		}
	}
	return patch, nil
}

// ParseAxis parses "name=v1,v2,..." or "name=lo:hi:step".
func ParseAxis(s string) (string, []float64, error) {
	name, rhs, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || rhs == "" {
		return "", nil, fmt.Errorf("optim: axis %q: want name=values", s)
	}
	if _, err := PatchOf(Point{name: 0}); err != nil {
		return "", nil, err
	}

	if parts := strings.Split(rhs, ":"); len(parts) == 3 {
		var bounds [3]float64
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return "", nil, fmt.Errorf("optim: axis %q: %w", s, err)
			}
			bounds[i] = v
		}
		lo, hi, step := bounds[0], bounds[1], bounds[2]
		if step <= 0 || hi < lo {
			return "", nil, fmt.Errorf("optim: axis %q: need lo <= hi and step > 0", s)
		}
		var values []float64
		for i := 0; ; i++ {
			v := lo + float64(i)*step
			if v > hi+step*1e-9 {
				break
			}
			values = append(values, v)
		}
		return name, values, nil
	}

	var values []float64
	for _, part := range strings.Split(rhs, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: axis %q: %w", s, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

// String renders p with keys in sorted order.
func (p Point) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%g", k, p[k])
	}
	return b.String()
}
