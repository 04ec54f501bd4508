package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	clientErrors    uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu     sync.Mutex
	routes map[string]*routeStats
}

type routeStats struct {
	count      uint64
	errors     uint64
	durationMs uint64
}

type RouteSnapshot struct {
	Route         string  `json:"route"`
	Requests      uint64  `json:"requests"`
	Errors        uint64  `json:"errors"`
	AvgDurationMs float64 `json:"avgDurationMs"`
}

type Snapshot struct {
	RequestsTotal    uint64          `json:"requestsTotal"`
	ClientErrors     uint64          `json:"clientErrorsTotal"`
	ErrorsTotal      uint64          `json:"errorsTotal"`
	RateLimitedTotal uint64          `json:"rateLimitedTotal"`
	AvgDurationMs    float64         `json:"avgDurationMs"`
	TotalDurationMs  uint64          `json:"totalDurationMs"`
	Routes           []RouteSnapshot `json:"routes"`
}

func New() *Collector {
	return &Collector{routes: map[string]*routeStats{}}
}

// Record counts one finished request. route is the matched pattern, e.g.
// "GET /api/v1/assessments/{id}", so ids do not explode the route table.
func (c *Collector) Record(route string, status int, duration time.Duration) {
	ms := uint64(duration.Milliseconds())
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 400 && status < 500 {
		atomic.AddUint64(&c.clientErrors, 1)
	}
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, ms)

	if route == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.routes[route]
	if !ok {
		r = &routeStats{}
		c.routes[route] = r
	}
	r.count++
	r.durationMs += ms
	if status >= 500 {
		r.errors++
	}
}

func (c *Collector) Snapshot() Snapshot {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	out := Snapshot{
		RequestsTotal:    total,
		ClientErrors:     atomic.LoadUint64(&c.clientErrors),
		ErrorsTotal:      atomic.LoadUint64(&c.errorRequests),
		RateLimitedTotal: atomic.LoadUint64(&c.rateLimited),
		AvgDurationMs:    avg(totalMs, total),
		TotalDurationMs:  totalMs,
		Routes:           []RouteSnapshot{},
	}

	c.mu.Lock()
	for route, r := range c.routes {
		out.Routes = append(out.Routes, RouteSnapshot{
			Route:         route,
			Requests:      r.count,
			Errors:        r.errors,
			AvgDurationMs: avg(r.durationMs, r.count),
		})
	}
	c.mu.Unlock()
	sort.Slice(out.Routes, func(i, j int) bool {
		if out.Routes[i].Requests != out.Routes[j].Requests {
			return out.Routes[i].Requests > out.Routes[j].Requests
		}
		return out.Routes[i].Route < out.Routes[j].Route
	})
	return out
}

func avg(sum, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
