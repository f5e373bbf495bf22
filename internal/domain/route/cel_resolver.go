package route

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	gocel "github.com/google/cel-go/cel"

	"github.com/hostgate/hostgate/internal/adapter/outbound/cel"
	"github.com/hostgate/hostgate/pkg/httpmsg"
)

// maxResolutionCacheEntries bounds the CELResolver's per-signature result
// cache. Once it fills, the cache is dropped and rebuilt, trading a burst of
// cache misses for a bounded-memory cache instead of an LRU.
const maxResolutionCacheEntries = 4096

// ConditionRoute pairs a compiled CEL condition with the endpoint it routes
// to when the condition matches.
type ConditionRoute struct {
	Expression string
	Endpoint   Endpoint

	program gocel.Program
}

// CELResolver evaluates an ordered list of CEL conditions against each
// request, falling back to a DefaultResolver when none match. This lets an
// operator write rules like `request.host.endsWith(".svc.local")` instead
// of enumerating every hostname.
type CELResolver struct {
	eval     *cel.Evaluator
	fallback *DefaultResolver
	logger   *slog.Logger

	routes atomic.Pointer[[]ConditionRoute]

	cacheMu sync.Mutex
	cache   map[uint64]resolution
}

type resolution struct {
	endpoint Endpoint
	ok       bool
}

// NewCELResolver builds a CELResolver. fallback is consulted when no
// condition matches; it may be nil if every request must match a condition.
func NewCELResolver(fallback *DefaultResolver, logger *slog.Logger) (*CELResolver, error) {
	eval, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CELResolver{eval: eval, fallback: fallback, logger: logger, cache: make(map[uint64]resolution)}, nil
}

// SetRoutes compiles and atomically swaps in a new ordered list of
// condition routes. A route whose expression fails to compile is skipped
// and logged rather than rejecting the whole batch.
func (r *CELResolver) SetRoutes(routes []ConditionRoute) {
	compiled := make([]ConditionRoute, 0, len(routes))
	for _, rt := range routes {
		prg, err := r.eval.Compile(rt.Expression)
		if err != nil {
			r.logger.Error("skipping route with invalid condition", "expression", rt.Expression, "error", err)
			continue
		}
		rt.program = prg
		compiled = append(compiled, rt)
	}
	r.routes.Store(&compiled)

	r.cacheMu.Lock()
	r.cache = make(map[uint64]resolution)
	r.cacheMu.Unlock()
}

// Resolve implements Resolver. Repeated requests sharing the same
// host/method/path signature (health checks, polling clients) skip
// re-evaluating the condition chain via a bounded result cache.
func (r *CELResolver) Resolve(req *httpmsg.Message) (Endpoint, bool) {
	host, _ := req.Headers.Get("Host")
	evalReq := cel.Request{Host: host, Method: req.Method, Path: req.URL}

	key := signatureHash(evalReq)
	if res, ok := r.cacheLookup(key); ok {
		return res.endpoint, res.ok
	}

	res := r.resolveUncached(req, evalReq)
	r.cacheStore(key, res)
	return res.endpoint, res.ok
}

func (r *CELResolver) resolveUncached(req *httpmsg.Message, evalReq cel.Request) resolution {
	routes := r.routes.Load()
	if routes != nil {
		for _, rt := range *routes {
			match, err := r.eval.Evaluate(rt.program, evalReq)
			if err != nil {
				r.logger.Warn("route condition evaluation failed", "expression", rt.Expression, "error", err)
				continue
			}
			if match {
				return resolution{endpoint: rt.Endpoint, ok: true}
			}
		}
	}
	if r.fallback != nil {
		ep, ok := r.fallback.Resolve(req)
		return resolution{endpoint: ep, ok: ok}
	}
	return resolution{}
}

func (r *CELResolver) cacheLookup(key uint64) (resolution, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	res, ok := r.cache[key]
	return res, ok
}

func (r *CELResolver) cacheStore(key uint64, res resolution) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	if len(r.cache) >= maxResolutionCacheEntries {
		r.cache = make(map[uint64]resolution)
	}
	r.cache[key] = res
}

func signatureHash(req cel.Request) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(req.Host)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(req.Method)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(req.Path)
	return h.Sum64()
}

var _ Resolver = (*CELResolver)(nil)
