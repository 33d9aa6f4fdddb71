// Package httpfilter implements C10: request interception that builds a
// RequestContext, dispatches it to a pluggable Handler, and turns the
// verdict into response headers and (on rejection) a 429.
package httpfilter

import (
	"context"

	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// Handler is C10's dispatch abstraction (spec §4.8 step 4): it lets the
// filter apply a verdict either in-process, via C9, or over the wire to a
// centralized rate-limit service, without the filter caring which.
type Handler interface {
	Check(ctx context.Context, ruleSetID string, reqCtx rule.RequestContext) (rule.RateLimitResult, error)
}

// engine is the subset of *fluxgate.Engine EngineHandler needs; declared
// here (rather than importing the root package) so httpfilter never
// depends on fluxgate and an application can still use EngineHandler with
// anything shaped like an Engine.
type engine interface {
	Check(ctx context.Context, ruleSetID string, reqCtx rule.RequestContext, permits int64) (rule.RateLimitResult, error)
}

// EngineHandler adapts an in-process *fluxgate.Engine to Handler, always
// requesting a single permit.
type EngineHandler struct {
	Engine engine
}

// NewEngineHandler builds an EngineHandler over eng.
func NewEngineHandler(eng engine) EngineHandler {
	return EngineHandler{Engine: eng}
}

func (h EngineHandler) Check(ctx context.Context, ruleSetID string, reqCtx rule.RequestContext) (rule.RateLimitResult, error) {
	return h.Engine.Check(ctx, ruleSetID, reqCtx, 1)
}

var _ Handler = EngineHandler{}
