// Package bucketreset implements C8: the listener that purges coordination
// store buckets in response to a C7 RuleReloadEvent, keeping consumed
// tokens from surviving a rule change that altered a band's capacity or
// window (spec §4.6).
package bucketreset

import (
	"context"
	"time"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/bucket"
	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// purgeTimeout bounds how long one reload event's purge may take, so a
// slow or unhealthy store can't wedge the reload fan-out.
const purgeTimeout = 5 * time.Second

// Handler purges bucket.Store state on reload. It is registered with a
// reload.Strategy via Subscribe(handler.HandleReload).
type Handler struct {
	store  bucket.Store
	logger logging.Logger
}

// New builds a Handler over store. logger may be nil (defaults to a noop).
func New(store bucket.Store, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Noop{}
	}
	return &Handler{store: store, logger: logger}
}

// HandleReload purges the buckets ev targets: every bucket for one rule
// set, or the whole store on a full reload (spec §4.6).
func (h *Handler) HandleReload(ev rule.RuleReloadEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	var err error
	if ev.IsFullReload() {
		err = h.store.DeleteAll(ctx)
	} else {
		err = h.store.DeleteByRuleSet(ctx, ev.RuleSetID)
	}
	if err != nil {
		h.logger.Error("bucketreset: purge failed", err, map[string]any{
			"ruleSetId": ev.RuleSetID,
			"source":    ev.Source,
			"fullReset": ev.IsFullReload(),
		})
	}
}
