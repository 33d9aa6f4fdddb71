package reload

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OpenFluxGate/fluxgate-sub000/internal/logging"
	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// pubsubMessage is the optional structured payload form (spec §4.5): a bare
// "*" or empty message means a full reload, a bare non-JSON string names
// the rule set to reload, and a JSON object lets a publisher be explicit
// about either.
type pubsubMessage struct {
	RuleSetID  string `json:"ruleSetId"`
	FullReload bool   `json:"fullReload"`
}

// PubSub is the reload strategy for repositories with a native
// publish/subscribe channel (Redis): it subscribes to one channel and
// translates incoming messages into RuleReloadEvents, reconnecting with a
// fixed backoff when the subscription drops (spec §4.5).
type PubSub struct {
	broadcaster

	client        redis.UniversalClient
	channel       string
	retryInterval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPubSub builds a PubSub strategy listening on channel. retryInterval
// governs the delay between resubscribe attempts after the connection
// drops; it defaults to 5s if zero or negative.
func NewPubSub(client redis.UniversalClient, channel string, retryInterval time.Duration, logger logging.Logger) *PubSub {
	if retryInterval <= 0 {
		retryInterval = 5 * time.Second
	}
	return &PubSub{
		broadcaster:   newBroadcaster(logger),
		client:        client,
		channel:       channel,
		retryInterval: retryInterval,
	}
}

// Start launches the background subscribe loop. Calling Start twice
// without an intervening Stop is a no-op.
func (p *PubSub) Start() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop(stopCh)
	return nil
}

// Stop halts the background loop and closes the subscription.
func (p *PubSub) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *PubSub) loop(stopCh chan struct{}) {
	defer p.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		if p.subscribeOnce(stopCh) {
			return
		}

		select {
		case <-stopCh:
			return
		case <-time.After(p.retryInterval):
		}
	}
}

// subscribeOnce runs one subscription until it drops or stopCh closes.
// It reports true when the caller should stop retrying (i.e. stopCh
// closed during this attempt).
func (p *PubSub) subscribeOnce(stopCh chan struct{}) bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		p.logger.Warn("reload: pubsub subscribe failed", map[string]any{"channel": p.channel, "error": err.Error()})
		return false
	}

	ch := sub.Channel()
	for {
		select {
		case <-stopCh:
			return true
		case msg, ok := <-ch:
			if !ok {
				p.logger.Warn("reload: pubsub channel closed, retrying", map[string]any{"channel": p.channel})
				return false
			}
			p.handleMessage(msg.Payload)
		}
	}
}

func (p *PubSub) handleMessage(payload string) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" || trimmed == "*" {
		p.emit(rule.RuleReloadEvent{Source: rule.ReloadSourcePubSub, Timestamp: now()})
		return
	}

	if strings.HasPrefix(trimmed, "{") {
		var msg pubsubMessage
		if err := json.Unmarshal([]byte(trimmed), &msg); err == nil {
			switch {
			case msg.FullReload:
				p.emit(rule.RuleReloadEvent{Source: rule.ReloadSourcePubSub, Timestamp: now()})
				return
			case msg.RuleSetID != "":
				p.emit(rule.RuleReloadEvent{RuleSetID: msg.RuleSetID, Source: rule.ReloadSourcePubSub, Timestamp: now()})
				return
			}
		}
	}

	p.emit(rule.RuleReloadEvent{RuleSetID: trimmed, Source: rule.ReloadSourcePubSub, Timestamp: now()})
}

var _ Strategy = (*PubSub)(nil)
