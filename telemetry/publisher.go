package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/joyautomation/tentacle-nftables/metric"
)

// Bus is the publish-only capability the publisher needs from the message
// transport. Timeouts and reconnection belong to the implementation; the
// publisher issues at most one outstanding send per message and never
// retries.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Logger is the leveled diagnostic surface the publisher writes to.
// Satisfied by *slog.Logger and by the bus-mirroring logger, so host
// services can route publish diagnostics onto the bus too.
type Logger interface {
	Debug(msg string, values ...any)
	Warn(msg string, values ...any)
}

// Publisher orchestrates one publish cycle: derive keys, encode entities
// under the configured strategy, consult the change cache, and send changed
// values on the bus.
//
// Publishing is non-fatal to the host service. Encoding and transport
// failures are logged and counted; they never abort the batch and never
// propagate to the caller.
type Publisher struct {
	namespace string
	encoder   Encoder
	cache     *ChangeCache
	logger    Logger
	metrics   *metric.Metrics
}

// NewPublisher creates a publisher sending on {namespace}.data.{key}.
// metrics may be nil.
func NewPublisher(
	namespace string,
	encoder Encoder,
	cache *ChangeCache,
	logger Logger,
	metrics *metric.Metrics,
) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		namespace: namespace,
		encoder:   encoder,
		cache:     cache,
		logger:    logger,
		metrics:   metrics,
	}
}

// Publish pushes one snapshot of entities through change detection and
// returns the number of messages actually sent on the bus. Messages go out
// in the iteration order of entities; a failure for one entity never
// prevents processing of the rest.
//
// The cache commits before each send attempt: the cache exists to reduce
// volume, not to guarantee delivery, so losing one send to a transient
// transport failure is preferable to re-sending an unchanged value every
// cycle.
func (p *Publisher) Publish(ctx context.Context, bus Bus, entities []Entity) int {
	sent := 0

	for _, e := range entities {
		key := Key(e)

		candidates, err := p.encoder.Encode(e, key)
		if err != nil {
			p.logger.Warn("entity encoding incomplete",
				"entity", key, "error", err)
			if p.metrics != nil {
				p.metrics.RecordEncodeError()
			}
		}

		for _, c := range candidates {
			if !p.cache.ShouldPublish(c.CompareKey, c.Canonical) {
				continue
			}

			data, err := json.Marshal(c.Message)
			if err != nil {
				p.logger.Warn("message marshal failed",
					"variable", c.CompareKey, "error", err)
				if p.metrics != nil {
					p.metrics.RecordEncodeError()
				}
				continue
			}

			subject := p.namespace + ".data." + c.CompareKey
			if err := bus.Publish(ctx, subject, data); err != nil {
				p.logger.Warn("telemetry publish failed",
					"subject", subject, "error", err)
				if p.metrics != nil {
					p.metrics.RecordPublishError("data")
				}
				continue
			}

			sent++
			if p.metrics != nil {
				p.metrics.RecordPublished("data")
			}
		}
	}

	if p.metrics != nil {
		p.metrics.SetRulesTracked(len(entities))
		p.metrics.SetCacheEntries(p.cache.Size())
	}

	if sent > 0 {
		p.logger.Debug("published telemetry", "count", sent)
	}
	return sent
}
