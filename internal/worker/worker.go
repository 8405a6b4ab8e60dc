// Package worker holds the queue-side handlers: the audit recorder and
// the email notifier. Each runs behind a bus.Consumer; a returned error
// leaves the message on the queue and the broker dead-letters it after
// the declared receive limit.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acksell/storefront/internal/bus"
	"github.com/acksell/storefront/internal/event"
	"github.com/acksell/storefront/internal/notify"
	"github.com/acksell/storefront/internal/order"

	"github.com/rs/zerolog"
)

// Audit records every event as an audit row.
func Audit(events *event.Store, logger zerolog.Logger) bus.Handler {
	log := logger.With().Str("component", "worker.audit").Logger()
	return func(ctx context.Context, ev bus.Event) error {
		kind, err := event.KindForEventType(ev.Type)
		if err != nil {
			return err
		}
		r := event.NewRecord(kind, ev.EntityID, ev.Type, ev.OccurredAt, ev.Payload)
		if err := events.Record(ctx, r); err != nil {
			return fmt.Errorf("audit %s: %w", ev.Type, err)
		}
		log.Info().Str("eventType", ev.Type).Str("entityId", ev.EntityID).Msg("audit row recorded")
		return nil
	}
}

// Notify emails the customer for order events. The subscription filters
// the queue to order events already; anything else is skipped.
func Notify(notifier *notify.Notifier, logger zerolog.Logger) bus.Handler {
	log := logger.With().Str("component", "worker.notify").Logger()
	return func(ctx context.Context, ev bus.Event) error {
		subject, headline, ok := notify.Describe(ev.Type)
		if !ok {
			log.Debug().Str("eventType", ev.Type).Msg("no notification for event type")
			return nil
		}
		var o order.Order
		if err := json.Unmarshal(ev.Payload, &o); err != nil {
			return fmt.Errorf("decode order payload for %s: %w", ev.EntityID, err)
		}
		if err := notifier.OrderChanged(ctx, o, subject, headline); err != nil {
			return fmt.Errorf("notify for %s: %w", ev.Type, err)
		}
		return nil
	}
}
