package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/realtime"
)

// EventPublisher fans board events out to realtime clients.
type EventPublisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

// notifier publishes events after a successful write. Failures are logged
// and never fail the write.
type notifier struct {
	publisher EventPublisher
	log       logrus.FieldLogger
}

func (n notifier) notify(ctx context.Context, name string, boardID uint64, data interface{}, senderID string) {
	if n.publisher == nil {
		return
	}
	ev, err := realtime.NewEvent(name, boardID, data, senderID)
	if err != nil {
		n.log.WithError(err).WithField("event", name).Error("failed to encode realtime event")
		return
	}
	if err := n.publisher.Publish(ctx, ev); err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"event": name,
			"board": boardID,
		}).Warn("failed to publish realtime event")
	}
}
