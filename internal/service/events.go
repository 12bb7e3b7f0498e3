package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/queue"
)

// emitter publishes events best effort.  A broker failure never fails the
// request; the mutation is already committed.
type emitter struct {
	pub queue.Publisher
	log *zap.Logger
}

func newEmitter(pub queue.Publisher, log *zap.Logger) emitter {
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	return emitter{pub: pub, log: log}
}

func (e emitter) emit(ctx context.Context, ev queue.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("publish event failed", zap.String("type", ev.Type), zap.String("event_id", ev.ID), zap.Error(err))
	}
}
