package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hostel-backend/metrics"
	"hostel-backend/utils"
)

// Dispatcher is the fire-and-forget notification channel used by the services.
// Failures are logged and counted, never returned.
type Dispatcher struct {
	queue  Queue
	sender utils.MailSender
	log    *zap.Logger
}

func NewDispatcher(queue Queue, sender utils.MailSender, log *zap.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, sender: sender, log: log.Named("notify")}
}

func (d *Dispatcher) Notify(ctx context.Context, m utils.Mail) {
	if m.To == "" {
		return
	}
	if err := d.queue.Publish(context.WithoutCancel(ctx), m); err != nil {
		metrics.NotificationsTotal.WithLabelValues("enqueue_failed").Inc()
		d.log.Warn("notification dropped",
			zap.String("to", utils.MaskEmail(m.To)),
			zap.String("subject", m.Subject),
			zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues("queued").Inc()
}

// Run drains the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ch, err := d.queue.Consume(ctx)
	if err != nil {
		return err
	}
	for m := range ch {
		d.deliver(ctx, m)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, m utils.Mail) {
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := d.sender.Send(sendCtx, m); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Error("email delivery failed",
			zap.String("to", utils.MaskEmail(m.To)),
			zap.String("subject", m.Subject),
			zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
}
