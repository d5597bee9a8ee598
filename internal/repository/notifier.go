package repository

import (
	"context"

	"OddsFlow/internal/domain/models"
	drepo "OddsFlow/internal/domain/repository"
	pkgkafka "OddsFlow/pkg/kafka"
	applogger "OddsFlow/pkg/logger"
)

// KafkaNotifier publishes run summaries to the alerting topic.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

// NewKafkaNotifier creates a notifier bound to one topic.
func NewKafkaNotifier(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, l: l}
}

var _ drepo.Notifier = (*KafkaNotifier)(nil)

// NotifyRun publishes the summary keyed by run id so one run's
// messages land on a single partition in order.
func (n *KafkaNotifier) NotifyRun(ctx context.Context, s *models.RunSummary) error {
	if err := n.producer.Publish(ctx, n.topic, []byte(s.RunID), s); err != nil {
		return err
	}
	n.l.Info("run summary published",
		applogger.String("run_id", s.RunID),
		applogger.String("status", s.Status),
	)
	return nil
}

// Close flushes and closes the underlying producer.
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
