package repository

import (
	"context"

	domrepo "CardPull/internal/domain/repository"
	pkgkafka "CardPull/pkg/kafka"
	applogger "CardPull/pkg/logger"
)

// KafkaNotifier publishes run reports to a Kafka topic so downstream
// workflow consumers (alerting, dashboards) see every train/predict
// outcome, success or failure.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (n *KafkaNotifier) SetLogger(l *applogger.Logger) { n.l = l }

func (n *KafkaNotifier) NotifyRun(ctx context.Context, report domrepo.RunReport) error {
	// Key by mode so reports for one mode land on one partition in order.
	if err := n.producer.Publish(ctx, n.topic, []byte(report.Mode), report); err != nil {
		return err
	}
	if n.l != nil {
		n.l.Info("run report published",
			applogger.String("topic", n.topic),
			applogger.String("mode", report.Mode),
			applogger.Bool("succeeded", report.Succeeded),
		)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

// NopNotifier swallows run reports when Kafka is disabled.
type NopNotifier struct{}

func (NopNotifier) NotifyRun(ctx context.Context, report domrepo.RunReport) error { return nil }
func (NopNotifier) Close() error                                                  { return nil }

var (
	_ domrepo.RunNotifier = (*KafkaNotifier)(nil)
	_ domrepo.RunNotifier = NopNotifier{}
)
