// Package kafka carries harvest tasks between the HTTP surface and the
// pipeline consumer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"najah-search-go/internal/config"
	"najah-search-go/pkg/log"
	"najah-search-go/pkg/tasks"
)

// TaskProcessor is implemented by the pipeline; the consumer stays decoupled
// from the concrete processor.
type TaskProcessor interface {
	Handle(ctx context.Context, task tasks.HarvestTask) error
}

// Producer publishes harvest tasks.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer for the harvest topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// ProduceHarvestTask queues one harvest batch for indexing.
func (p *Producer) ProduceHarvestTask(ctx context.Context, task tasks.HarvestTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.BatchID),
		Value: taskBytes,
	})
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// maxTaskAttempts is the ceiling after which a failing batch stops being
// redelivered.
const maxTaskAttempts = 3

// StartConsumer processes harvest tasks until ctx is cancelled. Failed tasks
// are redelivered up to maxTaskAttempts, counted in Redis; after that the
// offset is committed so one poisoned batch cannot block the queue.
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, rdb *redis.Client, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("failed to close kafka consumer: %v", err)
		}
	}()

	log.Infof("kafka consumer listening on topic '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("kafka consumer stopping")
				return
			}
			log.Error("failed to fetch kafka message", err)
			return
		}

		var task tasks.HarvestTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("unparseable harvest task, committing to skip: %v, value: %s", err, string(m.Value))
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("failed to commit poisoned message: %v", err)
			}
			continue
		}

		log.Infof("processing harvest task: batch=%s object=%s", task.BatchID, task.ObjectName)
		if err := processor.Handle(ctx, task); err != nil {
			log.Errorf("harvest task failed: batch=%s error=%v", task.BatchID, err)

			attemptsKey := fmt.Sprintf("harvest:attempts:%s", task.BatchID)
			attempts, incErr := rdb.Incr(ctx, attemptsKey).Result()
			if incErr != nil {
				// Without the counter, stay conservative: leave the offset
				// uncommitted and let Kafka redeliver.
				continue
			}
			_ = rdb.Expire(ctx, attemptsKey, 24*time.Hour).Err()

			if attempts >= maxTaskAttempts {
				log.Errorf("harvest task failed %d times, committing offset: batch=%s", attempts, task.BatchID)
				if err := r.CommitMessages(ctx, m); err != nil {
					log.Errorf("failed to commit offset: %v", err)
				}
			}
			continue
		}

		log.Infof("harvest task done: batch=%s", task.BatchID)
		_ = rdb.Del(ctx, fmt.Sprintf("harvest:attempts:%s", task.BatchID)).Err()
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("failed to commit offset: %v", err)
		}
	}
}
