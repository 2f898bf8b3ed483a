package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Worker consumes the job stream through a consumer group.
type Worker struct {
	client     *redis.Client
	stream     string
	group      string
	consumer   string
	dispatcher *Dispatcher
	log        *zap.Logger
	block      time.Duration
	batch      int64
	resultTTL  time.Duration
}

func NewWorker(client *redis.Client, stream, group, consumer string, d *Dispatcher, log *zap.Logger) *Worker {
	return &Worker{
		client:     client,
		stream:     stream,
		group:      group,
		consumer:   consumer,
		dispatcher: d,
		log:        log,
		block:      5 * time.Second,
		batch:      10,
		resultTTL:  defaultResultTTL,
	}
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := EnsureGroup(ctx, w.client, w.stream, w.group); err != nil {
		return err
	}
	w.log.Info("task worker started", zap.String("stream", w.stream), zap.String("consumer", w.consumer))

	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := w.ProcessOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Error("failed to read task stream", zap.Error(err))
			time.Sleep(time.Second)
		}
	}
}

// ProcessOnce reads one batch and runs it. Each entry is acknowledged before it runs.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	streams, err := w.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.group,
		Consumer: w.consumer,
		Streams:  []string{w.stream, ">"},
		Count:    w.batch,
		Block:    w.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, s := range streams {
		for _, msg := range s.Messages {
			if err := w.client.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
				w.log.Error("failed to ack job", zap.String("id", msg.ID), zap.Error(err))
				continue
			}

			job, err := decodeJob(msg.Values)
			if err != nil {
				w.log.Warn("dropping malformed job", zap.String("id", msg.ID), zap.Error(err))
				continue
			}

			result := w.dispatcher.Run(ctx, job)
			if err := w.client.Set(ctx, resultKeyPrefix+msg.ID, result, w.resultTTL).Err(); err != nil {
				w.log.Warn("failed to store job result", zap.String("id", msg.ID), zap.Error(err))
			}
			processed++
		}
	}
	return processed, nil
}
