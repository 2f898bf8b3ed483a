package tasks

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// HandlerFunc runs one job and returns a human-readable result.
type HandlerFunc func(ctx context.Context, job Job) (string, error)

// Dispatcher routes jobs to handlers by type.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{handlers: map[string]HandlerFunc{}, log: log}
}

func (d *Dispatcher) Register(jobType string, h HandlerFunc) {
	d.handlers[jobType] = h
}

// Run never returns an error; failures become the result string.
func (d *Dispatcher) Run(ctx context.Context, job Job) string {
	h, ok := d.handlers[job.Type]
	if !ok {
		d.log.Warn("unknown job type", zap.String("job_type", job.Type))
		return fmt.Sprintf("Unknown job type %s", job.Type)
	}

	result, err := h(ctx, job)
	if err != nil {
		d.log.Error("job failed", zap.String("job_type", job.Type), zap.Any("args", job.Args), zap.Error(err))
		return fmt.Sprintf("Job %s failed: %v", job.Type, err)
	}
	d.log.Info("job finished", zap.String("job_type", job.Type), zap.String("result", result))
	return result
}
