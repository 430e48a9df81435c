package roster

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/config"
)

type WorkerParams struct {
	fx.In

	Uploads   Repository
	Processor *Processor
	Config    *config.Config
	Logger    *zap.SugaredLogger
}

// Worker drains the pending upload queue in the background. Every poll
// interval it claims and processes uploads until none are left.
type Worker struct {
	uploads   Repository
	processor *Processor
	interval  time.Duration
	logger    *zap.SugaredLogger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		uploads:   p.Uploads,
		processor: p.Processor,
		interval:  p.Config.Roster.WorkerPollInterval,
		logger:    p.Logger,
	}
}

func Start(worker *Worker, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			worker.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return worker.Stop(ctx)
		},
	})
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.drain(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		upload, err := w.uploads.ClaimPending(ctx)
		if err != nil {
			w.logger.Errorw("error claiming pending upload", "error", err)
			return
		}
		if upload == nil {
			return
		}

		if err := w.processor.Process(ctx, upload); err != nil {
			w.logger.Errorw("error processing upload", "upload", upload.Id.Hex(), "error", err)
		}
	}
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
