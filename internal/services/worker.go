package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(screeningID uuid.UUID)
}

type WorkerOptions struct {
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration
}

type worker struct {
	screeningRepo    repositories.ScreeningRepository
	screeningService ScreeningService
	jobQueue         chan uuid.UUID
	concurrency      int
	pollInterval     time.Duration
	logger           *zap.Logger

	inFlight sync.Map
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

func NewWorker(
	screeningRepo repositories.ScreeningRepository,
	screeningService ScreeningService,
	opts WorkerOptions,
	logger *zap.Logger,
) Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &worker{
		screeningRepo:    screeningRepo,
		screeningService: screeningService,
		jobQueue:         make(chan uuid.UUID, opts.QueueSize),
		concurrency:      opts.Concurrency,
		pollInterval:     opts.PollInterval,
		logger:           logger,
		stopChan:         make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("stopping worker")
		close(w.stopChan)
	})
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// EnqueueJob implements Worker. A screening already queued or running is not
// queued twice.
func (w *worker) EnqueueJob(screeningID uuid.UUID) {
	if _, loaded := w.inFlight.LoadOrStore(screeningID, struct{}{}); loaded {
		return
	}

	select {
	case w.jobQueue <- screeningID:
		w.logger.Debug("job enqueued", zap.String("screening_id", screeningID.String()))
	case <-w.stopChan:
		w.inFlight.Delete(screeningID)
		w.logger.Warn("worker stopped, cannot enqueue job", zap.String("screening_id", screeningID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case screeningID := <-w.jobQueue:
			log.Debug("processing job", zap.String("screening_id", screeningID.String()))
			if err := w.screeningService.RunScreening(ctx, screeningID); err != nil {
				log.Warn("job failed", zap.String("screening_id", screeningID.String()), zap.Error(err))
			}
			w.inFlight.Delete(screeningID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := w.screeningRepo.FindPendingJobs(10)
			if err != nil {
				w.logger.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}
			if len(pending) > 0 {
				w.logger.Info("found pending jobs", zap.Int("count", len(pending)))
			}
			for _, job := range pending {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
