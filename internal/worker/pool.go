package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"taskpulse/internal/model"
)

// Messenger is satisfied by the ai governor.
type Messenger interface {
	RequestMessage(ctx context.Context, title string) model.AITaskMessage
}

const queueSize = 64

// Pool прогревает кэш сообщений в фоне: воркеры разбирают очередь заголовков
// и гонят их через governor, который сам следит за rate limit.
type Pool struct {
	messenger Messenger
	logger    *zap.Logger
	count     int
	jobs      chan string
	wg        sync.WaitGroup
	stop      chan struct{}
}

func NewPool(messenger Messenger, logger *zap.Logger, count int) *Pool {
	return &Pool{
		messenger: messenger,
		logger:    logger,
		count:     count,
		jobs:      make(chan string, queueSize),
		stop:      make(chan struct{}),
	}
}

// Enqueue is best-effort: the queue drops when full so task creation never
// blocks on prewarming.
func (p *Pool) Enqueue(title string) {
	select {
	case p.jobs <- title:
	default:
		p.logger.Debug("prewarm queue full, dropping", zap.String("title", title))
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("workers", p.count))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	close(p.stop)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case title := <-p.jobs:
			msg := p.messenger.RequestMessage(ctx, title)
			p.logger.Debug("Prewarmed message",
				zap.Int("worker", id),
				zap.String("title", title),
				zap.String("type", string(msg.Type)),
			)
		}
	}
}
