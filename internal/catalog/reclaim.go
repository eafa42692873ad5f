package catalog

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

// Reclaimer принимает ссылки, которые больше не принадлежат ни одному продукту,
// и удаляет соответствующие объекты из хранилища. Reclaim не блокирует и не
// возвращает ошибок: вызывающая операция от результата не зависит.
type Reclaimer interface {
	Reclaim(ctx context.Context, refs ...string)
}

type ReclaimConfig struct {
	Workers    int
	QueueSize  int
	MaxElapsed time.Duration
	// BackOff переопределяет политику повторов (в тестах)
	BackOff func() backoff.BackOff
}

// AsyncReclaimer — очередь целей удаления с пулом воркеров.
// Цель с тем же objectID|kind, уже стоящая в очереди или в работе, повторно не ставится.
type AsyncReclaimer struct {
	gateway domain.AssetGateway
	logger  *log.Logger
	cfg     ReclaimConfig

	queue chan domain.AssetTarget

	mu       sync.Mutex
	inflight map[string]struct{}
}

var _ Reclaimer = (*AsyncReclaimer)(nil)

func NewReclaimer(gw domain.AssetGateway, logger *log.Logger, cfg ReclaimConfig) *AsyncReclaimer {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	if cfg.BackOff == nil {
		maxElapsed := cfg.MaxElapsed
		cfg.BackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = maxElapsed
			return b
		}
	}
	return &AsyncReclaimer{
		gateway:  gw,
		logger:   logger,
		cfg:      cfg,
		queue:    make(chan domain.AssetTarget, cfg.QueueSize),
		inflight: make(map[string]struct{}),
	}
}

func (r *AsyncReclaimer) Reclaim(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		t := domain.ReclaimTargetFor(ref)
		if !r.acquire(t) {
			continue
		}
		select {
		case r.queue <- t:
			continue
		default:
		}
		// очередь полна: ждём, пока жив вызывающий
		select {
		case r.queue <- t:
		case <-ctx.Done():
			r.release(t)
			r.logger.Printf("reclaim dropped target=%s: %v", t.Key(), ctx.Err())
		}
	}
}

// Run запускает воркеры и блокируется до отмены ctx.
func (r *AsyncReclaimer) Run(ctx context.Context) error {
	r.logger.Printf("started workers=%d", r.cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-r.queue:
					r.process(ctx, t)
				}
			}
		}()
	}
	wg.Wait()

	if n := len(r.queue); n > 0 {
		r.logger.Printf("stopped with %d pending targets, objects may be orphaned", n)
	} else {
		r.logger.Println("stopped")
	}
	return nil
}

// Pending — количество целей в очереди и в работе.
func (r *AsyncReclaimer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

func (r *AsyncReclaimer) process(ctx context.Context, t domain.AssetTarget) {
	defer r.release(t)

	start := time.Now()
	attempts := 0
	op := func() error {
		attempts++
		err := r.gateway.Delete(ctx, t.ObjectID, t.Kind)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(r.cfg.BackOff(), ctx)); err != nil {
		r.logger.Printf("reclaim exhausted target=%s attempts=%d elapsed=%s: %v", t.Key(), attempts, time.Since(start), err)
		return
	}
	r.logger.Printf("reclaimed target=%s attempts=%d", t.Key(), attempts)
}

func (r *AsyncReclaimer) acquire(t domain.AssetTarget) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[t.Key()]; busy {
		return false
	}
	r.inflight[t.Key()] = struct{}{}
	return true
}

func (r *AsyncReclaimer) release(t domain.AssetTarget) {
	r.mu.Lock()
	delete(r.inflight, t.Key())
	r.mu.Unlock()
}
