package worker // import "github.com/Xunop/e-shelf/internal/worker"

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("persist pool closed")

// BookWriter is the durable side of the pool, store.Store in production.
type BookWriter interface {
	UpdateBook(ctx context.Context, book *model.Book) error
}

// PersistPool writes book snapshots in the background. Every book id maps to
// one worker, so writes for a book happen one at a time in push order.
// Snapshots queued for a book that has not been written yet are replaced by
// the newer one.
type PersistPool struct {
	writer  BookWriter
	timeout time.Duration
	shards  []*shard

	mu     sync.RWMutex
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup
}

type shard struct {
	mu       sync.Mutex
	pending  map[string]model.Job
	inflight map[string]model.Job
	order    []string
	signal   chan struct{}
}

func NewPersistPool(writer BookWriter, size int, timeout time.Duration) *PersistPool {
	if size < 1 {
		size = 1
	}
	pool := &PersistPool{
		writer:  writer,
		timeout: timeout,
		shards:  make([]*shard, size),
		quit:    make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		pool.shards[i] = &shard{
			pending:  make(map[string]model.Job),
			inflight: make(map[string]model.Job),
			signal:   make(chan struct{}, 1),
		}
		worker := &PersistWorker{id: i, pool: pool, shard: pool.shards[i]}
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			worker.Run(context.Background())
		}()
	}

	return pool
}

// Persist queues a snapshot without blocking.
func (p *PersistPool) Persist(bookID string, snapshot *model.Book) {
	p.Push(model.Job{BookID: bookID, Snapshot: snapshot, QueuedAt: time.Now()})
}

// Implement WorkPool interface
func (p *PersistPool) Push(job model.Job) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		log.Warn("Dropping book snapshot, pool closed", zap.String("bookID", job.BookID))
		return
	}

	s := p.shardFor(job.BookID)
	s.mu.Lock()
	if _, queued := s.pending[job.BookID]; !queued {
		s.order = append(s.order, job.BookID)
	}
	s.pending[job.BookID] = job
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Pending returns the newest snapshot of bookID that is queued or being
// written, so readers can see state the store does not have yet.
func (p *PersistPool) Pending(bookID string) (*model.Book, bool) {
	s := p.shardFor(bookID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.pending[bookID]; ok {
		return job.Snapshot.Clone(), true
	}
	if job, ok := s.inflight[bookID]; ok {
		return job.Snapshot.Clone(), true
	}
	return nil, false
}

// Close stops accepting snapshots and waits until the queued ones are
// written or ctx expires.
func (p *PersistPool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "persist pool did not drain")
	}
}

func (p *PersistPool) shardFor(bookID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(bookID))
	return p.shards[h.Sum32()%uint32(len(p.shards))]
}

// next pops the oldest queued book of the shard.
func (s *shard) next() (model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return model.Job{}, false
	}
	id := s.order[0]
	s.order = s.order[1:]
	job := s.pending[id]
	delete(s.pending, id)
	s.inflight[id] = job
	return job, true
}

func (s *shard) written(job model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, job.BookID)
}

type PersistWorker struct {
	id    int
	pool  *PersistPool
	shard *shard
}

// Run writes queued snapshots until the pool is closed, then drains the shard.
func (w *PersistWorker) Run(ctx context.Context) {
	log.Debug("PersistWorker is running", zap.Int("worker_id", w.id))

	for {
		select {
		case <-w.shard.signal:
			w.drain(ctx)
		case <-w.pool.quit:
			w.drain(ctx)
			log.Debug("PersistWorker stopped", zap.Int("worker_id", w.id))
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *PersistWorker) drain(ctx context.Context) {
	for {
		job, ok := w.shard.next()
		if !ok {
			return
		}
		w.write(ctx, job)
		w.shard.written(job)
	}
}

func (w *PersistWorker) write(ctx context.Context, job model.Job) {
	if w.pool.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.pool.timeout)
		defer cancel()
	}

	log.Debug("Job received by worker",
		zap.Int("worker_id", w.id),
		zap.String("bookID", job.BookID),
		zap.Int("currentPage", job.Snapshot.CurrentPage))

	// Not retried, the next commit writes a fresher snapshot.
	if err := w.pool.writer.UpdateBook(ctx, job.Snapshot); err != nil {
		log.Error("Failed to persist book",
			zap.String("bookID", job.BookID),
			zap.Duration("queued", time.Since(job.QueuedAt)),
			zap.Error(err))
	}
}
