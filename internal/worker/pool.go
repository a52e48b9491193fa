package worker

import (
	"context"

	"github.com/Xunop/e-shelf/internal/model"
)

// WorkPool accepts jobs without blocking the caller.
type WorkPool interface {
	Push(job model.Job)
}

// Worker consumes jobs until ctx is done or its pool closes.
type Worker interface {
	Run(ctx context.Context)
}

var (
	_ WorkPool = (*PersistPool)(nil)
	_ Worker   = (*PersistWorker)(nil)
)
