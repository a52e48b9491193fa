package model //import "github.com/Xunop/e-shelf/internal/model"

import "time"

// Job is a book snapshot waiting to be written.
type Job struct {
	BookID   string
	Snapshot *Book
	QueuedAt time.Time
}
