package store // import "github.com/Xunop/e-shelf/internal/store"

import (
	"database/sql"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

const (
	bookCacheExpiration = 10 * time.Minute
	bookCacheCleanup    = 30 * time.Minute
)

type Store struct {
	db                 *sql.DB
	dbLock             sync.Mutex   // dbLock serializes writes
	bookCache          *cache.Cache // map[string]*model.Book
	SystemSettingCache sync.Map     // map[string]*model.SystemSetting
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		bookCache: cache.New(bookCacheExpiration, bookCacheCleanup),
	}
}

func (s *Store) DBStats() sql.DBStats {
	return s.db.Stats()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	s.bookCache.Flush()
	return s.db.Close()
}
