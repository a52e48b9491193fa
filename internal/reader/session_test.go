package reader

import (
	"testing"
	"time"

	"github.com/Xunop/e-shelf/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCommitProgress(t *testing.T) {
	var s Session
	now := time.Now()
	s.Bind(&model.Book{ID: "a", PageCount: 250}, 100, now)

	eff, err := s.Commit(75, now)
	require.NoError(t, err)
	assert.Equal(t, 30.0, eff.Snapshot.Progress())

	eff, err = s.Commit(1, now)
	require.NoError(t, err)
	assert.Equal(t, 0.4, eff.Snapshot.Progress())
	assert.Equal(t, 1, s.LastCommittedPage)
}

func TestSessionRejectsOutOfRange(t *testing.T) {
	var s Session
	s.Bind(&model.Book{ID: "a", PageCount: 10, CurrentPage: 4}, 100, time.Now())

	for _, page := range []int{0, -1, 11} {
		_, err := s.Commit(page, time.Now())
		assert.ErrorIs(t, err, ErrPageOutOfRange)
	}
	assert.Equal(t, 4, s.CurrentPage())
	assert.Zero(t, s.LastCommittedPage)
}

func TestSessionBindResetsEverything(t *testing.T) {
	var s Session
	s.Bind(&model.Book{ID: "a", PageCount: 2}, 100, time.Now())
	s.MarkRendered(0)
	s.MarkRendered(1)
	_, err := s.Commit(2, time.Now())
	require.NoError(t, err)
	s.RestoredOnce = true
	require.False(t, s.Loading)

	eff := s.Bind(&model.Book{ID: "b", PageCount: 5, CurrentPage: 9}, 120, time.Now())
	assert.Equal(t, "b", s.BookID)
	assert.True(t, s.Loading)
	assert.Zero(t, s.LastCommittedPage)
	assert.False(t, s.RestoredOnce)
	assert.Zero(t, s.RenderedCount())
	// an invalid saved page is not restored
	assert.Zero(t, s.SavedPage)
	assert.Equal(t, 120, s.Zoom)
	assert.True(t, eff.Snapshot.IsOpen)
}

func TestSessionRenderCounting(t *testing.T) {
	var s Session
	s.Bind(&model.Book{ID: "a", PageCount: 3}, 100, time.Now())

	assert.False(t, s.MarkRendered(0))
	assert.False(t, s.MarkRendered(0))
	assert.False(t, s.MarkRendered(7))
	assert.False(t, s.MarkRendered(1))
	assert.True(t, s.MarkRendered(2))
	assert.False(t, s.Loading)
	assert.False(t, s.MarkRendered(2))
}

func TestSessionSnapshotsAreIndependent(t *testing.T) {
	var s Session
	s.Bind(&model.Book{ID: "a", PageCount: 3}, 100, time.Now())
	eff, err := s.Commit(2, time.Now())
	require.NoError(t, err)

	eff.Snapshot.CurrentPage = 3
	eff.Snapshot.IsOpen = false
	assert.Equal(t, 2, s.CurrentPage())
	assert.True(t, s.Snapshot().IsOpen)
}

func TestRestorerNeedsPreconditions(t *testing.T) {
	var s Session
	var r Restorer
	vp := &fakeViewport{}
	handles := vp.pages(5)

	s.Bind(&model.Book{ID: "a", PageCount: 5, CurrentPage: 3}, 100, time.Now())
	_, ok := r.Try(&s, handles, vp)
	assert.False(t, ok, "still loading")

	for i := 0; i < 5; i++ {
		s.MarkRendered(i)
	}
	_, ok = r.Try(&s, handles[:2], vp)
	assert.False(t, ok, "no handle for the saved page")

	vp.userScroll(500)
	eff, ok := r.Try(&s, handles, vp)
	require.True(t, ok)
	assert.Equal(t, 2*pageHeight, eff.Offset)
	assert.True(t, r.Done())
	assert.True(t, s.RestoredOnce)

	_, ok = r.Try(&s, handles, vp)
	assert.False(t, ok)
}
