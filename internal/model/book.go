package model //import "github.com/Xunop/e-shelf/internal/model"

import (
	"encoding/json"
	"math"
	"time"
)

const DefaultZoom = 100

// Book is a library entry together with its reading state.
type Book struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	CurrentPage    int             `json:"current_page"`
	PageCount      int             `json:"page_count"`
	Zoom           int             `json:"zoom"`
	Score          *float32        `json:"score"`
	IsFavorite     bool            `json:"is_favorite"`
	IsOpen         bool            `json:"is_open"`
	TimeSpent      int64           `json:"time_spent"` // seconds
	CompletedAt    *time.Time      `json:"completed_at"`
	LastTimeOpened *time.Time      `json:"last_time_opened"`
	TextHighlights []TextHighlight `json:"text_highlights"`
	FileSize       int64           `json:"file_size"`
	BookPath       string          `json:"book_path"`
	ThumbnailPath  string          `json:"thumbnail_path"`
}

// Progress is the share of the book read, in percent rounded to one decimal.
func (b *Book) Progress() float64 {
	if b.PageCount <= 0 || b.CurrentPage <= 0 {
		return 0
	}
	return math.Round(1000*float64(b.CurrentPage)/float64(b.PageCount)) / 10
}

// ValidPage reports whether page lies in [1, PageCount].
func (b *Book) ValidPage(page int) bool {
	return page >= 1 && page <= b.PageCount
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	if b.Score != nil {
		score := *b.Score
		c.Score = &score
	}
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		c.CompletedAt = &t
	}
	if b.LastTimeOpened != nil {
		t := *b.LastTimeOpened
		c.LastTimeOpened = &t
	}
	if b.TextHighlights != nil {
		c.TextHighlights = make([]TextHighlight, len(b.TextHighlights))
		copy(c.TextHighlights, b.TextHighlights)
	}
	return &c
}

// ApplyDetails copies the user-editable descriptive fields of u onto b.
// Reading state, file paths and the page count are left alone.
func (b *Book) ApplyDetails(u *Book) {
	c := u.Clone()
	b.Name = c.Name
	b.Description = c.Description
	b.Score = c.Score
	b.IsFavorite = c.IsFavorite
	b.TextHighlights = c.TextHighlights
	b.ThumbnailPath = c.ThumbnailPath
}

// MarshalJSON adds the derived progress field.
func (b Book) MarshalJSON() ([]byte, error) {
	type plain Book
	return json.Marshal(struct {
		plain
		Progress float64 `json:"progress"`
	}{plain(b), b.Progress()})
}

type FindBook struct {
	ID         *string `json:"id"`
	Name       *string `json:"name"`
	IsFavorite *bool   `json:"is_favorite"`
	IsOpen     *bool   `json:"is_open"`

	// The maximum number of books to return.
	Limit *int `json:"limit"`
}
