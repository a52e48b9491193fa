package validator // import "github.com/Xunop/e-shelf/internal/validator"

import (
	"math"

	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
)

var ErrInvalidBook = errors.New("invalid book")

// ValidateBookUpdate checks a client edit of a book with pageCount pages.
func ValidateBookUpdate(book *model.Book, pageCount int) error {
	if book == nil {
		return errors.Wrap(ErrInvalidBook, "book is nil")
	}
	if book.ID == "" {
		return errors.Wrap(ErrInvalidBook, "id is empty")
	}
	if book.Name == "" {
		return errors.Wrap(ErrInvalidBook, "name is empty")
	}
	if book.Score != nil {
		score := float64(*book.Score)
		if math.IsNaN(score) || score < 0 {
			return errors.Wrap(ErrInvalidBook, "score must not be negative")
		}
	}
	if book.TimeSpent < 0 {
		return errors.Wrap(ErrInvalidBook, "time spent must not be negative")
	}
	for i, h := range book.TextHighlights {
		if err := validateHighlight(h, pageCount); err != nil {
			return errors.Wrapf(err, "highlight %d", i)
		}
	}
	return nil
}

func validateHighlight(h model.TextHighlight, pageCount int) error {
	if h.PageNumber < 1 || h.PageNumber > pageCount {
		return errors.Wrapf(ErrInvalidBook, "page %d out of range", h.PageNumber)
	}
	if h.LineNumber < 0 || h.StartPos < 0 || h.Length < 0 {
		return errors.Wrap(ErrInvalidBook, "position must not be negative")
	}
	return nil
}
