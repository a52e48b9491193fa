package validator

import (
	"math"
	"testing"

	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
)

func TestValidateBookUpdate(t *testing.T) {
	negative := float32(-1)
	nan := float32(math.NaN())
	good := float32(4)

	scenarios := []struct {
		name  string
		book  *model.Book
		valid bool
	}{
		{"nil", nil, false},
		{"no id", &model.Book{Name: "A"}, false},
		{"no name", &model.Book{ID: "a"}, false},
		{"minimal", &model.Book{ID: "a", Name: "A"}, true},
		{"score", &model.Book{ID: "a", Name: "A", Score: &good}, true},
		{"negative score", &model.Book{ID: "a", Name: "A", Score: &negative}, false},
		{"nan score", &model.Book{ID: "a", Name: "A", Score: &nan}, false},
		{"negative time", &model.Book{ID: "a", Name: "A", TimeSpent: -5}, false},
		{"highlight", &model.Book{ID: "a", Name: "A", TextHighlights: []model.TextHighlight{
			{PageNumber: 10, LineNumber: 2, StartPos: 4, Length: 7, Color: model.ColorRed},
		}}, true},
		{"highlight past last page", &model.Book{ID: "a", Name: "A", TextHighlights: []model.TextHighlight{
			{PageNumber: 11, Color: model.ColorRed},
		}}, false},
		{"highlight negative length", &model.Book{ID: "a", Name: "A", TextHighlights: []model.TextHighlight{
			{PageNumber: 1, Length: -1, Color: model.ColorRed},
		}}, false},
	}

	for _, s := range scenarios {
		err := ValidateBookUpdate(s.book, 10)
		if s.valid && err != nil {
			t.Errorf("%s: unexpected error %v", s.name, err)
		}
		if !s.valid && !errors.Is(err, ErrInvalidBook) {
			t.Errorf("%s: expected ErrInvalidBook, got %v", s.name, err)
		}
	}
}
