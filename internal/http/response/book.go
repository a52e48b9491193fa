package response

import "github.com/Xunop/e-shelf/internal/model"

// BookListResponse never encodes as null.
func BookListResponse(books []*model.Book) []*model.Book {
	if books == nil {
		return []*model.Book{}
	}
	return books
}
