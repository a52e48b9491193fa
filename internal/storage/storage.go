package storage

import "os"

type Storage interface {
	// Store copies src into the storage under id
	Store(src, id string) (*StoredFile, error)
	// Open opens a stored file for reading
	Open(path string) (*os.File, error)
	// Remove deletes a stored file and its thumbnails
	Remove(bookPath, thumbnailPath string) error
}

var _ Storage = (*LocalStorage)(nil)
