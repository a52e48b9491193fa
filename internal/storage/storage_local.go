package storage // import "github.com/Xunop/e-shelf/internal/storage"

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Xunop/e-shelf/internal/config"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// StoredFile describes a file copied into the library.
type StoredFile struct {
	Path          string
	Size          int64
	Hash          string
	ThumbnailPath string
}

// LocalStorage keeps book files under <Path>/books and reserves
// <Path>/thumbnails/<id>.png for the cover rendered by the reader UI.
type LocalStorage struct {
	// Path to the storage directory
	Path string
}

func NewLocalStorage(path string) *LocalStorage {
	return &LocalStorage{Path: path}
}

func (s *LocalStorage) booksDir() string      { return filepath.Join(s.Path, "books") }
func (s *LocalStorage) thumbnailsDir() string { return filepath.Join(s.Path, "thumbnails") }

// Store copies the file at src into the library as <id><ext>.
func (s *LocalStorage) Store(src, id string) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(src))
	if ext == "" || !config.CheckSupportedTypes(ext[1:]) {
		return nil, errors.Wrapf(ErrUnsupportedType, "%s", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(s.booksDir(), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create books directory")
	}
	if err := os.MkdirAll(s.thumbnailsDir(), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create thumbnail directory")
	}

	filePath := filepath.Join(s.booksDir(), id+ext)
	size, hash, err := storeFile(in, filePath)
	if err != nil {
		os.Remove(filePath)
		return nil, err
	}
	log.Debug("Stored file", zap.String("path", filePath), zap.String("hash", hash))

	return &StoredFile{
		Path:          filePath,
		Size:          size,
		Hash:          hash,
		ThumbnailPath: filepath.Join(s.thumbnailsDir(), id+".png"),
	}, nil
}

// Open returns the stored file for reading.
func (s *LocalStorage) Open(path string) (*os.File, error) {
	if !s.contains(path) {
		return nil, errors.Errorf("%s is outside the library", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	return f, nil
}

// Remove deletes a stored book file and its thumbnails. Missing files are
// not an error.
func (s *LocalStorage) Remove(bookPath, thumbnailPath string) error {
	for _, p := range []string{bookPath, thumbnailPath} {
		if p == "" {
			continue
		}
		if !s.contains(p) {
			return errors.Errorf("%s is outside the library", p)
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove %s", p)
		}
	}
	return nil
}

func (s *LocalStorage) contains(p string) bool {
	rel, err := filepath.Rel(s.Path, p)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func storeFile(reader io.Reader, filePath string) (int64, string, error) {
	hash := sha256.New()
	outFile, err := os.Create(filePath)
	if err != nil {
		return 0, "", errors.Wrapf(err, "failed to create %s", filePath)
	}
	defer outFile.Close()

	// Copy data to the file and calculate the hash
	size, err := io.Copy(io.MultiWriter(outFile, hash), reader)
	if err != nil {
		return 0, "", errors.Wrapf(err, "failed to write %s", filePath)
	}
	if err := outFile.Sync(); err != nil {
		return 0, "", errors.Wrapf(err, "failed to sync %s", filePath)
	}
	return size, hex.EncodeToString(hash.Sum(nil)), nil
}
