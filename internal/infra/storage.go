package infra

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore persists uploaded files on local disk under entity-scoped keys,
// e.g. billing/{entry_id}/{timestamp}_{name}. Keys are relative so the root
// directory can move without rewriting stored references.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("storage: create root dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Save writes the reader's content under a key scoped to the entity and
// returns the key and the number of bytes written.
func (s *FileStore) Save(scope, entityID, fileName string, r io.Reader) (string, int64, error) {
	key := fmt.Sprintf("%s/%s/%d_%s", scope, entityID, time.Now().UnixNano(), sanitizeFileName(fileName))
	path := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", 0, fmt.Errorf("storage: create dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("storage: write file: %w", err)
	}
	return key, n, nil
}

// Path resolves a stored key to an absolute filesystem path.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Remove deletes the file for a key. Missing files are not an error.
func (s *FileStore) Remove(key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// sanitizeFileName strips path separators and other characters that could
// escape the storage directory.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	return replacer.Replace(name)
}
