package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"imagestudio/internal/entity"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

// Store keeps the history as one JSON array in a single file. Writes go to a
// temp file that is renamed into place. Appends are serialized within the
// process; across processes the last writer wins.
type Store struct {
	path  string
	limit int
	now   func() time.Time

	mu sync.Mutex
}

// NewStore resolves path (a leading ~ is expanded) and creates its directory.
func NewStore(path string, limit int) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("history path must not be empty")
	}
	expanded, err := homedir.Expand(trimmed)
	if err != nil {
		return nil, fmt.Errorf("expand history path: %w", err)
	}
	if dir := filepath.Dir(expanded); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	return &Store{path: expanded, limit: limit, now: time.Now}, nil
}

// Path returns the resolved file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored records. A missing file is empty history; a
// malformed file is logged and also treated as empty.
func (s *Store) Load(ctx context.Context) ([]entity.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := s.read()
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Append inserts record at the head and rewrites the file. A corrupt file is
// moved aside to <path>.corrupt-<unix> first.
func (s *Store) Append(ctx context.Context, record entity.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	records, corrupt, err := s.read()
	if err != nil {
		return err
	}
	if corrupt {
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if err := os.Rename(s.path, backup); err != nil {
			return fmt.Errorf("move corrupt history aside: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"path":   s.path,
			"backup": backup,
		}).Warn("history_corrupt_backed_up")
	}

	records = entity.PrependHistory(records, record, s.limit)
	return s.write(records)
}

func (s *Store) read() ([]entity.HistoryRecord, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read history: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}

	var records []entity.HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logrus.WithError(err).WithField("path", s.path).Warn("history_corrupt_treated_as_empty")
		return nil, true, nil
	}
	return records, false, nil
}

func (s *Store) write(records []entity.HistoryRecord) error {
	if records == nil {
		records = []entity.HistoryRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
