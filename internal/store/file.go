package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meeting-tracker/internal/model"
)

// FileStore implements Store on a single JSON document. Every write
// replaces the document through a synced temp file and a rename, so a
// crash leaves either the old or the new history on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileDoc struct {
	Meetings []model.MeetingRecord `json:"meetings"`
	Runs     []model.Run           `json:"runs"`
}

// NewFile returns a FileStore backed by path.
func NewFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, eris.New("file: path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Migrate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "file: create directory")
	}
	if _, err := os.Stat(s.path); err == nil {
		_, err := s.read()
		return err
	} else if !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrap(err, "file: stat")
	}
	return s.write(fileDoc{Meetings: []model.MeetingRecord{}, Runs: []model.Run{}})
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) LoadMeetings(_ context.Context) ([]model.MeetingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Meetings, nil
}

func (s *FileStore) AppendMeetings(_ context.Context, recs []model.MeetingRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(doc.Meetings)+len(recs))
	for _, m := range doc.Meetings {
		seen[m.Fingerprint] = struct{}{}
	}
	written := 0
	for _, r := range recs {
		if _, ok := seen[r.Fingerprint]; ok {
			continue
		}
		seen[r.Fingerprint] = struct{}{}
		doc.Meetings = append(doc.Meetings, normalizeRecord(r))
		written++
	}
	if written == 0 {
		return 0, nil
	}
	if err := s.write(doc); err != nil {
		return 0, err
	}
	return written, nil
}

func (s *FileStore) SaveRun(_ context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	r := *run
	r.StartedAt = r.StartedAt.UTC()
	if r.FinishedAt != nil {
		t := r.FinishedAt.UTC()
		r.FinishedAt = &t
	}
	replaced := false
	for i := range doc.Runs {
		if doc.Runs[i].ID == r.ID {
			doc.Runs[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Runs = append(doc.Runs, r)
	}
	return s.write(doc)
}

func (s *FileStore) ListRuns(_ context.Context, filter RunFilter) ([]model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	var runs []model.Run
	// Newest first; later saves win ties.
	for i := len(doc.Runs) - 1; i >= 0; i-- {
		if filter.Status != "" && doc.Runs[i].Status != filter.Status {
			continue
		}
		runs = append(runs, doc.Runs[i])
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit := int(runLimit(filter)); len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *FileStore) read() (fileDoc, error) {
	var doc fileDoc
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, eris.Wrap(err, "file: read")
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, eris.Wrapf(err, "file: decode %s", s.path)
	}
	return doc, nil
}

func (s *FileStore) write(doc fileDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "file: encode")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "file: create temp")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "file: write temp")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "file: sync temp")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "file: close temp")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return eris.Wrap(err, "file: replace")
	}
	return nil
}

func normalizeRecord(r model.MeetingRecord) model.MeetingRecord {
	r.FirstSeen = r.FirstSeen.UTC()
	r.Source.PublishedAt = r.Source.PublishedAt.UTC()
	r.MeetingDate = r.MeetingDate.UTC()
	return r
}
