package patch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/sourcepatch/internal/idgen"
	"github.com/viant/sourcepatch/internal/location"
	"go.uber.org/zap"
)

// journalEntry is the state of a path before its first mutation in a session.
type journalEntry struct {
	path    string
	existed bool
	data    []byte
}

// Session applies file mutations on behalf of one invocation. With journaling
// enabled every touched path is recorded so Rollback can restore it.
type Session struct {
	ID      string
	fs      afs.Service
	baseURL string
	journal bool
	logger  *zap.Logger

	mu        sync.Mutex
	entries   []journalEntry
	touched   map[string]bool
	committed bool
}

// Changes describes the outcome of a multi-file application.
type Changes struct {
	// Files maps written paths (as given in the patch) to their new content.
	Files map[string]string
	// Order lists written paths in first-write order.
	Order []string
	// Deleted lists removed paths; the source of a move is not included.
	Deleted []string
}

func (c *Changes) written(path, content string) {
	if _, ok := c.Files[path]; !ok {
		c.Order = append(c.Order, path)
	}
	c.Files[path] = content
}

// Single returns the only changed file content when exactly one file was
// written and nothing was deleted.
func (c *Changes) Single() (string, bool) {
	if len(c.Order) != 1 || len(c.Deleted) > 0 {
		return "", false
	}
	return c.Files[c.Order[0]], true
}

// NewSession creates a session over fs. Relative paths are resolved against
// baseURL when it is set.
func NewSession(fs afs.Service, baseURL string, journal bool, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := idgen.New()
	return &Session{
		ID:      id,
		fs:      fs,
		baseURL: baseURL,
		journal: journal,
		logger:  logger.With(zap.String("session", id)),
		touched: map[string]bool{},
	}
}

// URL resolves path to the storage location used by the session.
func (s *Session) URL(path string) string {
	return location.Resolve(s.baseURL, path)
}

func (s *Session) exists(ctx context.Context, path string) (bool, error) {
	ok, err := s.fs.Exists(ctx, s.URL(path))
	if err != nil {
		return false, ioError("access", err)
	}
	return ok, nil
}

// Load returns the content of path; a missing file is reported as ErrNotFound.
func (s *Session) Load(ctx context.Context, path string) (string, error) {
	ok, err := s.exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &Error{Kind: KindNotFound, Message: "Unable to read file", Err: fmt.Errorf("%s does not exist", path)}
	}
	data, err := s.fs.DownloadWithURL(ctx, s.URL(path))
	if err != nil {
		return "", ioError("read", err)
	}
	return string(data), nil
}

// LoadOrEmpty returns the content of path or an empty string when it does not exist.
func (s *Session) LoadOrEmpty(ctx context.Context, path string) (string, error) {
	content, err := s.Load(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return content, err
}

// remember records the pre-session state of path on its first mutation.
func (s *Session) remember(ctx context.Context, path string) error {
	if !s.journal || s.touched[path] {
		return nil
	}
	entry := journalEntry{path: path}
	ok, err := s.exists(ctx, path)
	if err != nil {
		return err
	}
	if ok {
		if entry.data, err = s.fs.DownloadWithURL(ctx, s.URL(path)); err != nil {
			return ioError("read", err)
		}
		entry.existed = true
	}
	s.entries = append(s.entries, entry)
	s.touched[path] = true
	return nil
}

func (s *Session) assertActive() error {
	if s.committed {
		return errors.New("session already committed")
	}
	return nil
}

// Add creates path with content; it fails with ErrAlreadyExists when path exists.
func (s *Session) Add(ctx context.Context, path string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assertActive(); err != nil {
		return err
	}
	ok, err := s.exists(ctx, path)
	if err != nil {
		return err
	}
	if ok {
		return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf("Unable to add file: %q already exists.", path)}
	}
	return s.write(ctx, path, content)
}

// Write creates or overwrites path with content.
func (s *Session) Write(ctx context.Context, path string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assertActive(); err != nil {
		return err
	}
	return s.write(ctx, path, content)
}

func (s *Session) write(ctx context.Context, path string, content string) error {
	if err := s.remember(ctx, path); err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, s.URL(path), file.DefaultFileOsMode, bytes.NewReader([]byte(content))); err != nil {
		return ioError("write", err)
	}
	return nil
}

// Delete removes path; a missing file is reported as ErrNotFound.
func (s *Session) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assertActive(); err != nil {
		return err
	}
	return s.delete(ctx, path)
}

func (s *Session) delete(ctx context.Context, path string) error {
	ok, err := s.exists(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return &Error{Kind: KindNotFound, Message: "Unable to delete file", Err: fmt.Errorf("%s does not exist", path)}
	}
	if err := s.remember(ctx, path); err != nil {
		return err
	}
	if err := s.fs.Delete(ctx, s.URL(path)); err != nil {
		return ioError("delete", err)
	}
	return nil
}

// Move writes content to dst and removes src once the write succeeded.
func (s *Session) Move(ctx context.Context, src, dst string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assertActive(); err != nil {
		return err
	}
	if err := s.write(ctx, dst, content); err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	return s.delete(ctx, src)
}

// Rollback restores every journaled path to its pre-session state, most recent first.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		entryURL := s.URL(entry.path)
		if entry.existed {
			if err := s.fs.Upload(ctx, entryURL, file.DefaultFileOsMode, bytes.NewReader(entry.data)); err != nil {
				errs = append(errs, fmt.Errorf("rollback %s: %w", entry.path, err))
			}
			continue
		}
		if ok, _ := s.fs.Exists(ctx, entryURL); ok {
			if err := s.fs.Delete(ctx, entryURL); err != nil {
				errs = append(errs, fmt.Errorf("rollback %s: %w", entry.path, err))
			}
		}
	}
	if len(s.entries) > 0 {
		s.logger.Info("rolled back patch session", zap.Int("paths", len(s.entries)))
	}
	s.entries = nil
	s.touched = map[string]bool{}
	return errors.Join(errs...)
}

// Commit discards the journal.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = true
	s.entries = nil
	s.touched = nil
	return nil
}

// ApplyEnvelope applies every directive in order and stops at the first failure.
// Directives written before a failure stay on storage until Rollback.
func (s *Session) ApplyEnvelope(ctx context.Context, envelope *Envelope) (*Changes, error) {
	changes := &Changes{Files: map[string]string{}}
	for _, directive := range envelope.Directives {
		switch d := directive.(type) {
		case *AddFile:
			content := d.Content()
			if err := s.Add(ctx, d.Path, content); err != nil {
				return changes, err
			}
			changes.written(d.Path, content)
		case *DeleteFile:
			if err := s.Delete(ctx, d.Path); err != nil {
				return changes, err
			}
			changes.Deleted = append(changes.Deleted, d.Path)
		case *UpdateFile:
			current, err := s.Load(ctx, d.Path)
			if err != nil {
				return changes, err
			}
			updated, err := ApplyUpdate(current, d.Hunks, d.NoTrailingNewline)
			if err != nil {
				return changes, err
			}
			if err := s.Move(ctx, d.Path, d.Destination(), updated); err != nil {
				return changes, err
			}
			changes.written(d.Destination(), updated)
		default:
			return changes, malformed("unsupported directive %T.", directive)
		}
	}
	return changes, nil
}

// ApplyUnified applies git style file diffs. Updates of a missing file fail
// unless tolerateMissing is set, in which case the file is treated as empty.
func (s *Session) ApplyUnified(ctx context.Context, diffs []*FileDiff, tolerateMissing bool) (*Changes, error) {
	changes := &Changes{Files: map[string]string{}}
	for _, diff := range diffs {
		switch {
		case diff.IsDelete():
			if err := s.Delete(ctx, diff.OrigPath); err != nil {
				return changes, err
			}
			changes.Deleted = append(changes.Deleted, diff.OrigPath)
		case diff.IsAdd():
			content, err := diff.NewFileContent()
			if err != nil {
				return changes, err
			}
			if err := s.Add(ctx, diff.NewPath, content); err != nil {
				return changes, err
			}
			changes.written(diff.NewPath, content)
		default:
			load := s.Load
			if tolerateMissing {
				load = s.LoadOrEmpty
			}
			current, err := load(ctx, diff.OrigPath)
			if err != nil {
				return changes, err
			}
			updated, err := ApplyLinePatch(current, diff.Patch)
			if err != nil {
				return changes, err
			}
			if err := s.Move(ctx, diff.OrigPath, diff.NewPath, updated); err != nil {
				return changes, err
			}
			changes.written(diff.NewPath, updated)
		}
	}
	return changes, nil
}
