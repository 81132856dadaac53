package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/hermeslink/hlink-backup/internal/domain"
)

type fakeLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *fakeLogger) log(level, template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(template, args...))
}

func (l *fakeLogger) Infof(template string, args ...interface{})  { l.log("INFO", template, args...) }
func (l *fakeLogger) Errorf(template string, args ...interface{}) { l.log("ERROR", template, args...) }
func (l *fakeLogger) Warnf(template string, args ...interface{})  { l.log("WARN", template, args...) }

type fakeResolver struct {
	res   domain.Resolution
	err   error
	calls int
}

func (r *fakeResolver) Resolve(ctx context.Context, service string) (domain.Resolution, error) {
	r.calls++
	res := r.res
	res.Container.Service = service
	return res, r.err
}

func resolverWith(status domain.ResolveStatus) *fakeResolver {
	return &fakeResolver{res: domain.Resolution{
		Status:    status,
		Container: domain.Container{ID: "4b1f0e6d2c3a9f8e7d6c"},
	}}
}

type fakeDB struct {
	dump       string
	dumpErr    error
	restoreErr error
	restored   []byte
	dumps      int
}

func (d *fakeDB) Dump(ctx context.Context, c domain.Container, w io.Writer) error {
	d.dumps++
	if d.dump != "" {
		if _, err := io.WriteString(w, d.dump); err != nil {
			return err
		}
	}
	return d.dumpErr
}

func (d *fakeDB) Restore(ctx context.Context, c domain.Container, r io.Reader) error {
	data, err := io.ReadAll(r)
	d.restored = data
	if err != nil {
		return fmt.Errorf("psql failed: %w", err)
	}
	return d.restoreErr
}

func (d *fakeDB) GetName() string {
	return "hlink_db"
}

type fakeVerifier struct {
	tables int
	err    error
}

func (v *fakeVerifier) CountTables(ctx context.Context) (int, error) {
	return v.tables, v.err
}

// memStorage is a remote target keeping names and modification times.
type memStorage struct {
	mu        sync.Mutex
	files     map[string]time.Time
	uploadErr error
	oldErr    error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string]time.Time)}
}

func (m *memStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.files[remoteName] = time.Now()
	return nil
}

func (m *memStorage) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memStorage) Delete(ctx context.Context, remoteName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, remoteName)
	return nil
}

func (m *memStorage) GetOldFiles(ctx context.Context, cutoff time.Time) ([]string, error) {
	if m.oldErr != nil {
		return nil, m.oldErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name, mod := range m.files {
		if mod.Before(cutoff) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memStorage) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

type countingCleanup struct {
	calls int
	err   error
}

func (c *countingCleanup) Execute(ctx context.Context) error {
	c.calls++
	return c.err
}
