package dedup

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the fingerprint set in a line-delimited file, one
// "<fingerprint>\t<RFC3339 first-seen>" record per line. Flush writes a
// temp file in the same directory and renames it over the old one, so a
// crash mid-write leaves the previous state intact.
type FileStore struct {
	path string
	seen map[string]time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		seen: make(map[string]time.Time),
	}
}

func (s *FileStore) Load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Dedup store does not exist yet, starting empty", "path", s.path)
			return nil
		}
		return fmt.Errorf("failed to open dedup store: %w", err)
	}
	defer file.Close()

	loaded := 0
	skipped := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fp, seenAt, ok := parseLine(line)
		if !ok {
			skipped++
			continue
		}
		s.seen[fp] = seenAt
		loaded++
	}
	if err := scanner.Err(); err != nil {
		// A truncated or garbled tail must not kill the run; whatever
		// parsed cleanly is kept and the rest is re-published at worst.
		slog.Warn("Dedup store partially unreadable, continuing with loaded entries",
			"path", s.path, "loaded", loaded, "error", err)
		return nil
	}

	if skipped > 0 {
		slog.Warn("Skipped malformed dedup store lines", "path", s.path, "skipped", skipped)
	}
	slog.Debug("Dedup store loaded", "path", s.path, "entries", loaded)
	return nil
}

func (s *FileStore) Contains(fp string) bool {
	_, ok := s.seen[fp]
	return ok
}

func (s *FileStore) MarkSeen(fp string, seenAt time.Time) {
	if _, ok := s.seen[fp]; ok {
		return
	}
	s.seen[fp] = seenAt.UTC()
}

func (s *FileStore) Flush() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpPath := tmp.Name()

	writer := bufio.NewWriter(tmp)
	for _, fp := range s.sortedFingerprints() {
		if _, err := fmt.Fprintf(writer, "%s\t%s\n", fp, s.seen[fp].Format(time.RFC3339)); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to write dedup store: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write dedup store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync dedup store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close dedup store: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace dedup store: %w", err)
	}

	slog.Debug("Dedup store flushed", "path", s.path, "entries", len(s.seen))
	return nil
}

func (s *FileStore) EvictOlderThan(horizon time.Duration) int {
	if horizon <= 0 {
		return 0
	}
	cutoff := time.Now().UTC().Add(-horizon)
	evicted := 0
	for fp, seenAt := range s.seen {
		if seenAt.Before(cutoff) {
			delete(s.seen, fp)
			evicted++
		}
	}
	return evicted
}

func (s *FileStore) Len() int {
	return len(s.seen)
}

// sortedFingerprints keeps flushes byte-identical for identical state
func (s *FileStore) sortedFingerprints() []string {
	fps := make([]string, 0, len(s.seen))
	for fp := range s.seen {
		fps = append(fps, fp)
	}
	sort.Strings(fps)
	return fps
}

// parseLine splits a store record into fingerprint and first-seen time.
// Fingerprints never contain tabs, so the last tab is the separator.
func parseLine(line string) (string, time.Time, bool) {
	idx := strings.LastIndex(line, "\t")
	if idx <= 0 || idx == len(line)-1 {
		return "", time.Time{}, false
	}
	fp := line[:idx]
	seenAt, err := time.Parse(time.RFC3339, line[idx+1:])
	if err != nil {
		return "", time.Time{}, false
	}
	return fp, seenAt.UTC(), true
}
