package incident

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/log"
)

// FileSource loads incidents from a directory laid out as
//
//	<dir>/<id>/summary.json
//	<dir>/<id>/logs.jsonl
//	<dir>/<id>/metrics.jsonl
//	<dir>/<id>/timeline.json
//
// Only summary.json is required. Logs and metrics keep the trailing
// RecentLogs and RecentMetrics entries.
type FileSource struct {
	dir    string
	logger *log.Logger
}

// NewFileSource creates a source rooted at dir.
func NewFileSource(dir string, logger *log.Logger) *FileSource {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &FileSource{dir: dir, logger: logger}
}

// Dir returns the root directory.
func (f *FileSource) Dir() string {
	return f.dir
}

// Ping reports whether the root directory is readable.
func (f *FileSource) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFoundError(f.dir)
		}
		return errors.Wrap(errors.ErrCodeFileReadFailed, "stat incident directory", err)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeFileReadFailed, "incident path is not a directory: "+f.dir)
	}
	return nil
}

// List returns every subdirectory that holds a summary.json.
func (f *FileSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(f.dir)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read incident directory", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(f.dir, e.Name(), "summary.json")); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads one incident.
func (f *FileSource) Load(ctx context.Context, id string) (*Incident, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	dir := filepath.Join(f.dir, id)
	summaryPath := filepath.Join(dir, "summary.json")
	data, err := os.ReadFile(summaryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIncidentNotFoundError(id)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read incident summary", err)
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIncidentInvalid, "invalid incident summary for "+id, err)
	}
	if summary.IncidentID == "" {
		summary.IncidentID = id
	}
	if summary.IncidentType == "" {
		summary.IncidentType = "unknown"
	}
	if summary.RootCause.Primary == "" {
		summary.RootCause.Primary = "Unknown"
	}
	summary.Severity = normalizeSeverity(summary.Severity)

	inc := &Incident{Summary: summary}

	logger := f.logger.With("incident_id", id)
	inc.Logs, err = readJSONL[LogEntry](filepath.Join(dir, "logs.jsonl"), RecentLogs, logger)
	if err != nil {
		return nil, err
	}
	inc.Metrics, err = readJSONL[MetricPoint](filepath.Join(dir, "metrics.jsonl"), RecentMetrics, logger)
	if err != nil {
		return nil, err
	}

	timelineData, err := os.ReadFile(filepath.Join(dir, "timeline.json"))
	switch {
	case err == nil:
		if jerr := json.Unmarshal(timelineData, &inc.Timeline); jerr != nil {
			logger.Debug("skipping malformed timeline", "error", jerr.Error())
			inc.Timeline = nil
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read incident timeline", err)
	}

	return inc, nil
}

// readJSONL decodes a JSON-lines file keeping only the last keep entries.
// A missing file is empty; malformed lines are skipped.
func readJSONL[T any](path string, keep int, logger *log.Logger) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "open "+filepath.Base(path), err)
	}
	defer file.Close()

	var out []T
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Debug("skipping malformed line", "file", filepath.Base(path), "line", line, "error", err.Error())
			continue
		}
		out = append(out, v)
		if len(out) > keep {
			out = out[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "scan "+filepath.Base(path), err)
	}
	return out, nil
}

var _ Source = (*FileSource)(nil)
var _ Source = (*MemorySource)(nil)
