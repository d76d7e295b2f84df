package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// DirName is the backups directory under the catalog directory.
const DirName = "backups"

const (
	archiveExt = ".zip"
	dateLayout = "20060102"
	tempPrefix = ".tmp-"
)

// Messages reported for a backup step.
const (
	CreatingMessage = "Creating catalog backup..."
	UpdatingMessage = "Updating catalog backup..."
)

// ErrArchiveCorrupt is returned when an existing archive cannot be read.
var ErrArchiveCorrupt = errors.New("backup archive is corrupt")

// Action is what EnsureBackup did with today's archive.
type Action int

const (
	ActionUnchanged Action = iota
	ActionCreated
	ActionUpdated
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Message returns the progress message for the action. An unchanged
// archive has no message.
func (a Action) Message() string {
	switch a {
	case ActionCreated:
		return CreatingMessage
	case ActionUpdated:
		return UpdatingMessage
	default:
		return ""
	}
}

// Result describes one EnsureBackup call.
type Result struct {
	Action Action
	Path   string
	Size   int64
}

// Manager archives the directories of one catalog.
type Manager struct {
	catalogDir string
	backupsDir string
	sources    []string // subdirectories of catalogDir that are archived
}

// New creates a Manager for the catalog rooted at catalogDir. sources are
// the subdirectory names copied into each archive, typically the tables and
// blobs directories.
func New(catalogDir string, sources ...string) *Manager {
	return &Manager{
		catalogDir: catalogDir,
		backupsDir: filepath.Join(catalogDir, DirName),
		sources:    sources,
	}
}

// Dir returns the backups directory.
func (m *Manager) Dir() string { return m.backupsDir }

// ArchiveName returns the archive file name for the calendar day of now.
func ArchiveName(now time.Time) string {
	return now.Format(dateLayout) + archiveExt
}

// ArchivePath returns the full path of the archive for the day of now.
func (m *Manager) ArchivePath(now time.Time) string {
	return filepath.Join(m.backupsDir, ArchiveName(now))
}

// EnsureBackup makes sure today's archive matches the live catalog files.
func (m *Manager) EnsureBackup(ctx context.Context, now time.Time) (result Result, err error) {
	start := time.Now()
	defer func() {
		metrics.BackupDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.BackupOperationsTotal.WithLabelValues("error").Inc()
			return
		}
		metrics.BackupOperationsTotal.WithLabelValues(result.Action.String()).Inc()
		metrics.BackupSizeBytes.Set(float64(result.Size))
	}()

	if err := os.MkdirAll(m.backupsDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create backups directory: %w", err)
	}

	archive := m.ArchivePath(now)
	result = Result{Action: ActionCreated, Path: archive}

	live, err := m.liveEntries()
	if err != nil {
		return Result{}, err
	}

	if _, statErr := os.Stat(archive); statErr == nil {
		same, err := sameContent(archive, m.catalogDir, live)
		switch {
		case errors.Is(err, ErrArchiveCorrupt):
			logging.Warn("Replacing unreadable backup %s: %v", archive, err)
		case err != nil:
			return Result{}, err
		case same:
			result.Action = ActionUnchanged
			if info, err := os.Stat(archive); err == nil {
				result.Size = info.Size()
			}
			logging.Debug("Backup %s is up to date", filepath.Base(archive))
			return result, nil
		}
		result.Action = ActionUpdated
	} else if !os.IsNotExist(statErr) {
		return Result{}, fmt.Errorf("failed to stat backup %s: %w", archive, statErr)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	size, err := m.writeArchive(ctx, archive, live)
	if err != nil {
		return Result{}, err
	}
	result.Size = size

	logging.Info("Backup %s %s (%d files, %d bytes)", filepath.Base(archive), result.Action, len(live), size)
	return result, nil
}

// liveEntries lists the archive entry names of the live catalog files,
// sorted. Entry names use forward slashes relative to the catalog directory.
func (m *Manager) liveEntries() ([]string, error) {
	var entries []string
	for _, src := range m.sources {
		dir := filepath.Join(m.catalogDir, src)
		files, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), tempPrefix) {
				continue
			}
			entries = append(entries, path.Join(filepath.ToSlash(src), f.Name()))
		}
	}
	slices.Sort(entries)
	return entries, nil
}

// sameContent reports whether the archive holds exactly the live entries
// with identical bytes.
func sameContent(archive, catalogDir string, live []string) (bool, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			logging.Warn("failed to close backup %s: %v", archive, err)
		}
	}()

	if len(r.File) != len(live) {
		return false, nil
	}

	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		byName[f.Name] = f
	}

	for _, name := range live {
		f, ok := byName[name]
		if !ok {
			return false, nil
		}
		current, err := filesystem.ReadFileWithRetry(filepath.Join(catalogDir, filepath.FromSlash(name)), filesystem.DefaultRetryConfig())
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if uint64(len(current)) != f.UncompressedSize64 {
			return false, nil
		}
		archived, err := readEntry(f)
		if err != nil {
			return false, fmt.Errorf("%w: %s: %v", ErrArchiveCorrupt, name, err)
		}
		if !bytes.Equal(current, archived) {
			return false, nil
		}
	}
	return true, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// writeArchive builds the archive in a temp file and renames it over dest.
func (m *Manager) writeArchive(ctx context.Context, dest string, entries []string) (size int64, err error) {
	tmp, err := os.CreateTemp(m.backupsDir, tempPrefix+"*"+archiveExt)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, name := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := addEntry(zw, m.catalogDir, name); err != nil {
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync archive: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", filepath.Base(dest), err)
	}
	return info.Size(), nil
}

func addEntry(zw *zip.Writer, catalogDir, name string) error {
	src := filepath.Join(catalogDir, filepath.FromSlash(name))
	file, err := filesystem.OpenWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return nil
}

// Archive is one stored backup.
type Archive struct {
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// List returns the archives in the backups directory, newest day first.
func (m *Manager) List() ([]Archive, error) {
	entries, err := os.ReadDir(m.backupsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var out []Archive
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		day, err := time.ParseInLocation(dateLayout, strings.TrimSuffix(name, archiveExt), time.Local)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Archive{Name: name, Date: day, Size: info.Size(), ModTime: info.ModTime()})
	}
	slices.SortFunc(out, func(a, b Archive) int { return b.Date.Compare(a.Date) })
	return out, nil
}
