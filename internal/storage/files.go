package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"

	"github.com/fxamacker/cbor/v2"
	"github.com/parquet-go/parquet-go"
)

const tempPrefix = ".tmp-"

var blobEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: invalid deterministic encoding options: %v", err))
	}
	return em
}()

// readTable loads every row of a Parquet file. exists is false when the
// file is missing.
func readTable[T any](path string) (rows []T, exists bool, err error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close table %s: %v", path, err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, true, fmt.Errorf("failed to stat table %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, true, fmt.Errorf("failed to open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	rows = make([]T, 0, pf.NumRows())
	batch := make([]T, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, true, fmt.Errorf("failed to read table %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}
	return rows, true, nil
}

// stageTable writes rows to a temp file next to dest and returns its path.
func stageTable[T any](dest string, rows []T) (string, error) {
	return stageFile(dest, func(w io.Writer) error {
		writer := parquet.NewGenericWriter[T](w)
		if _, err := writer.Write(rows); err != nil {
			return err
		}
		return writer.Close()
	})
}

// readBlob decodes a folder blob. A missing blob is an empty map.
func readBlob(path string) (map[string][]byte, error) {
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]byte{}, nil
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}

	thumbs := map[string][]byte{}
	if err := cbor.Unmarshal(data, &thumbs); err != nil {
		return nil, fmt.Errorf("failed to decode blob %s: %w", path, err)
	}
	return thumbs, nil
}

// stageBlob encodes thumbnails to a temp file next to dest.
func stageBlob(dest string, thumbs map[string][]byte) (string, error) {
	data, err := blobEncMode.Marshal(thumbs)
	if err != nil {
		return "", fmt.Errorf("failed to encode blob: %w", err)
	}
	return stageFile(dest, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// stageFile creates a hidden temp file in dest's directory, fills it with
// write and syncs it. The temp file is removed on failure.
func stageFile(dest string, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := write(tmp); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filepath.Base(dest), err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync %s: %w", filepath.Base(dest), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	success = true
	return tmpPath, nil
}

// removeStaleTemps deletes temp files left behind by an interrupted commit.
func removeStaleTemps(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				logging.Warn("failed to remove stale temp file %s: %v", path, err)
			} else {
				logging.Debug("Removed stale temp file %s", path)
			}
		}
	}
}
