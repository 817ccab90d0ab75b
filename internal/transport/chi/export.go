package chi

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DownloadIndex handles GET /api/download-index: streams a zip archive with
// the index snapshot, its metadata and a stats.json manifest. The archive
// name carries a timestamp plus a uuid fragment so repeated downloads never
// collide on the client side.
func (s *Server) DownloadIndex(w http.ResponseWriter, r *http.Request) {
	indexPath, metaPath := s.snapshots.SnapshotPaths()

	name := fmt.Sprintf("recall-index-%s-%s.zip",
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8],
	)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	zw := zip.NewWriter(w)
	defer func() {
		if err := zw.Close(); err != nil {
			s.logger.Error("Failed to finalize export archive", zap.Error(err))
		}
	}()

	for _, path := range []string{indexPath, metaPath} {
		if err := addFileToZip(zw, path); err != nil {
			// Headers are already out; log and abort the stream.
			s.logger.Error("Failed to add snapshot to export archive",
				zap.String("path", path), zap.Error(err))
			return
		}
	}

	stats, err := json.MarshalIndent(s.indexing.Stats(), "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal export stats", zap.Error(err))
		return
	}
	entry, err := zw.Create("stats.json")
	if err != nil {
		s.logger.Error("Failed to create stats entry", zap.Error(err))
		return
	}
	if _, err := entry.Write(stats); err != nil {
		s.logger.Error("Failed to write stats entry", zap.Error(err))
	}
}

// addFileToZip copies one snapshot file into the archive under its base name.
// A missing file is skipped: an empty store has no snapshot yet.
func addFileToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create entry %s: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}
