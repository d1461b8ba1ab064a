package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sharpline/platform/internal/domain"
)

// Archive writes raw provider payloads to disk under
// <root>/<league>/<source>/<yyyy>/<ww>/<ts>.json so a collection run can be
// replayed or audited. Archiving is best-effort; a full disk never fails a
// run.
type Archive struct {
	root   string
	logger *slog.Logger
}

// NewArchive creates an archive rooted at dir. An empty dir disables it.
func NewArchive(dir string, logger *slog.Logger) *Archive {
	return &Archive{root: dir, logger: logger}
}

// Write stores one payload. The payload is re-encoded as JSON; adapters hand
// over their typed batches, not response bodies, so the archive stays stable
// across provider format drift.
func (a *Archive) Write(league domain.League, source domain.Source, season, week int, capturedAt time.Time, payload any) {
	if a.root == "" {
		return
	}

	dir := filepath.Join(a.root, string(league), string(source),
		fmt.Sprintf("%04d", season), fmt.Sprintf("%02d", week))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.logger.Warn("archive mkdir failed", "dir", dir, "error", err)
		return
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		a.logger.Warn("archive encode failed", "source", source, "error", err)
		return
	}

	path := filepath.Join(dir, capturedAt.UTC().Format("20060102T150405Z")+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.logger.Warn("archive write failed", "path", path, "error", err)
	}
}
