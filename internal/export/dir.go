package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DirExporter writes reports into a local directory.
type DirExporter struct {
	dir    string
	logger *zap.Logger
}

// NewDirExporter returns an exporter writing into dir. The directory is
// created on first export.
func NewDirExporter(dir string, logger *zap.Logger) *DirExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirExporter{dir: dir, logger: logger}
}

// Export writes body to <dir>/<name> and returns the file path.
func (e *DirExporter) Export(ctx context.Context, name string, body []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkName(name); err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", e.dir, err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}

	e.logger.Info("exported report",
		zap.String("op", "export.DirExporter.Export"),
		zap.String("path", path),
		zap.Int("bytes", len(body)),
	)
	return path, nil
}
