// Package export delivers rendered reports to a directory or an object
// store bucket.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/config"
	"github.com/iwvelando/invoice-roi/pkg/constants"
)

// Exporter stores a rendered report under name and returns where it can be
// fetched from.
type Exporter interface {
	Export(ctx context.Context, name string, body []byte, contentType string) (string, error)
}

// New returns the exporter selected by cfg. It returns a nil Exporter when
// exporting is disabled.
func New(ctx context.Context, cfg config.ExportConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case "", constants.ExportBackendNone:
		return nil, nil
	case constants.ExportBackendDir:
		return NewDirExporter(cfg.Dir, logger), nil
	case constants.ExportBackendMinio:
		e, err := NewMinioExporter(cfg.Minio, logger)
		if err != nil {
			return nil, err
		}
		if err := e.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported export backend %q", cfg.Backend)
	}
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid report name %q", name)
	}
	return nil
}
