package backend

import (
	"context"
	"fmt"
	"log/slog"

	"panen/internal/export"
	"panen/internal/export/excel"
	gexport "panen/internal/export/google"
	"panen/internal/export/memory"
)

// Factory creates export writers from configuration.
type Factory interface {
	CreateWriter(ctx context.Context, config Config) (export.Writer, error)
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateWriter implements Factory.CreateWriter
func (f *DefaultFactory) CreateWriter(ctx context.Context, config Config) (export.Writer, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SheetsBackend:
		cli, err := gexport.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets export backend")
		return cli, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory export backend")
		return memory.New(), nil

	default:
		f.logger.Info("Initialized excel export backend", "export_dir", config.ExportDir)
		return excel.NewWriter(config.ExportDir), nil
	}
}
