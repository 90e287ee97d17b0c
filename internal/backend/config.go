package backend

import "panen/internal/config"

// Type identifies an export backend.
type Type string

const (
	ExcelBackend  Type = "excel"
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case ExcelBackend, SheetsBackend, MemoryBackend:
		return true
	}
	return false
}

// Config holds the settings a backend needs at construction time.
type Config struct {
	Type Type

	// ExportDir is where the excel backend writes xlsx files.
	ExportDir string
}

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(appConfig *config.Config) Config {
	return Config{
		Type:      Type(appConfig.ExportBackend),
		ExportDir: appConfig.ExportDir,
	}
}
