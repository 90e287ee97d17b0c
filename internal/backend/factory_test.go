package backend

import (
	"context"
	"testing"

	"panen/internal/config"
	"panen/internal/export/excel"
	"panen/internal/export/memory"
)

func TestTypeIsValid(t *testing.T) {
	for _, tt := range []struct {
		typ   Type
		valid bool
	}{
		{ExcelBackend, true},
		{SheetsBackend, true},
		{MemoryBackend, true},
		{Type("csv"), false},
		{Type(""), false},
	} {
		if got := tt.typ.IsValid(); got != tt.valid {
			t.Errorf("Type(%q).IsValid() = %v, want %v", tt.typ, got, tt.valid)
		}
	}
}

func TestCreateWriter_Memory(t *testing.T) {
	factory := NewFactory(nil)
	writer, err := factory.CreateWriter(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateWriter: %v", err)
	}
	if _, ok := writer.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", writer)
	}
}

func TestCreateWriter_Excel(t *testing.T) {
	factory := NewFactory(nil)
	writer, err := factory.CreateWriter(context.Background(), Config{Type: ExcelBackend, ExportDir: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateWriter: %v", err)
	}
	if _, ok := writer.(*excel.Writer); !ok {
		t.Fatalf("expected *excel.Writer, got %T", writer)
	}
}

func TestCreateWriter_InvalidType(t *testing.T) {
	factory := NewFactory(nil)
	if _, err := factory.CreateWriter(context.Background(), Config{Type: "csv"}); err == nil {
		t.Fatal("expected error for unknown backend type")
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{ExportBackend: "excel", ExportDir: "/tmp/exports"}
	cfg := FromAppConfig(appCfg)
	if cfg.Type != ExcelBackend || cfg.ExportDir != "/tmp/exports" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
