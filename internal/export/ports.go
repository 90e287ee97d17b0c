package export

import (
	"context"

	"panen/internal/core"
)

// Ports for outbound export adapters.
type (
	// Writer persists a period export document somewhere (an xlsx file,
	// a remote spreadsheet, memory) and returns an opaque reference the
	// caller can hand back to the reporter.
	Writer interface {
		Write(ctx context.Context, doc core.Document) (ref string, err error)
	}
)
