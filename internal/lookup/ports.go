package lookup

import "context"

// Labeler resolves an opaque identity to a display label for report and
// export rendering. Implementations may hit a remote service; callers
// resolve lazily, once per distinct identity per render.
type Labeler interface {
	Label(ctx context.Context, identity string) (string, error)
}

// LabelerFunc adapts a function to the Labeler interface.
type LabelerFunc func(ctx context.Context, identity string) (string, error)

func (f LabelerFunc) Label(ctx context.Context, identity string) (string, error) {
	return f(ctx, identity)
}
