package whatsapp

import (
	"context"

	"go.uber.org/zap"
)

// SnapshotSink persists named captures of the surface. Sinks must tolerate
// being called on every step; failures are logged and never surfaced.
type SnapshotSink interface {
	Snapshot(ctx context.Context, name string, png []byte) (string, error)
}

// Diagnostics captures the surface at named steps and hands the image to a
// sink. A nil sink disables capture.
type Diagnostics struct {
	surface Surface
	sink    SnapshotSink
	logger  *zap.Logger
}

func newDiagnostics(surface Surface, sink SnapshotSink, logger *zap.Logger) *Diagnostics {
	return &Diagnostics{surface: surface, sink: sink, logger: logger}
}

func (d *Diagnostics) Capture(ctx context.Context, name string) {
	if d == nil || d.sink == nil || d.surface == nil {
		return
	}
	png, err := d.surface.Screenshot(ctx)
	if err != nil {
		d.logger.Warn("screenshot failed", zap.String("step", name), zap.Error(err))
		return
	}
	path, err := d.sink.Snapshot(ctx, name, png)
	if err != nil {
		d.logger.Warn("snapshot not stored", zap.String("step", name), zap.Error(err))
		return
	}
	d.logger.Debug("snapshot stored", zap.String("step", name), zap.String("path", path))
}
