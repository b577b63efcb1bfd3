package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const SnapshotDir = "debug_screenshots"

// Snapshots stores surface captures as PNG files named after the step that
// took them. When a Recorder is attached each capture is also noted in the
// current trace.
type Snapshots struct {
	dir   string
	trace *Recorder
	now   func() time.Time
}

func NewSnapshots(dir string, trace *Recorder) (*Snapshots, error) {
	if dir == "" {
		dir = SnapshotDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Snapshots{dir: dir, trace: trace, now: time.Now}, nil
}

// Snapshot writes png as <name>_<YYYYMMDD_HHMMSS>.png. The file is written
// under a temporary name and renamed so readers never see a partial image.
func (s *Snapshots) Snapshot(_ context.Context, name string, png []byte) (string, error) {
	name = sanitizeName(name)
	final := filepath.Join(s.dir, fmt.Sprintf("%s_%s.png", name, s.now().Format("20060102_150405")))
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	s.trace.Log("snapshot", map[string]string{"step": name, "path": final})
	return final, nil
}

func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
	if name == "" {
		return "snapshot"
	}
	return name
}
