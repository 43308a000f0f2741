package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/discochess/lazio"
	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/remote"
)

// localFS returns a filesystem rooted at the directory holding name, and
// name's base within it.
func localFS(name string) (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, "", fmt.Errorf("resolving %s: %w", name, err)
	}
	return osfs.New(filepath.Dir(abs)), filepath.Base(abs), nil
}

// openHandle opens name as a foreign object. Remote URLs are read-only.
// The returned handle closes the file when released.
func openHandle(ctx context.Context, engine *lazio.Engine, name string, flag int) (*foreign.Handle, error) {
	if remote.IsURL(name) {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, fmt.Errorf("%s: remote streams are read-only", name)
		}
		return engine.OpenRemote(ctx, name)
	}

	fs, base, err := localFS(name)
	if err != nil {
		return nil, err
	}
	f, err := fs.OpenFile(base, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return engine.NewHandle(foreign.Wrap(f), foreign.OnRelease(f.Close)), nil
}

func readLocal(name string) ([]byte, error) {
	fs, base, err := localFS(name)
	if err != nil {
		return nil, err
	}
	data, err := util.ReadFile(fs, base)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func writeLocal(name string, data []byte) error {
	fs, base, err := localFS(name)
	if err != nil {
		return err
	}
	if err := util.WriteFile(fs, base, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
