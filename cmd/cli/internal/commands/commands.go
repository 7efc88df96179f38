package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wolfeidau/certenroll/internal/client"
)

type Globals struct {
	Debug   bool
	Version string
}

// ErrFileExists is returned instead of overwriting key material.
var ErrFileExists = errors.New("file already exists")

// ClientFlags locate the enrollment service.
type ClientFlags struct {
	Server   string        `help:"enrollment service URL" default:"http://localhost:8080" env:"CERTENROLL_URL"`
	Timeout  time.Duration `help:"request timeout, must exceed the server's issuance wait" default:"1m" env:"CERTENROLL_TIMEOUT"`
	CacheDir string        `help:"directory for cached responses (in memory when empty)" default:"" type:"path" env:"CERTENROLL_CACHE_DIR"`
}

func (f *ClientFlags) client() *client.Client {
	return client.New(client.Config{
		ServerURL: f.Server,
		Timeout:   f.Timeout,
		CacheDir:  f.CacheDir,
	})
}

// writeFile writes data to dir/name with perm, refusing to replace an
// existing file unless force is set.
func writeFile(dir, name string, data []byte, perm os.FileMode, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	p := filepath.Join(dir, name)

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(p, flags, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrFileExists, p)
		}
		return "", fmt.Errorf("failed to create %s: %w", p, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}

	return p, f.Close()
}
