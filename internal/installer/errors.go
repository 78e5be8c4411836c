package installer

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	ErrInstall = errors.New("install failed")

	// Wrap errdefs classes so callers can use errdefs.IsAlreadyExists and
	// errdefs.IsNotFound without importing this package's sentinels.
	ErrAlreadyInstalled = fmt.Errorf("already installed: %w", errdefs.ErrAlreadyExists)
	ErrSourceNotFound   = fmt.Errorf("install source not found: %w", errdefs.ErrNotFound)

	ErrUnsupportedSurface = errors.New("unsupported install surface")
)
