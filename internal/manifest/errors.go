package manifest

import "errors"

var (
	ErrInvalidRunner   = errors.New("invalid runner specification")
	ErrInvalidManifest = errors.New("invalid bundle manifest")
	ErrInvalidRecord   = errors.New("invalid install record")
)
