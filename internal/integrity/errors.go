package integrity

import "errors"

var (
	ErrDigest         = errors.New("digest computation failed")
	ErrDigestMismatch = errors.New("digest mismatch")
)
