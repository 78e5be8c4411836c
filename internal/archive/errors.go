package archive

import "errors"

var (
	ErrArchive         = errors.New("archive operation failed")
	ErrUnsafeMember    = errors.New("unsafe archive member")
	ErrOversizedMember = errors.New("oversized archive member")
	ErrBundle          = errors.New("bundle creation failed")
)
