package bundle

import "errors"

var ErrBuild = errors.New("bundle build failed")
