package export

import "errors"

// ErrOutputExists indicates the output file already exists.
var ErrOutputExists = errors.New("output file already exists")
