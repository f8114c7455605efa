package campaign

import "errors"

// ErrIO reports a file system access failure (unreadable root, missing
// directory).
var ErrIO = errors.New("io error")
