package extract

import "errors"

// ErrDecode marks a source that cannot be analyzed: empty, silent, or too
// short to frame. Per-source and non-fatal to a batch; callers record the
// failure and continue.
var ErrDecode = errors.New("source not analyzable")
