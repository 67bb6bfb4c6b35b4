package preset

import "errors"

// ErrMalformedFingerprint marks a preset entry missing a required field or
// holding a non-finite value. Per-entry; the batch continues as long as
// enough valid entries remain.
var ErrMalformedFingerprint = errors.New("malformed fingerprint entry")
