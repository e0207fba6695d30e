package miniq

import (
	"errors"
	"net"
)

// isTimeoutErr reports whether err (or anything it wraps) is a network
// timeout, i.e. the result of the per-syscall socket_timeout elapsing
// rather than a hard I/O failure. Per spec.md section 5, the library
// loops past such errors until the overall recv_timeout budget is
// exhausted.
func isTimeoutErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
