//go:build !windows

package route

import (
	"context"
	"net"
)

// dialIPC dials a local domain socket. On Unix, config-build time is
// expected to have produced a plain filesystem path with no prefix.
func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	d := net.Dialer{}
	return d.DialContext(ctx, "unix", path)
}
