//go:build windows

package route

import (
	"context"
	"net"
	"os"

	"golang.org/x/sys/windows"
)

// dialIPC opens a Windows named pipe, expected to already carry the
// \\.\pipe\ prefix baked in at config-build time, and wraps it as a
// net.Conn via os.NewFile so the rest of the proxy never special-cases the
// platform.
func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	handle, err := windows.CreateFile(
		p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OVERLAPPED,
		0,
	)
	if err != nil {
		return nil, err
	}
	f := os.NewFile(uintptr(handle), path)
	conn, err := net.FileConn(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return conn, nil
}
