// Command hostgate runs the host-based HTTP reverse proxy.
package main

import "github.com/hostgate/hostgate/cmd/hostgate/cmd"

func main() {
	cmd.Execute()
}
