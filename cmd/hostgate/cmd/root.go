// Package cmd provides the CLI commands for hostgate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hostgate/hostgate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hostgate",
	Short: "hostgate - host-based HTTP reverse proxy",
	Long: `hostgate is a host-based HTTP reverse proxy.

It accepts connections, resolves a backend from the inbound Host header (or
a CEL condition), and relays traffic while running a configurable chain of
request/response interceptors.

Quick start:
  1. Create a config file: hostgate.yaml
  2. Run: hostgate start

Configuration:
  Config is loaded from hostgate.yaml in the current directory,
  $HOME/.hostgate/, or /etc/hostgate/.

  Environment variables can override config values with the HOSTGATE_ prefix.
  Example: HOSTGATE_SERVER_LISTEN_ADDR=:9090

Commands:
  start       Start the proxy server
  stop        Stop the running server
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./hostgate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
