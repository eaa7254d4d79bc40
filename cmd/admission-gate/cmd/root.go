// Package cmd provides the CLI commands for Admission Gate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Admission-Gate/Admissiongate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "admission-gate",
	Short: "Admission Gate - request admission and egress safety layer",
	Long: `Admission Gate sits in front of an HTTP application and decides, per
request, whether it may proceed: fixed-window rate limits per client
address, route, and authenticated user, plus an SSRF guard that rejects
requests carrying outbound URLs pointing anywhere but the allow-list.

Quick start:
  1. Create a config file: admission-gate.yaml
  2. Run: admission-gate start

Configuration:
  Config is loaded from admission-gate.yaml in the current directory,
  $HOME/.admission-gate/, or /etc/admission-gate/.

  Environment variables can override config values with the ADMISSION_GATE_ prefix.
  Example: ADMISSION_GATE_SERVER_HTTP_ADDR=:9090

Commands:
  start       Start the gate server
  stop        Stop the running server
  hash-key    Generate SHA256 hash for an admin API key
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./admission-gate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
