// Package cmd is the CLI surface: a cobra root command plus a "serve"
// subcommand that wires every singleton and runs the HTTP/WS API server
// until interrupted. Grounded on the teacher's internal/cli/commands/root.go
// (RootCmd, RunWithExit panic recovery, isOrdinaryError classification,
// cobra.OnInitialize env-binding), generalized from a one-shot CLI tool
// invocation into a long-running server process.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sublarr/sublarr/internal/config"
)

// RootCmd is the base command when sublarr is invoked without arguments
// other than flags; "serve" is the only subcommand (spec has no CLI
// surface beyond "run the service").
var RootCmd = &cobra.Command{
	Use:   "sublarr",
	Short: "Subtitle acquisition and translation orchestrator",
	Long: `sublarr watches a media library, searches subtitle providers, and
translates or transcribes what it cannot find, keeping every video file's
subtitle set up to date the way Bazarr does for Sonarr/Radarr libraries.`,
}

func init() {
	if err := config.InitConfig(""); err != nil {
		fmt.Printf("warning: could not initialize config: %v\n", err)
	}
	RootCmd.AddCommand(serveCmd)
	cobra.OnInitialize(initEnv)
}

// initEnv binds the handful of environment variables that carry secrets
// rather than living in the config file, mirroring the teacher's
// SUBLARR_-prefixed equivalent of LANGKIT_*_API_KEY bindings.
func initEnv() {
	viper.SetEnvPrefix("SUBLARR")
	viper.AutomaticEnv()
}

// RunWithExit wraps a cobra RunE-shaped function with panic recovery and
// the ordinary-vs-critical error classification the teacher's root.go
// applies before deciding whether to exit loudly.
func RunWithExit(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		defer func() {
			if r := recover(); r != nil {
				exitOnError(fmt.Errorf("panic: %v", r))
			}
		}()
		if err := fn(ctx, cmd, args); err != nil {
			exitOnError(err)
		}
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	if isOrdinaryError(err) {
		color.Yellowf("Error: %v\n", err)
		os.Exit(1)
	}
	color.Redf("Fatal: %v\n", err)
	os.Exit(1)
}

// isOrdinaryError mirrors the teacher's classification of errors that
// don't warrant anything beyond a plain message: missing files, permission
// denials, and the network faults a misconfigured Sonarr/Radarr URL or an
// unreachable provider produces routinely.
func isOrdinaryError(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, os.ErrPermission) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || strings.Contains(err.Error(), "no such host") ||
			strings.Contains(err.Error(), "connection refused") ||
			strings.Contains(err.Error(), "network is unreachable")
	}
	if errors.Is(err, io.EOF) {
		return true
	}
	return false
}
