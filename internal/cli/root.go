// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package cli implements the livebox command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netascode/go-sysbus"
)

var Version = "dev"

var Commit = "none"

var Date = "unknown"

// Configuration keys, shared by flags, environment (LIVEBOX_*) and config file
const (
	keyBaseURL  = "base-url"
	keyUsername = "username"
	keyPassword = "password"
	keyInsecure = "insecure"
	keyQuery    = "query"
	keyRaw      = "raw"
	keyLogLevel = "log-level"
)

// app carries the state of one invocation
type app struct {
	v       *viper.Viper
	cfgFile string
	out     io.Writer
	errOut  io.Writer
}

// NewRootCommand builds the livebox command tree writing results to out and
// logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "livebox",
		Short:         "livebox: query and configure a Livebox gateway through its sysbus API",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default livebox.yaml in ., $HOME/.livebox, /etc/livebox)")
	flags.String(keyBaseURL, sysbus.DefaultBaseURL, "Livebox base url")
	flags.StringP(keyUsername, "u", sysbus.DefaultUsername, "Livebox administration username")
	flags.StringP(keyPassword, "p", "", "Livebox administration password")
	flags.BoolP(keyInsecure, "k", false, "skip TLS certificate verification")
	flags.StringP(keyQuery, "q", "", "JSONPath expression to filter output (ex: $.data.IPAddress)")
	flags.BoolP(keyRaw, "r", false, "output raw strings, not JSON text")
	flags.String(keyLogLevel, "warn", "log level: debug, info, warn, error, disabled")

	for _, key := range []string{keyBaseURL, keyUsername, keyPassword, keyInsecure, keyQuery, keyRaw, keyLogLevel} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(newExecCommand(a), newNatCommand(a))
	return root
}

func (a *app) initConfig() error {
	a.v.SetEnvPrefix("LIVEBOX")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
		return nil
	}

	a.v.SetConfigName("livebox")
	a.v.AddConfigPath(".")
	if home, _ := os.UserHomeDir(); home != "" {
		a.v.AddConfigPath(filepath.Join(home, ".livebox"))
	}
	a.v.AddConfigPath("/etc/livebox")

	var notFound viper.ConfigFileNotFoundError
	if err := a.v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
