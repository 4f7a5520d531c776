// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/netascode/go-sysbus"
)

// zerologLogger adapts a zerolog.Logger to sysbus.Logger
type zerologLogger struct {
	logger zerolog.Logger
}

// newLogger returns a console logger writing to w at the given level.
// An empty level means warn.
func newLogger(w io.Writer, level string) (sysbus.Logger, error) {
	lvl := zerolog.WarnLevel
	if level = strings.ToLower(strings.TrimSpace(level)); level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    true,
	}
	return &zerologLogger{
		logger: zerolog.New(output).Level(lvl).With().Timestamp().Logger(),
	}, nil
}

func (z *zerologLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	z.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (z *zerologLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	z.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (z *zerologLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	z.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (z *zerologLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	z.logger.Error().Fields(keysAndValues).Msg(msg)
}
