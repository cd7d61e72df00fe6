// Copyright The Forgejo Authors.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/forgeflux/starchart/models/store"
	"codeberg.org/forgeflux/starchart/modules/log"
	"codeberg.org/forgeflux/starchart/modules/metrics"
	"codeberg.org/forgeflux/starchart/modules/setting"
	"codeberg.org/forgeflux/starchart/services/federate"
	forge_service "codeberg.org/forgeflux/starchart/services/forge"
	"codeberg.org/forgeflux/starchart/services/verification"

	"github.com/urfave/cli/v2"
)

type key int

const (
	noExitKey key = iota + 1
	stdoutKey
	stderrKey
	metricsKey
	resolverKey
)

func ContextSetNoExit(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, noExitKey, value)
}

func ContextGetNoExit(ctx context.Context) bool {
	value, ok := ctx.Value(noExitKey).(bool)
	return ok && value
}

func ContextSetStderr(ctx context.Context, value io.Writer) context.Context {
	return context.WithValue(ctx, stderrKey, value)
}

func ContextGetStderr(ctx context.Context) io.Writer {
	value, ok := ctx.Value(stderrKey).(io.Writer)
	if !ok {
		return os.Stderr
	}
	return value
}

func ContextSetStdout(ctx context.Context, value io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey, value)
}

func ContextGetStdout(ctx context.Context) io.Writer {
	value, ok := ctx.Value(stdoutKey).(io.Writer)
	if !ok {
		return os.Stdout
	}
	return value
}

func ContextSetMetrics(ctx context.Context, value *metrics.Metrics) context.Context {
	return context.WithValue(ctx, metricsKey, value)
}

func ContextGetMetrics(ctx context.Context) *metrics.Metrics {
	value, _ := ctx.Value(metricsKey).(*metrics.Metrics)
	return value
}

// ContextSetResolver replaces the system resolver used to look up challenges
func ContextSetResolver(ctx context.Context, value verification.Resolver) context.Context {
	return context.WithValue(ctx, resolverKey, value)
}

func ContextGetResolver(ctx context.Context) verification.Resolver {
	value, _ := ctx.Value(resolverKey).(verification.Resolver)
	return value
}

func installSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		signalChannel := make(chan os.Signal, 1)

		signal.Notify(
			signalChannel,
			syscall.SIGINT,
			syscall.SIGTERM,
		)
		select {
		case <-signalChannel:
		case <-ctx.Done():
		}
		cancel()
		signal.Reset()
	}()

	return ctx, cancel
}

func prepareConfig(ctx context.Context) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		if err := setting.LoadFromFile(c.String("config")); err != nil {
			return fmt.Errorf("unable to load the configuration in %q: %w", c.String("config"), err)
		}
		return setting.InitLogger()
	}
}

func writeMetrics(ctx context.Context) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		log.Sync()
		path := c.String("metrics-textfile")
		if path == "" {
			return nil
		}
		return ContextGetMetrics(ctx).WriteTextfile(path)
	}
}

// initStore opens and initializes the store configured in [database]
func initStore(ctx context.Context) (store.Store, error) {
	s, err := store.New(ctx, setting.Database)
	if err != nil {
		return nil, fmt.Errorf("unable to open the %s store using the configuration in %q: %w", setting.Database.Type, setting.CustomConf, err)
	}
	if err := s.InitializeStore(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newForgeService(ctx context.Context, s store.Store) (*forge_service.Service, error) {
	exporter, err := federate.NewExporter(setting.Federation.Dir, setting.Federation.BundlePath)
	if err != nil {
		return nil, err
	}
	return forge_service.NewService(s, exporter, ContextGetMetrics(ctx)), nil
}

func newVerificationService(ctx context.Context, s store.Store, registrar verification.Registrar) (*verification.Service, error) {
	if setting.Verification.Secret == "" {
		return nil, errors.New("[verification] SECRET is not set")
	}
	return verification.NewService(s, registrar, verification.Options{
		Secret:         setting.Verification.Secret,
		TXTLabel:       setting.Verification.TXTLabel,
		DeleteOnVerify: setting.Verification.DeleteChallengeOnVerify,
		Resolver:       ContextGetResolver(ctx),
		Metrics:        ContextGetMetrics(ctx),
	})
}

// withStore runs fn on an initialized store and closes it afterwards
func withStore(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	ctx, cancel := installSignals(ctx)
	defer cancel()

	s, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

func urlArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one forge URL, got %d arguments", c.NArg())
	}
	return c.Args().First(), nil
}
