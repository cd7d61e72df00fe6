// Copyright 2014 The Gogs Authors. All rights reserved.
// Copyright 2016 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"

	"codeberg.org/forgeflux/starchart/modules/log"
	"codeberg.org/forgeflux/starchart/modules/metrics"

	"github.com/urfave/cli/v2"
)

// DefaultConfigPath is read when --config is not given
const DefaultConfigPath = "custom/conf/app.ini"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   DefaultConfigPath,
			EnvVars: []string{"STARCHART_CONFIG"},
			Usage:   "Custom configuration file path",
		},
		&cli.StringFlag{
			Name:  "metrics-textfile",
			Usage: "Write the counters of this run to a prometheus textfile",
		},
	}
}

// NewMainApp returns the starchart command line application
func NewMainApp(ctx context.Context, version string) *cli.App {
	if ContextGetMetrics(ctx) == nil {
		ctx = ContextSetMetrics(ctx, metrics.New())
	}

	app := cli.NewApp()
	app.Name = "starchart"
	app.Usage = "Federated index of software forges"
	app.Description = `StarChart verifies the ownership of forge instances with a DNS challenge,
records their users and repositories and exports them for peer registries.`
	app.Version = version
	app.Flags = globalFlags()
	app.Writer = ContextGetStdout(ctx)
	app.ErrWriter = ContextGetStderr(ctx)
	app.Before = prepareConfig(ctx)
	app.After = writeMetrics(ctx)
	app.Commands = []*cli.Command{
		CmdMigrate(ctx),
		CmdChallenge(ctx),
		CmdForge(ctx),
		CmdExport(ctx),
		CmdGenerate(ctx),
	}
	return app
}

// RunMainApp runs app and reports errors on stderr
func RunMainApp(ctx context.Context, app *cli.App, args ...string) error {
	err := app.RunContext(ctx, args)
	if err == nil {
		return nil
	}
	fmt.Fprintf(ContextGetStderr(ctx), "Command error: %v\n", err)
	if ContextGetNoExit(ctx) {
		return err
	}
	log.Sync()
	os.Exit(1)
	return err
}
