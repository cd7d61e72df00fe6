// Copyright 2016 The Gogs Authors. All rights reserved.
// Copyright 2016 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/generate"

	"github.com/urfave/cli/v2"
)

// CmdGenerate represents the available generate sub-command.
func CmdGenerate(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Command line interface for running generators",
		Subcommands: []*cli.Command{
			{
				Name:   "secret",
				Usage:  "Generate a value for the [verification] SECRET setting",
				Action: func(c *cli.Context) error { return runGenerateSecret(ctx, c) },
			},
		},
	}
}

func runGenerateSecret(ctx context.Context, c *cli.Context) error {
	secret, err := generate.NewSecretKey()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ContextGetStdout(ctx), secret)
	return err
}
