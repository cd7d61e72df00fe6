// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"codeberg.org/forgeflux/starchart/models/store"

	"github.com/urfave/cli/v2"
)

func CmdExport(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Manage the federation export",
		Subcommands: []*cli.Command{
			{
				Name:   "bundle",
				Usage:  "Pack the export tree into a bundle",
				Action: func(c *cli.Context) error { return runExportBundle(ctx, c) },
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Rebuild the export tree from the store first",
					},
				},
			},
			{
				Name:   "rebuild",
				Usage:  "Write the export tree again from the store",
				Action: func(c *cli.Context) error { return runExportRebuild(ctx, c) },
			},
		},
	}
}

func runExportBundle(ctx context.Context, c *cli.Context) error {
	return withStore(ctx, func(ctx context.Context, s store.Store) error {
		service, err := newForgeService(ctx, s)
		if err != nil {
			return err
		}
		if c.Bool("rebuild") {
			if err := service.RebuildExport(ctx); err != nil {
				return err
			}
		}
		bundlePath, err := service.Bundle(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(ContextGetStdout(ctx), bundlePath)
		return err
	})
}

func runExportRebuild(ctx context.Context, c *cli.Context) error {
	return withStore(ctx, func(ctx context.Context, s store.Store) error {
		service, err := newForgeService(ctx, s)
		if err != nil {
			return err
		}
		return service.RebuildExport(ctx)
	})
}
