// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"codeberg.org/forgeflux/starchart/models/store"

	"github.com/urfave/cli/v2"
)

func CmdForge(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "forge",
		Usage: "Manage registered forges",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered forges",
				Action: func(c *cli.Context) error { return runForgeList(ctx, c) },
			},
			{
				Name:      "delete",
				Usage:     "Remove a forge with its users and repositories",
				ArgsUsage: "<forge url>",
				Action:    func(c *cli.Context) error { return runForgeDelete(ctx, c) },
			},
		},
	}
}

func runForgeList(ctx context.Context, c *cli.Context) error {
	return withStore(ctx, func(ctx context.Context, s store.Store) error {
		instances, err := s.ListForgeInstances(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(ContextGetStdout(ctx), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "HOSTNAME\tTYPE\tCREATED")
		for _, instance := range instances {
			fmt.Fprintf(w, "%s\t%s\t%s\n", instance.Hostname, instance.ForgeType, instance.Created.Format("2006-01-02"))
		}
		return w.Flush()
	})
}

func runForgeDelete(ctx context.Context, c *cli.Context) error {
	rawURL, err := urlArg(c)
	if err != nil {
		return err
	}
	return withStore(ctx, func(ctx context.Context, s store.Store) error {
		service, err := newForgeService(ctx, s)
		if err != nil {
			return err
		}
		return service.DeleteForgeInstance(ctx, rawURL)
	})
}
