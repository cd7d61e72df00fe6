// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"codeberg.org/forgeflux/starchart/models/forge"
	"codeberg.org/forgeflux/starchart/models/store"
	"codeberg.org/forgeflux/starchart/modules/log"

	"github.com/urfave/cli/v2"
)

// CmdMigrate represents the available migrate sub-command.
func CmdMigrate(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Migrate the database",
		Description: "Creates or upgrades the schema and registers the supported forge types. Safe to run on every start.",
		Action:      func(c *cli.Context) error { return runMigrate(ctx, c) },
	}
}

func runMigrate(ctx context.Context, c *cli.Context) error {
	return withStore(ctx, func(ctx context.Context, s store.Store) error {
		for _, forgeType := range forge.KnownTypes {
			exist, err := s.ForgeTypeExists(ctx, forgeType)
			if err != nil {
				return err
			}
			if !exist {
				return fmt.Errorf("forge type %s was not registered", forgeType)
			}
		}
		log.Info("Store is up to date")
		_, err := fmt.Fprintf(ContextGetStdout(ctx), "Store ready, %d forge types registered\n", len(forge.KnownTypes))
		return err
	})
}
