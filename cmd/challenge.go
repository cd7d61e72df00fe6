// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"codeberg.org/forgeflux/starchart/models/challenge"
	"codeberg.org/forgeflux/starchart/models/forge"
	"codeberg.org/forgeflux/starchart/models/store"
	"codeberg.org/forgeflux/starchart/services/verification"

	"github.com/urfave/cli/v2"
)

func CmdChallenge(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "challenge",
		Usage: "Prove the ownership of a forge with a DNS TXT record",
		Subcommands: []*cli.Command{
			{
				Name:      "request",
				Usage:     "Issue the challenge of a forge, or show the one already issued",
				ArgsUsage: "<forge url>",
				Action:    func(c *cli.Context) error { return runChallengeRequest(ctx, c) },
			},
			{
				Name:      "show",
				Usage:     "Show the issued challenge of a forge",
				ArgsUsage: "<forge url>",
				Action:    func(c *cli.Context) error { return runChallengeShow(ctx, c) },
			},
			{
				Name:      "verify",
				Usage:     "Check the TXT record of a forge and register the forge",
				ArgsUsage: "<forge url>",
				Action:    func(c *cli.Context) error { return runChallengeVerify(ctx, c) },
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Value: "",
						Usage: "Forge type of the instance",
					},
					&cli.StringFlag{
						Name:  "nodeinfo",
						Usage: "Path to the NodeInfo document of the instance, used to derive the forge type",
					},
				},
			},
			{
				Name:      "abandon",
				Usage:     "Delete the challenge of a forge",
				ArgsUsage: "<forge url>",
				Action:    func(c *cli.Context) error { return runChallengeAbandon(ctx, c) },
			},
		},
	}
}

// withVerification runs fn with a verification service registering forges
// through the forge service
func withVerification(ctx context.Context, fn func(ctx context.Context, service *verification.Service) error) error {
	return withStore(ctx, func(ctx context.Context, s store.Store) error {
		forgeService, err := newForgeService(ctx, s)
		if err != nil {
			return err
		}
		service, err := newVerificationService(ctx, s, forgeService)
		if err != nil {
			return err
		}
		return fn(ctx, service)
	})
}

func printChallenge(ctx context.Context, service *verification.Service, c *challenge.DNSChallenge) error {
	_, err := fmt.Fprintf(ContextGetStdout(ctx), "Publish a TXT record for %s\n  name:  %s\n  value: %s\n",
		c.Hostname, service.RecordName(c.Hostname), c.Value)
	return err
}

func runChallengeRequest(ctx context.Context, c *cli.Context) error {
	rawURL, err := urlArg(c)
	if err != nil {
		return err
	}
	return withVerification(ctx, func(ctx context.Context, service *verification.Service) error {
		issued, err := service.Request(ctx, rawURL)
		if err != nil {
			return err
		}
		return printChallenge(ctx, service, issued)
	})
}

func runChallengeShow(ctx context.Context, c *cli.Context) error {
	rawURL, err := urlArg(c)
	if err != nil {
		return err
	}
	return withVerification(ctx, func(ctx context.Context, service *verification.Service) error {
		issued, err := service.Show(ctx, rawURL)
		if challenge.IsErrChallengeNotExist(err) {
			return fmt.Errorf("no challenge was requested for %s", rawURL)
		} else if err != nil {
			return err
		}
		return printChallenge(ctx, service, issued)
	})
}

func forgeTypeFromFlags(c *cli.Context) (forge.Type, error) {
	if c.IsSet("type") && c.IsSet("nodeinfo") {
		return "", errors.New("--type and --nodeinfo are mutually exclusive")
	}
	if path := c.String("nodeinfo"); path != "" {
		body, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return forge.TypeFromNodeInfo(body)
	}
	forgeType := forge.Type(c.String("type"))
	if forgeType == "" {
		forgeType = forge.TypeGitea
	}
	if !forgeType.IsKnown() {
		return "", fmt.Errorf("unsupported forge type %q", forgeType)
	}
	return forgeType, nil
}

func runChallengeVerify(ctx context.Context, c *cli.Context) error {
	rawURL, err := urlArg(c)
	if err != nil {
		return err
	}
	forgeType, err := forgeTypeFromFlags(c)
	if err != nil {
		return err
	}
	return withVerification(ctx, func(ctx context.Context, service *verification.Service) error {
		if err := service.Verify(ctx, rawURL, forgeType); err != nil {
			return err
		}
		_, err := fmt.Fprintf(ContextGetStdout(ctx), "Verified %s, registered as %s forge\n", rawURL, forgeType)
		return err
	})
}

func runChallengeAbandon(ctx context.Context, c *cli.Context) error {
	rawURL, err := urlArg(c)
	if err != nil {
		return err
	}
	return withVerification(ctx, func(ctx context.Context, service *verification.Service) error {
		return service.Abandon(ctx, rawURL)
	})
}
