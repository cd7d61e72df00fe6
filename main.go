// Copyright 2014 The Gogs Authors. All rights reserved.
// Copyright 2016 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"

	"codeberg.org/forgeflux/starchart/cmd"
	"codeberg.org/forgeflux/starchart/modules/log"
)

// Version is set by the build flags
var Version = "development"

func main() {
	ctx := context.Background()
	app := cmd.NewMainApp(ctx, Version)
	_ = cmd.RunMainApp(ctx, app, os.Args...) // errors are reported by RunMainApp
	log.Sync()
}
