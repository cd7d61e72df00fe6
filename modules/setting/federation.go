// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"fmt"
	"path/filepath"

	"codeberg.org/forgeflux/starchart/modules/util"
)

// Federation holds the [federation] section
var Federation = struct {
	Dir        string
	BundlePath string
}{}

func loadFederationFrom(rootCfg ConfigProvider) error {
	sec := rootCfg.Section("federation")
	Federation.Dir = sec.Key("DIR").MustString(filepath.Join(AppDataPath, "federation"))
	if !filepath.IsAbs(Federation.Dir) {
		Federation.Dir = filepath.Join(AppWorkPath, Federation.Dir)
	}
	Federation.BundlePath = sec.Key("BUNDLE_PATH").MustString(filepath.Join(AppDataPath, "federation.tar.gz"))
	if !filepath.IsAbs(Federation.BundlePath) {
		Federation.BundlePath = filepath.Join(AppWorkPath, Federation.BundlePath)
	}
	if util.IsPathWithin(Federation.Dir, Federation.BundlePath) {
		return fmt.Errorf("BUNDLE_PATH %s must not be inside DIR %s", Federation.BundlePath, Federation.Dir)
	}
	return nil
}
