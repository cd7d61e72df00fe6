// Copyright 2014 The Gogs Authors. All rights reserved.
// Copyright 2017 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	// AppWorkPath is the directory relative paths in the config are resolved against
	AppWorkPath string
	// AppDataPath is the default home of the database and the federation tree
	AppDataPath string
	// CustomConf is the path of the loaded config file
	CustomConf string

	// CfgProvider is the provider the settings were loaded from
	CfgProvider ConfigProvider
)

func init() {
	if wd, err := os.Getwd(); err == nil {
		AppWorkPath = wd
	}
	AppDataPath = filepath.Join(AppWorkPath, "data")
}

// LoadFromFile reads the config file at path and loads every section
func LoadFromFile(path string) error {
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(AppWorkPath, path)
	}
	CustomConf = path
	cfg, err := NewConfigProviderFromFile(path)
	if err != nil {
		return err
	}
	return Load(cfg)
}

// Load loads every section from rootCfg into the package level settings
func Load(rootCfg ConfigProvider) error {
	CfgProvider = rootCfg

	sec := rootCfg.Section("server")
	AppDataPath = sec.Key("APP_DATA_PATH").MustString(filepath.Join(AppWorkPath, "data"))
	if !filepath.IsAbs(AppDataPath) {
		AppDataPath = filepath.Join(AppWorkPath, AppDataPath)
	}

	loadLogFrom(rootCfg)
	if err := loadDatabaseFrom(rootCfg); err != nil {
		return fmt.Errorf("[database]: %w", err)
	}
	if err := loadVerificationFrom(rootCfg); err != nil {
		return fmt.Errorf("[verification]: %w", err)
	}
	if err := loadFederationFrom(rootCfg); err != nil {
		return fmt.Errorf("[federation]: %w", err)
	}
	return nil
}
