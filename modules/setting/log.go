// Copyright 2023 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"codeberg.org/forgeflux/starchart/modules/log"
)

// Log holds the [log] section
var Log = struct {
	Level log.Level
	Mode  string
}{
	Level: log.INFO,
	Mode:  "console",
}

func loadLogFrom(rootCfg ConfigProvider) {
	sec := rootCfg.Section("log")
	Log.Level = log.LevelFromString(sec.Key("LEVEL").MustString("info"))
	Log.Mode = sec.Key("MODE").MustString("console")
}

// InitLogger replaces the global logger according to the [log] section
func InitLogger() error {
	logger, err := log.NewLogger(Log.Level, Log.Mode)
	if err != nil {
		return err
	}
	log.SetLogger(logger)
	return nil
}
