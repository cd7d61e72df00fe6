// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package federate

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/log"
	"codeberg.org/forgeflux/starchart/modules/util"

	"gopkg.in/yaml.v3"
)

// Exporter writes the export tree below a root directory
type Exporter struct {
	root       string
	bundlePath string
}

var _ Federate = &Exporter{}

// NewExporter returns an exporter rooted at root. Bundles are written to
// bundlePath, which must lie outside of root.
func NewExporter(root, bundlePath string) (*Exporter, error) {
	if util.IsPathWithin(root, bundlePath) {
		return nil, util.NewInvalidArgumentErrorf("bundle path %s is inside the export tree %s", bundlePath, root)
	}
	e := &Exporter{root: root, bundlePath: bundlePath}
	if err := e.CreateDirIfNotExists(root); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Exporter) Root() string {
	return e.root
}

func (e *Exporter) CreateDirIfNotExists(path string) error {
	return ioFault("mkdir", path, os.MkdirAll(path, 0o755))
}

func (e *Exporter) RemovePath(path string) error {
	err := os.RemoveAll(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return ioFault("remove", path, err)
}

// hostDir is <root>/<scheme>/<host>, so http and https forges on the same
// host never share a directory
func (e *Exporter) hostDir(host string) string {
	return filepath.Join(e.root, hostname.Scheme(host), hostname.Host(host))
}

func (e *Exporter) userPath(username, host string) string {
	return filepath.Join(e.hostDir(host), usersDir, username+documentExt)
}

func (e *Exporter) ownerDir(owner, host string) string {
	return filepath.Join(e.hostDir(host), repositoriesDir, owner)
}

func (e *Exporter) repositoryPath(owner, name, host string) string {
	return filepath.Join(e.ownerDir(owner, host), name+documentExt)
}

func (e *Exporter) writeDocument(path string, v any) error {
	if err := e.CreateDirIfNotExists(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return ioFault("encode", path, err)
	}
	return ioFault("write", path, os.WriteFile(path, data, 0o644))
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	} else if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, ioFault("stat", path, err)
}

func (e *Exporter) CreateForgeInstance(ctx context.Context, instance *forge.Instance) error {
	path := filepath.Join(e.hostDir(instance.Hostname), instanceFile)
	if err := e.writeDocument(path, instanceDocument(instance)); err != nil {
		return err
	}
	log.Trace("Exported forge %s", instance.Hostname)
	return nil
}

func (e *Exporter) DeleteForgeInstance(ctx context.Context, host string) error {
	return e.RemovePath(e.hostDir(host))
}

func (e *Exporter) ForgeExists(ctx context.Context, host string) (bool, error) {
	return exists(filepath.Join(e.hostDir(host), instanceFile))
}

func (e *Exporter) CreateUser(ctx context.Context, u *user_model.User) error {
	return e.writeDocument(e.userPath(u.Username, u.Hostname), userDocument(u))
}

func (e *Exporter) UserExists(ctx context.Context, username, host string) (bool, error) {
	return exists(e.userPath(username, host))
}

func (e *Exporter) DeleteUser(ctx context.Context, username, host string) error {
	if err := e.RemovePath(e.ownerDir(username, host)); err != nil {
		return err
	}
	return e.RemovePath(e.userPath(username, host))
}

func (e *Exporter) CreateRepository(ctx context.Context, r *repo_model.Repository) error {
	return e.writeDocument(e.repositoryPath(r.Owner, r.Name, r.Hostname), repositoryDocument(r))
}

func (e *Exporter) RepositoryExists(ctx context.Context, name, owner, host string) (bool, error) {
	return exists(e.repositoryPath(owner, name, host))
}

func (e *Exporter) DeleteRepository(ctx context.Context, owner, name, host string) error {
	return e.RemovePath(e.repositoryPath(owner, name, host))
}
