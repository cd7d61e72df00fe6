// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package store is the persistence boundary of the registry: forge
// instances, their users and repositories, and ownership challenges.
package store

import (
	"context"

	"codeberg.org/forgeflux/starchart/models/challenge"
	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/optional"
	"codeberg.org/forgeflux/starchart/modules/setting"
)

// CreateForge holds the fields of a forge instance to register
type CreateForge struct {
	Hostname  string
	ForgeType forge.Type
}

// AddUser holds the fields of a spidered user
type AddUser struct {
	Hostname     string
	Username     string
	HTMLLink     string
	ProfilePhoto optional.Option[string]
}

// AddRepository holds the fields of a spidered repository
type AddRepository struct {
	Hostname    string
	Owner       string
	Name        string
	HTMLLink    string
	Tags        []string
	Website     optional.Option[string]
	Description optional.Option[string]
}

// Store is implemented by every persistence backend. Hostnames are accepted
// in any form hostname.Normalize understands. All methods are safe for
// concurrent use.
type Store interface {
	// InitializeStore creates or migrates the schema and seeds the forge type
	// registry. It is safe to call on every start.
	InitializeStore(ctx context.Context) error

	CreateForgeInstance(ctx context.Context, f *CreateForge) error
	ForgeExists(ctx context.Context, host string) (bool, error)
	ForgeTypeExists(ctx context.Context, forgeType forge.Type) (bool, error)
	GetForgeInstance(ctx context.Context, host string) (*forge.Instance, error)
	ListForgeInstances(ctx context.Context) ([]*forge.Instance, error)
	// DeleteForgeInstance removes the instance with its users and repositories
	DeleteForgeInstance(ctx context.Context, host string) error

	AddUser(ctx context.Context, u *AddUser) error
	// UserExists searches every forge when host is None
	UserExists(ctx context.Context, username string, host optional.Option[string]) (bool, error)
	ListUsers(ctx context.Context, host string) ([]*user_model.User, error)
	// DeleteUser removes the user with its repositories
	DeleteUser(ctx context.Context, username, host string) error

	CreateRepository(ctx context.Context, r *AddRepository) error
	RepositoryExists(ctx context.Context, name, owner, host string) (bool, error)
	ListRepositories(ctx context.Context, host string) ([]*repo_model.Repository, error)
	DeleteRepository(ctx context.Context, owner, name, host string) error

	CreateDNSChallenge(ctx context.Context, c *challenge.DNSChallenge) error
	DNSChallengeExists(ctx context.Context, key string) (bool, error)
	GetDNSChallenge(ctx context.Context, key string) (*challenge.DNSChallenge, error)
	// GetDNSChallengeByHostname finds the one challenge a hostname may hold
	GetDNSChallengeByHostname(ctx context.Context, host string) (*challenge.DNSChallenge, error)
	// DeleteDNSChallenge succeeds when no challenge is stored under key
	DeleteDNSChallenge(ctx context.Context, key string) error

	Close() error
}

// New opens the store selected by the [database] settings
func New(ctx context.Context, cfg setting.DatabaseSettings) (Store, error) {
	if cfg.Type.IsBolt() {
		return NewBoltStore(cfg.Path)
	}

	if err := db.InitEngine(ctx); err != nil {
		return nil, db.Fault("open", err)
	}
	s := NewXormStore()
	s.ownsEngine = true
	return s, nil
}

func newForge(f *CreateForge) (*forge.Instance, error) {
	host, err := hostname.Normalize(f.Hostname)
	if err != nil {
		return nil, err
	}
	return forge.NewInstance(host, f.ForgeType)
}

func newUser(u *AddUser) (*user_model.User, error) {
	host, err := hostname.Normalize(u.Hostname)
	if err != nil {
		return nil, err
	}
	return user_model.NewUser(host, u.Username, u.HTMLLink, u.ProfilePhoto)
}

func newRepository(r *AddRepository) (*repo_model.Repository, error) {
	host, err := hostname.Normalize(r.Hostname)
	if err != nil {
		return nil, err
	}
	return repo_model.NewRepository(host, r.Owner, r.Name, r.HTMLLink, r.Website, r.Description, r.Tags)
}

func normalizeChallenge(c *challenge.DNSChallenge) (*challenge.DNSChallenge, error) {
	host, err := hostname.Normalize(c.Hostname)
	if err != nil {
		return nil, err
	}
	return &challenge.DNSChallenge{Key: c.Key, Value: c.Value, Hostname: host}, nil
}

func normalizeOptionalHost(host optional.Option[string]) (optional.Option[string], error) {
	if !host.Has() {
		return host, nil
	}
	normalized, err := hostname.Normalize(host.Value())
	if err != nil {
		return nil, err
	}
	return optional.Some(normalized), nil
}

