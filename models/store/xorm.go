// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"codeberg.org/forgeflux/starchart/models/challenge"
	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/forge"
	"codeberg.org/forgeflux/starchart/models/migrations"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/log"
	"codeberg.org/forgeflux/starchart/modules/optional"
)

// XormStore keeps the registry in the SQL database of the process wide xorm engine
type XormStore struct {
	ownsEngine bool
}

var _ Store = &XormStore{}

// NewXormStore returns a store on the engine set up by db.InitEngine
func NewXormStore() *XormStore {
	return &XormStore{}
}

func (s *XormStore) InitializeStore(ctx context.Context) error {
	if err := db.MigrateEngine(ctx, migrations.MigrateAndCheck); err != nil {
		return db.Fault("initialize", err)
	}
	log.Debug("Store initialized, %d forge types registered", len(forge.KnownTypes))
	return nil
}

func (s *XormStore) CreateForgeInstance(ctx context.Context, f *CreateForge) error {
	instance, err := newForge(f)
	if err != nil {
		return err
	}
	return db.Fault("create forge", forge.CreateInstance(ctx, instance))
}

func (s *XormStore) ForgeExists(ctx context.Context, host string) (bool, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return false, err
	}
	exist, err := forge.InstanceExists(ctx, host)
	return exist, db.Fault("forge exists", err)
}

func (s *XormStore) ForgeTypeExists(ctx context.Context, forgeType forge.Type) (bool, error) {
	exist, err := forge.TypeExists(ctx, forgeType)
	return exist, db.Fault("forge type exists", err)
}

func (s *XormStore) GetForgeInstance(ctx context.Context, host string) (*forge.Instance, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	instance, err := forge.GetInstance(ctx, host)
	return instance, db.Fault("get forge", err)
}

func (s *XormStore) ListForgeInstances(ctx context.Context) ([]*forge.Instance, error) {
	instances, err := forge.ListInstances(ctx)
	return instances, db.Fault("list forges", err)
}

func (s *XormStore) DeleteForgeInstance(ctx context.Context, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	return db.Fault("delete forge", db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := forge.GetInstance(ctx, host); err != nil {
			return err
		}
		if err := repo_model.DeleteRepositoriesByHostname(ctx, host); err != nil {
			return err
		}
		if _, err := user_model.DeleteUsersByHostname(ctx, host); err != nil {
			return err
		}
		return forge.DeleteInstance(ctx, host)
	}))
}

func (s *XormStore) AddUser(ctx context.Context, u *AddUser) error {
	user, err := newUser(u)
	if err != nil {
		return err
	}
	return db.Fault("add user", user_model.CreateUser(ctx, user))
}

func (s *XormStore) UserExists(ctx context.Context, username string, host optional.Option[string]) (bool, error) {
	host, err := normalizeOptionalHost(host)
	if err != nil {
		return false, err
	}
	exist, err := user_model.UserExists(ctx, username, host)
	return exist, db.Fault("user exists", err)
}

func (s *XormStore) ListUsers(ctx context.Context, host string) ([]*user_model.User, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	users, err := user_model.ListUsers(ctx, host)
	return users, db.Fault("list users", err)
}

func (s *XormStore) DeleteUser(ctx context.Context, username, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	return db.Fault("delete user", db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := user_model.GetUser(ctx, username, host); err != nil {
			return err
		}
		if err := repo_model.DeleteRepositoriesByOwner(ctx, username, host); err != nil {
			return err
		}
		return user_model.DeleteUser(ctx, username, host)
	}))
}

func (s *XormStore) CreateRepository(ctx context.Context, r *AddRepository) error {
	repo, err := newRepository(r)
	if err != nil {
		return err
	}
	return db.Fault("create repository", repo_model.CreateRepository(ctx, repo))
}

func (s *XormStore) RepositoryExists(ctx context.Context, name, owner, host string) (bool, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return false, err
	}
	exist, err := repo_model.RepositoryExists(ctx, name, owner, host)
	return exist, db.Fault("repository exists", err)
}

func (s *XormStore) ListRepositories(ctx context.Context, host string) ([]*repo_model.Repository, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	repos, err := repo_model.ListRepositories(ctx, host)
	return repos, db.Fault("list repositories", err)
}

func (s *XormStore) DeleteRepository(ctx context.Context, owner, name, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	return db.Fault("delete repository", repo_model.DeleteRepository(ctx, owner, name, host))
}

func (s *XormStore) CreateDNSChallenge(ctx context.Context, c *challenge.DNSChallenge) error {
	c, err := normalizeChallenge(c)
	if err != nil {
		return err
	}
	return db.Fault("create challenge", challenge.CreateDNSChallenge(ctx, c))
}

func (s *XormStore) DNSChallengeExists(ctx context.Context, key string) (bool, error) {
	exist, err := challenge.DNSChallengeExists(ctx, key)
	return exist, db.Fault("challenge exists", err)
}

func (s *XormStore) GetDNSChallenge(ctx context.Context, key string) (*challenge.DNSChallenge, error) {
	c, err := challenge.GetDNSChallenge(ctx, key)
	return c, db.Fault("get challenge", err)
}

func (s *XormStore) GetDNSChallengeByHostname(ctx context.Context, host string) (*challenge.DNSChallenge, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	c, err := challenge.GetDNSChallengeByHostname(ctx, host)
	return c, db.Fault("get challenge", err)
}

func (s *XormStore) DeleteDNSChallenge(ctx context.Context, key string) error {
	return db.Fault("delete challenge", challenge.DeleteDNSChallenge(ctx, key))
}

// Close releases the engine if the store opened it
func (s *XormStore) Close() error {
	if s.ownsEngine {
		db.UnsetDefaultEngine()
	}
	return nil
}
