// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge

import (
	"context"

	forge_model "codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	"codeberg.org/forgeflux/starchart/models/store"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/log"
	"codeberg.org/forgeflux/starchart/modules/metrics"
	"codeberg.org/forgeflux/starchart/services/federate"
)

// Service applies every registry mutation to the store and then to the
// export tree
type Service struct {
	store    store.Store
	exporter federate.Federate
	metrics  *metrics.Metrics
}

// NewService returns a Service. m may be nil.
func NewService(s store.Store, exporter federate.Federate, m *metrics.Metrics) *Service {
	return &Service{store: s, exporter: exporter, metrics: m}
}

func (s *Service) CreateForgeInstance(ctx context.Context, f *store.CreateForge) error {
	if err := s.store.CreateForgeInstance(ctx, f); err != nil {
		return err
	}
	instance, err := s.store.GetForgeInstance(ctx, f.Hostname)
	if err != nil {
		return err
	}
	if err := s.exporter.CreateForgeInstance(ctx, instance); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ForgesCreated.Inc()
	}
	log.Info("Registered forge %s (%s)", instance.Hostname, instance.ForgeType)
	return nil
}

func (s *Service) GetForgeInstance(ctx context.Context, host string) (*forge_model.Instance, error) {
	return s.store.GetForgeInstance(ctx, host)
}

func (s *Service) ListForgeInstances(ctx context.Context) ([]*forge_model.Instance, error) {
	return s.store.ListForgeInstances(ctx)
}

func (s *Service) DeleteForgeInstance(ctx context.Context, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	if err := s.store.DeleteForgeInstance(ctx, host); err != nil {
		return err
	}
	if err := s.exporter.DeleteForgeInstance(ctx, host); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ForgesDeleted.Inc()
	}
	log.Info("Removed forge %s", host)
	return nil
}

func (s *Service) AddUser(ctx context.Context, u *store.AddUser) error {
	host, err := hostname.Normalize(u.Hostname)
	if err != nil {
		return err
	}
	user, err := user_model.NewUser(host, u.Username, u.HTMLLink, u.ProfilePhoto)
	if err != nil {
		return err
	}
	if err := s.store.AddUser(ctx, u); err != nil {
		return err
	}
	return s.exporter.CreateUser(ctx, user)
}

func (s *Service) DeleteUser(ctx context.Context, username, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, username, host); err != nil {
		return err
	}
	return s.exporter.DeleteUser(ctx, username, host)
}

func (s *Service) CreateRepository(ctx context.Context, r *store.AddRepository) error {
	host, err := hostname.Normalize(r.Hostname)
	if err != nil {
		return err
	}
	repo, err := repo_model.NewRepository(host, r.Owner, r.Name, r.HTMLLink, r.Website, r.Description, r.Tags)
	if err != nil {
		return err
	}
	if err := s.store.CreateRepository(ctx, r); err != nil {
		return err
	}
	return s.exporter.CreateRepository(ctx, repo)
}

func (s *Service) DeleteRepository(ctx context.Context, owner, name, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRepository(ctx, owner, name, host); err != nil {
		return err
	}
	return s.exporter.DeleteRepository(ctx, owner, name, host)
}

// Bundle packs the export tree
func (s *Service) Bundle(ctx context.Context) (string, error) {
	bundlePath, err := s.exporter.Bundle(ctx)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.BundlesWritten.Inc()
	}
	return bundlePath, nil
}

// RebuildExport wipes the export tree and writes it again from the store
func (s *Service) RebuildExport(ctx context.Context) error {
	root := s.exporter.Root()
	if err := s.exporter.RemovePath(root); err != nil {
		return err
	}
	if err := s.exporter.CreateDirIfNotExists(root); err != nil {
		return err
	}

	instances, err := s.store.ListForgeInstances(ctx)
	if err != nil {
		return err
	}
	for _, instance := range instances {
		if err := s.exporter.CreateForgeInstance(ctx, instance); err != nil {
			return err
		}
		users, err := s.store.ListUsers(ctx, instance.Hostname)
		if err != nil {
			return err
		}
		for _, u := range users {
			if err := s.exporter.CreateUser(ctx, u); err != nil {
				return err
			}
		}
		repos, err := s.store.ListRepositories(ctx, instance.Hostname)
		if err != nil {
			return err
		}
		for _, r := range repos {
			if err := s.exporter.CreateRepository(ctx, r); err != nil {
				return err
			}
		}
		log.Debug("Rebuilt export of %s: %d users, %d repositories", instance.Hostname, len(users), len(repos))
	}
	log.Info("Rebuilt export tree %s with %d forges", root, len(instances))
	return nil
}
