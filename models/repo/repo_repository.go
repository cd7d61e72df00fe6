// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"

	"codeberg.org/forgeflux/starchart/models/db"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/optional"

	"xorm.io/builder"
)

func init() {
	db.RegisterModel(new(Repository))
	db.RegisterModel(new(Topic))
}

// CreateRepository stores a repository and its topics. The owner has to be a
// user of the same forge instance.
func CreateRepository(ctx context.Context, r *Repository) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		hasOwner, err := user_model.UserExists(ctx, r.Owner, optional.Some(r.Hostname))
		if err != nil {
			return err
		} else if !hasOwner {
			return ErrOwnerMissing{Hostname: r.Hostname, Owner: r.Owner, Name: r.Name}
		}

		exist, err := RepositoryExists(ctx, r.Name, r.Owner, r.Hostname)
		if err != nil {
			return err
		} else if exist {
			return ErrRepoAlreadyExist{Hostname: r.Hostname, Owner: r.Owner, Name: r.Name}
		}

		if err := db.Insert(ctx, r); err != nil {
			if db.IsErrDuplicateKey(err) {
				return ErrRepoAlreadyExist{Hostname: r.Hostname, Owner: r.Owner, Name: r.Name}
			}
			return err
		}

		if len(r.Topics) == 0 {
			return nil
		}
		topics := make([]*Topic, 0, len(r.Topics))
		for _, name := range r.Topics {
			topics = append(topics, &Topic{RepoID: r.ID, Name: name})
		}
		return db.Insert(ctx, topics)
	})
}

func repoCond(name, owner, host string) builder.Cond {
	return builder.Eq{"name": name, "owner": owner, "hostname": host}
}

// RepositoryExists reports whether owner/name is registered under the hostname
func RepositoryExists(ctx context.Context, name, owner, host string) (bool, error) {
	return db.Exist[Repository](ctx, repoCond(name, owner, host))
}

// GetRepository returns the repository with its topics loaded
func GetRepository(ctx context.Context, owner, name, host string) (*Repository, error) {
	r, has, err := db.Get[Repository](ctx, repoCond(name, owner, host))
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrRepoNotExist{Hostname: host, Owner: owner, Name: name}
	}
	if err := loadTopics(ctx, []*Repository{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRepositories returns the repositories of a forge instance ordered by
// owner and name, with topics loaded
func ListRepositories(ctx context.Context, host string) ([]*Repository, error) {
	repos := make([]*Repository, 0, 10)
	if err := db.GetEngine(ctx).Where(builder.Eq{"hostname": host}).OrderBy("owner, name").Find(&repos); err != nil {
		return nil, err
	}
	return repos, loadTopics(ctx, repos)
}

func loadTopics(ctx context.Context, repos []*Repository) error {
	if len(repos) == 0 {
		return nil
	}
	byID := make(map[int64]*Repository, len(repos))
	ids := make([]int64, 0, len(repos))
	for _, r := range repos {
		r.Topics = []string{}
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	topics := make([]*Topic, 0, len(repos))
	if err := db.GetEngine(ctx).In("repo_id", ids).OrderBy("name").Find(&topics); err != nil {
		return err
	}
	for _, topic := range topics {
		if r, ok := byID[topic.RepoID]; ok {
			r.Topics = append(r.Topics, topic.Name)
		}
	}
	return nil
}

// DeleteRepository removes a repository and its topics
func DeleteRepository(ctx context.Context, owner, name, host string) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		r, has, err := db.Get[Repository](ctx, repoCond(name, owner, host))
		if err != nil {
			return err
		} else if !has {
			return ErrRepoNotExist{Hostname: host, Owner: owner, Name: name}
		}
		return db.DeleteBeans(ctx, &Topic{RepoID: r.ID}, &Repository{ID: r.ID})
	})
}

// DeleteRepositoriesByOwner removes every repository of a user
func DeleteRepositoriesByOwner(ctx context.Context, owner, host string) error {
	return deleteRepositories(ctx, builder.Eq{"owner": owner, "hostname": host})
}

// DeleteRepositoriesByHostname removes every repository of a forge instance
func DeleteRepositoriesByHostname(ctx context.Context, host string) error {
	return deleteRepositories(ctx, builder.Eq{"hostname": host})
}

func deleteRepositories(ctx context.Context, cond builder.Cond) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		e := db.GetEngine(ctx)
		if _, err := e.Where(builder.In("repo_id", builder.Select("id").From("repository").Where(cond))).
			Delete(new(Topic)); err != nil {
			return err
		}
		_, err := e.Where(cond).Delete(new(Repository))
		return err
	})
}
