// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"errors"
	"time"

	"codeberg.org/forgeflux/starchart/models/challenge"
	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/json"
	"codeberg.org/forgeflux/starchart/modules/log"
	"codeberg.org/forgeflux/starchart/modules/optional"
	"codeberg.org/forgeflux/starchart/modules/timeutil"
	"codeberg.org/forgeflux/starchart/modules/validation"

	"go.etcd.io/bbolt"
)

const (
	boltBucketForgeTypes     = "forge_types"     // key: type -> "1"
	boltBucketForges         = "forges"          // key: hostname -> forge.Instance JSON
	boltBucketUsers          = "users"           // key: hostname \0 username -> user.User JSON
	boltBucketRepos          = "repos"           // key: hostname \0 owner \0 name -> repo.Repository JSON
	boltBucketChallenges     = "challenges"      // key: challenge key -> challenge.DNSChallenge JSON
	boltBucketChallengeHosts = "challenge_hosts" // key: hostname -> challenge key
)

var boltBuckets = []string{
	boltBucketForgeTypes,
	boltBucketForges,
	boltBucketUsers,
	boltBucketRepos,
	boltBucketChallenges,
	boltBucketChallengeHosts,
}

var errBucketMissing = errors.New("bucket missing, run the store initialization first")

// BoltStore keeps the registry in a single bbolt file. Writes are serialized
// by bbolt.
type BoltStore struct {
	storage *bbolt.DB
}

var _ Store = &BoltStore{}

// NewBoltStore opens or creates the bbolt database at path
func NewBoltStore(path string) (*BoltStore, error) {
	instance, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, db.Fault("open", err)
	}
	return &BoltStore{storage: instance}, nil
}

func (s *BoltStore) InitializeStore(ctx context.Context) error {
	return db.Fault("initialize", s.storage.Update(func(tx *bbolt.Tx) error {
		for _, name := range boltBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		types := tx.Bucket([]byte(boltBucketForgeTypes))
		for _, t := range forge.KnownTypes {
			if types.Get([]byte(t)) != nil {
				continue
			}
			if err := types.Put([]byte(t), []byte("1")); err != nil {
				return err
			}
			log.Info("Seeded forge type %s", t)
		}
		return nil
	}))
}

func bucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, errBucketMissing
	}
	return b, nil
}

func joinKey(parts ...string) []byte {
	return []byte(joinParts(parts))
}

func joinParts(parts []string) string {
	var buf bytes.Buffer
	for i, part := range parts {
		if i > 0 {
			buf.WriteByte(0)
		}
		buf.WriteString(part)
	}
	return buf.String()
}

func prefixKey(parts ...string) []byte {
	return append(joinKey(parts...), 0)
}

func put(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func get[T any](b *bbolt.Bucket, key []byte) (*T, error) {
	data := b.Get(key)
	if data == nil {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *BoltStore) view(op string, fn func(tx *bbolt.Tx) error) error {
	return db.Fault(op, s.storage.View(fn))
}

func (s *BoltStore) update(op string, fn func(tx *bbolt.Tx) error) error {
	return db.Fault(op, s.storage.Update(fn))
}

func (s *BoltStore) CreateForgeInstance(ctx context.Context, f *CreateForge) error {
	instance, err := newForge(f)
	if err != nil {
		return err
	}
	return s.update("create forge", func(tx *bbolt.Tx) error {
		types, err := bucket(tx, boltBucketForgeTypes)
		if err != nil {
			return err
		}
		if types.Get([]byte(instance.ForgeType)) == nil {
			return forge.ErrTypeNotExist{Type: instance.ForgeType}
		}

		forges, err := bucket(tx, boltBucketForges)
		if err != nil {
			return err
		}
		key := []byte(instance.Hostname)
		if forges.Get(key) != nil {
			return forge.ErrInstanceAlreadyExist{Hostname: instance.Hostname}
		}
		id, err := forges.NextSequence()
		if err != nil {
			return err
		}
		instance.ID = int64(id)
		instance.Created = timeutil.TimeStampNow()
		instance.Updated = instance.Created
		return put(forges, key, instance)
	})
}

func (s *BoltStore) ForgeExists(ctx context.Context, host string) (bool, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return false, err
	}
	var exist bool
	err = s.view("forge exists", func(tx *bbolt.Tx) error {
		forges, err := bucket(tx, boltBucketForges)
		if err != nil {
			return err
		}
		exist = forges.Get([]byte(host)) != nil
		return nil
	})
	return exist, err
}

func (s *BoltStore) ForgeTypeExists(ctx context.Context, forgeType forge.Type) (bool, error) {
	var exist bool
	err := s.view("forge type exists", func(tx *bbolt.Tx) error {
		types, err := bucket(tx, boltBucketForgeTypes)
		if err != nil {
			return err
		}
		exist = types.Get([]byte(forgeType)) != nil
		return nil
	})
	return exist, err
}

func (s *BoltStore) GetForgeInstance(ctx context.Context, host string) (*forge.Instance, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	var instance *forge.Instance
	err = s.view("get forge", func(tx *bbolt.Tx) error {
		forges, err := bucket(tx, boltBucketForges)
		if err != nil {
			return err
		}
		instance, err = get[forge.Instance](forges, []byte(host))
		if err != nil {
			return err
		} else if instance == nil {
			return forge.ErrInstanceNotExist{Hostname: host}
		}
		return nil
	})
	return instance, err
}

func (s *BoltStore) ListForgeInstances(ctx context.Context) ([]*forge.Instance, error) {
	instances := make([]*forge.Instance, 0, 10)
	err := s.view("list forges", func(tx *bbolt.Tx) error {
		forges, err := bucket(tx, boltBucketForges)
		if err != nil {
			return err
		}
		return forges.ForEach(func(_, v []byte) error {
			instance := new(forge.Instance)
			if err := json.Unmarshal(v, instance); err != nil {
				return err
			}
			instances = append(instances, instance)
			return nil
		})
	})
	return instances, err
}

// deletePrefix removes every key of b starting with prefix
func deletePrefix(b *bbolt.Bucket, prefix []byte) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, bytes.Clone(k))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *BoltStore) DeleteForgeInstance(ctx context.Context, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	return s.update("delete forge", func(tx *bbolt.Tx) error {
		forges, err := bucket(tx, boltBucketForges)
		if err != nil {
			return err
		}
		if forges.Get([]byte(host)) == nil {
			return forge.ErrInstanceNotExist{Hostname: host}
		}
		for _, name := range []string{boltBucketRepos, boltBucketUsers} {
			b, err := bucket(tx, name)
			if err != nil {
				return err
			}
			if err := deletePrefix(b, prefixKey(host)); err != nil {
				return err
			}
		}
		return forges.Delete([]byte(host))
	})
}

func (s *BoltStore) AddUser(ctx context.Context, u *AddUser) error {
	user, err := newUser(u)
	if err != nil {
		return err
	}
	return s.update("add user", func(tx *bbolt.Tx) error {
		forges, err := bucket(tx, boltBucketForges)
		if err != nil {
			return err
		}
		if forges.Get([]byte(user.Hostname)) == nil {
			return user_model.ErrForgeMissing{Hostname: user.Hostname, Username: user.Username}
		}

		users, err := bucket(tx, boltBucketUsers)
		if err != nil {
			return err
		}
		key := joinKey(user.Hostname, user.Username)
		if users.Get(key) != nil {
			return user_model.ErrUserAlreadyExist{Hostname: user.Hostname, Username: user.Username}
		}
		id, err := users.NextSequence()
		if err != nil {
			return err
		}
		user.ID = int64(id)
		user.Created = timeutil.TimeStampNow()
		user.Updated = user.Created
		return put(users, key, user)
	})
}

func (s *BoltStore) UserExists(ctx context.Context, username string, host optional.Option[string]) (bool, error) {
	host, err := normalizeOptionalHost(host)
	if err != nil {
		return false, err
	}
	var exist bool
	err = s.view("user exists", func(tx *bbolt.Tx) error {
		users, err := bucket(tx, boltBucketUsers)
		if err != nil {
			return err
		}
		if host.Has() {
			exist = users.Get(joinKey(host.Value(), username)) != nil
			return nil
		}
		suffix := append([]byte{0}, username...)
		c := users.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if bytes.HasSuffix(k, suffix) {
				exist = true
				return nil
			}
		}
		return nil
	})
	return exist, err
}

func (s *BoltStore) ListUsers(ctx context.Context, host string) ([]*user_model.User, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	users := make([]*user_model.User, 0, 10)
	err = s.view("list users", func(tx *bbolt.Tx) error {
		b, err := bucket(tx, boltBucketUsers)
		if err != nil {
			return err
		}
		prefix := prefixKey(host)
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			u := new(user_model.User)
			if err := json.Unmarshal(v, u); err != nil {
				return err
			}
			users = append(users, u)
		}
		return nil
	})
	return users, err
}

func (s *BoltStore) DeleteUser(ctx context.Context, username, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	return s.update("delete user", func(tx *bbolt.Tx) error {
		users, err := bucket(tx, boltBucketUsers)
		if err != nil {
			return err
		}
		key := joinKey(host, username)
		if users.Get(key) == nil {
			return user_model.ErrUserNotExist{Hostname: host, Username: username}
		}
		repos, err := bucket(tx, boltBucketRepos)
		if err != nil {
			return err
		}
		if err := deletePrefix(repos, prefixKey(host, username)); err != nil {
			return err
		}
		return users.Delete(key)
	})
}

func (s *BoltStore) CreateRepository(ctx context.Context, r *AddRepository) error {
	repo, err := newRepository(r)
	if err != nil {
		return err
	}
	return s.update("create repository", func(tx *bbolt.Tx) error {
		users, err := bucket(tx, boltBucketUsers)
		if err != nil {
			return err
		}
		if users.Get(joinKey(repo.Hostname, repo.Owner)) == nil {
			return repo_model.ErrOwnerMissing{Hostname: repo.Hostname, Owner: repo.Owner, Name: repo.Name}
		}

		repos, err := bucket(tx, boltBucketRepos)
		if err != nil {
			return err
		}
		key := joinKey(repo.Hostname, repo.Owner, repo.Name)
		if repos.Get(key) != nil {
			return repo_model.ErrRepoAlreadyExist{Hostname: repo.Hostname, Owner: repo.Owner, Name: repo.Name}
		}
		id, err := repos.NextSequence()
		if err != nil {
			return err
		}
		repo.ID = int64(id)
		repo.Created = timeutil.TimeStampNow()
		repo.Updated = repo.Created
		return put(repos, key, repo)
	})
}

func (s *BoltStore) RepositoryExists(ctx context.Context, name, owner, host string) (bool, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return false, err
	}
	var exist bool
	err = s.view("repository exists", func(tx *bbolt.Tx) error {
		repos, err := bucket(tx, boltBucketRepos)
		if err != nil {
			return err
		}
		exist = repos.Get(joinKey(host, owner, name)) != nil
		return nil
	})
	return exist, err
}

func (s *BoltStore) ListRepositories(ctx context.Context, host string) ([]*repo_model.Repository, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	repos := make([]*repo_model.Repository, 0, 10)
	err = s.view("list repositories", func(tx *bbolt.Tx) error {
		b, err := bucket(tx, boltBucketRepos)
		if err != nil {
			return err
		}
		prefix := prefixKey(host)
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			r := new(repo_model.Repository)
			if err := json.Unmarshal(v, r); err != nil {
				return err
			}
			if r.Topics == nil {
				r.Topics = []string{}
			}
			repos = append(repos, r)
		}
		return nil
	})
	return repos, err
}

func (s *BoltStore) DeleteRepository(ctx context.Context, owner, name, host string) error {
	host, err := hostname.Normalize(host)
	if err != nil {
		return err
	}
	return s.update("delete repository", func(tx *bbolt.Tx) error {
		repos, err := bucket(tx, boltBucketRepos)
		if err != nil {
			return err
		}
		key := joinKey(host, owner, name)
		if repos.Get(key) == nil {
			return repo_model.ErrRepoNotExist{Hostname: host, Owner: owner, Name: name}
		}
		return repos.Delete(key)
	})
}

func (s *BoltStore) CreateDNSChallenge(ctx context.Context, c *challenge.DNSChallenge) error {
	c, err := normalizeChallenge(c)
	if err != nil {
		return err
	}
	if valid, err := validation.IsValid(c); !valid {
		return err
	}
	return s.update("create challenge", func(tx *bbolt.Tx) error {
		challenges, err := bucket(tx, boltBucketChallenges)
		if err != nil {
			return err
		}
		hosts, err := bucket(tx, boltBucketChallengeHosts)
		if err != nil {
			return err
		}

		existing, err := get[challenge.DNSChallenge](challenges, []byte(c.Key))
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.SameAs(c) {
				return nil
			}
			return challenge.ErrChallengeConflict{Key: c.Key, Hostname: c.Hostname}
		}
		if hosts.Get([]byte(c.Hostname)) != nil {
			return challenge.ErrChallengeConflict{Key: c.Key, Hostname: c.Hostname}
		}

		id, err := challenges.NextSequence()
		if err != nil {
			return err
		}
		c.ID = int64(id)
		c.Created = timeutil.TimeStampNow()
		if err := put(challenges, []byte(c.Key), c); err != nil {
			return err
		}
		return hosts.Put([]byte(c.Hostname), []byte(c.Key))
	})
}

func (s *BoltStore) DNSChallengeExists(ctx context.Context, key string) (bool, error) {
	var exist bool
	err := s.view("challenge exists", func(tx *bbolt.Tx) error {
		challenges, err := bucket(tx, boltBucketChallenges)
		if err != nil {
			return err
		}
		exist = challenges.Get([]byte(key)) != nil
		return nil
	})
	return exist, err
}

func (s *BoltStore) GetDNSChallenge(ctx context.Context, key string) (*challenge.DNSChallenge, error) {
	var c *challenge.DNSChallenge
	err := s.view("get challenge", func(tx *bbolt.Tx) error {
		challenges, err := bucket(tx, boltBucketChallenges)
		if err != nil {
			return err
		}
		c, err = get[challenge.DNSChallenge](challenges, []byte(key))
		if err != nil {
			return err
		} else if c == nil {
			return challenge.ErrChallengeNotExist{Key: key}
		}
		return nil
	})
	return c, err
}

func (s *BoltStore) GetDNSChallengeByHostname(ctx context.Context, host string) (*challenge.DNSChallenge, error) {
	host, err := hostname.Normalize(host)
	if err != nil {
		return nil, err
	}
	var c *challenge.DNSChallenge
	err = s.view("get challenge", func(tx *bbolt.Tx) error {
		hosts, err := bucket(tx, boltBucketChallengeHosts)
		if err != nil {
			return err
		}
		challenges, err := bucket(tx, boltBucketChallenges)
		if err != nil {
			return err
		}
		key := hosts.Get([]byte(host))
		if key == nil {
			return challenge.ErrChallengeNotExist{Hostname: host}
		}
		c, err = get[challenge.DNSChallenge](challenges, key)
		if err != nil {
			return err
		} else if c == nil {
			return challenge.ErrChallengeNotExist{Hostname: host}
		}
		return nil
	})
	return c, err
}

func (s *BoltStore) DeleteDNSChallenge(ctx context.Context, key string) error {
	return s.update("delete challenge", func(tx *bbolt.Tx) error {
		challenges, err := bucket(tx, boltBucketChallenges)
		if err != nil {
			return err
		}
		existing, err := get[challenge.DNSChallenge](challenges, []byte(key))
		if err != nil || existing == nil {
			return err
		}
		hosts, err := bucket(tx, boltBucketChallengeHosts)
		if err != nil {
			return err
		}
		if err := hosts.Delete([]byte(existing.Hostname)); err != nil {
			return err
		}
		return challenges.Delete([]byte(key))
	})
}

func (s *BoltStore) Close() error {
	return s.storage.Close()
}
