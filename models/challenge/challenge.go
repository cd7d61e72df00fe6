// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package challenge

import (
	"context"

	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/modules/timeutil"
	"codeberg.org/forgeflux/starchart/modules/validation"

	"xorm.io/builder"
)

// DNSChallenge is an issued ownership challenge. Key is derived from the
// hostname, Value is the token expected in the TXT record.
type DNSChallenge struct {
	ID       int64              `xorm:"pk autoincr"`
	Key      string             `xorm:"'challenge_key' UNIQUE NOT NULL VARCHAR(64)"`
	Value    string             `xorm:"NOT NULL VARCHAR(64)"`
	Hostname string             `xorm:"UNIQUE NOT NULL VARCHAR(255)"`
	Created  timeutil.TimeStamp `xorm:"created"`
}

// TableName returns the table name of challenges
func (DNSChallenge) TableName() string {
	return "dns_challenge"
}

func init() {
	db.RegisterModel(new(DNSChallenge))
}

// Validate collects error strings in a slice and returns this
func (c DNSChallenge) Validate() []string {
	var result []string
	result = append(result, validation.ValidateNotEmpty(c.Key, "Key")...)
	result = append(result, validation.ValidateMaxLen(c.Key, 64, "Key")...)
	result = append(result, validation.ValidateNotEmpty(c.Value, "Value")...)
	result = append(result, validation.ValidateMaxLen(c.Value, 64, "Value")...)
	result = append(result, validation.ValidateNotEmpty(c.Hostname, "Hostname")...)
	return result
}

// SameAs reports whether other carries the same key, value and hostname
func (c *DNSChallenge) SameAs(other *DNSChallenge) bool {
	return c.Key == other.Key && c.Value == other.Value && c.Hostname == other.Hostname
}

// CreateDNSChallenge stores c. Storing an identical challenge again succeeds,
// a different value for the key or a second key for the hostname is a conflict.
func CreateDNSChallenge(ctx context.Context, c *DNSChallenge) error {
	if valid, err := validation.IsValid(c); !valid {
		return err
	}

	err := db.WithTx(ctx, func(ctx context.Context) error {
		existing, has, err := db.Get[DNSChallenge](ctx, builder.Or(builder.Eq{"challenge_key": c.Key}, builder.Eq{"hostname": c.Hostname}))
		if err != nil {
			return err
		} else if has {
			if existing.SameAs(c) {
				return nil
			}
			return ErrChallengeConflict{Key: c.Key, Hostname: c.Hostname}
		}
		return db.Insert(ctx, c)
	})
	if err != nil && db.IsErrDuplicateKey(err) {
		// lost a race, compare against the winner
		existing, getErr := GetDNSChallenge(ctx, c.Key)
		if getErr == nil && existing.SameAs(c) {
			return nil
		}
		return ErrChallengeConflict{Key: c.Key, Hostname: c.Hostname}
	}
	return err
}

// DNSChallengeExists reports whether a challenge is stored under key
func DNSChallengeExists(ctx context.Context, key string) (bool, error) {
	return db.Exist[DNSChallenge](ctx, builder.Eq{"challenge_key": key})
}

// GetDNSChallenge returns the challenge stored under key
func GetDNSChallenge(ctx context.Context, key string) (*DNSChallenge, error) {
	c, has, err := db.Get[DNSChallenge](ctx, builder.Eq{"challenge_key": key})
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrChallengeNotExist{Key: key}
	}
	return c, nil
}

// GetDNSChallengeByHostname returns the challenge issued for hostname,
// whatever its key
func GetDNSChallengeByHostname(ctx context.Context, hostname string) (*DNSChallenge, error) {
	c, has, err := db.Get[DNSChallenge](ctx, builder.Eq{"hostname": hostname})
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrChallengeNotExist{Hostname: hostname}
	}
	return c, nil
}

// DeleteDNSChallenge removes the challenge stored under key, absent challenges are ignored
func DeleteDNSChallenge(ctx context.Context, key string) error {
	_, err := db.GetEngine(ctx).Where(builder.Eq{"challenge_key": key}).Delete(new(DNSChallenge))
	return err
}
