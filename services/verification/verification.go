// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package verification implements the DNS TXT challenge a forge administrator
// answers to prove control of a hostname before the forge is spidered.
package verification

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"

	"codeberg.org/forgeflux/starchart/models/challenge"
	"codeberg.org/forgeflux/starchart/models/forge"
	"codeberg.org/forgeflux/starchart/models/store"
	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/log"
	"codeberg.org/forgeflux/starchart/modules/metrics"
	"codeberg.org/forgeflux/starchart/modules/setting"
	"codeberg.org/forgeflux/starchart/modules/util"
)

// ValueLength is the length of a minted challenge value
const ValueLength = 32

// ErrChallengeNotVerified is returned by Verify when no TXT record carries the
// issued value
type ErrChallengeNotVerified struct {
	Hostname   string
	RecordName string
}

func IsErrChallengeNotVerified(err error) bool {
	return errors.As(err, new(ErrChallengeNotVerified))
}

func (err ErrChallengeNotVerified) Error() string {
	return fmt.Sprintf("challenge for %s not verified, no matching TXT record at %s", err.Hostname, err.RecordName)
}

// Resolver looks up TXT records. *net.Resolver implements it.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// Registrar creates the forge instance once its hostname is verified
type Registrar interface {
	CreateForgeInstance(ctx context.Context, f *store.CreateForge) error
}

// Options configures a Service
type Options struct {
	Secret         string
	TXTLabel       string
	DeleteOnVerify bool
	Resolver       Resolver
	Metrics        *metrics.Metrics
}

// Service issues and checks challenges
type Service struct {
	store     store.Store
	registrar Registrar
	opts      Options
}

// NewService returns a Service. The secret must not be empty.
func NewService(s store.Store, registrar Registrar, opts Options) (*Service, error) {
	if opts.Secret == "" {
		return nil, util.NewInvalidArgumentErrorf("verification secret is not set")
	}
	if opts.TXTLabel == "" {
		opts.TXTLabel = setting.DefaultTXTLabel
	}
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	return &Service{store: s, registrar: registrar, opts: opts}, nil
}

// ChallengeKey returns the key of the challenge for an already normalized hostname
func (s *Service) ChallengeKey(normalized string) string {
	mac := hmac.New(sha256.New, []byte(s.opts.Secret))
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// RecordName returns the name of the TXT record to publish for a hostname
func (s *Service) RecordName(normalized string) string {
	return s.opts.TXTLabel + "." + hostname.DNSName(normalized)
}

// Request returns the challenge for rawURL, minting it on the first request.
// Later requests return the stored challenge unchanged.
func (s *Service) Request(ctx context.Context, rawURL string) (*challenge.DNSChallenge, error) {
	host, err := hostname.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	key := s.ChallengeKey(host)

	exist, err := s.store.DNSChallengeExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exist {
		s.count(func(m *metrics.Metrics) { m.ChallengesReplayed.Inc() })
		return s.store.GetDNSChallenge(ctx, key)
	}

	// a challenge issued under an earlier secret still holds the hostname
	if err := s.dropStale(ctx, host, key); err != nil {
		return nil, err
	}

	value, err := util.CryptoRandomString(ValueLength)
	if err != nil {
		return nil, err
	}
	c := &challenge.DNSChallenge{Key: key, Value: value, Hostname: host}
	if err := s.store.CreateDNSChallenge(ctx, c); err != nil {
		if !challenge.IsErrChallengeConflict(err) {
			return nil, err
		}
		// a concurrent request stored its value first
		winner, getErr := s.store.GetDNSChallenge(ctx, key)
		if challenge.IsErrChallengeNotExist(getErr) {
			return nil, err
		} else if getErr != nil {
			return nil, getErr
		}
		log.Debug("Challenge for %s was created concurrently", host)
		s.count(func(m *metrics.Metrics) { m.ChallengesReplayed.Inc() })
		return winner, nil
	}
	log.Info("Issued challenge for %s", host)
	s.count(func(m *metrics.Metrics) { m.ChallengesIssued.Inc() })
	return c, nil
}

// Show returns the stored challenge for rawURL without minting one
func (s *Service) Show(ctx context.Context, rawURL string) (*challenge.DNSChallenge, error) {
	host, err := hostname.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	return s.store.GetDNSChallenge(ctx, s.ChallengeKey(host))
}

// Check reports whether a TXT record at RecordName carries the issued value
func (s *Service) Check(ctx context.Context, rawURL string) (bool, error) {
	c, err := s.Show(ctx, rawURL)
	if err != nil {
		return false, err
	}
	return s.check(ctx, c)
}

func (s *Service) check(ctx context.Context, c *challenge.DNSChallenge) (bool, error) {
	name := s.RecordName(c.Hostname)
	records, err := s.opts.Resolver.LookupTXT(ctx, name)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			s.count(func(m *metrics.Metrics) { m.Verifications.WithLabelValues(metrics.ResultMismatch).Inc() })
			return false, nil
		}
		s.count(func(m *metrics.Metrics) { m.Verifications.WithLabelValues(metrics.ResultError).Inc() })
		return false, fmt.Errorf("lookup TXT %s: %w", name, err)
	}
	for _, record := range records {
		if record == c.Value {
			s.count(func(m *metrics.Metrics) { m.Verifications.WithLabelValues(metrics.ResultVerified).Inc() })
			return true, nil
		}
	}
	log.Trace("No TXT record at %s matches, got %d records", name, len(records))
	s.count(func(m *metrics.Metrics) { m.Verifications.WithLabelValues(metrics.ResultMismatch).Inc() })
	return false, nil
}

// Verify checks the challenge of rawURL and registers the forge with the
// given type. The challenge is removed afterwards when DeleteOnVerify is set.
func (s *Service) Verify(ctx context.Context, rawURL string, forgeType forge.Type) error {
	c, err := s.Show(ctx, rawURL)
	if err != nil {
		return err
	}
	verified, err := s.check(ctx, c)
	if err != nil {
		return err
	}
	if !verified {
		return ErrChallengeNotVerified{Hostname: c.Hostname, RecordName: s.RecordName(c.Hostname)}
	}

	if err := s.registrar.CreateForgeInstance(ctx, &store.CreateForge{Hostname: c.Hostname, ForgeType: forgeType}); err != nil {
		return err
	}
	log.Info("Verified %s as %s forge", c.Hostname, forgeType)

	if s.opts.DeleteOnVerify {
		if err := s.store.DeleteDNSChallenge(ctx, c.Key); err != nil {
			return err
		}
		s.count(func(m *metrics.Metrics) { m.ChallengesDeleted.Inc() })
	}
	return nil
}

// Abandon removes the challenge of rawURL, including one issued under another
// key. Abandoning a hostname without a challenge succeeds.
func (s *Service) Abandon(ctx context.Context, rawURL string) error {
	host, err := hostname.Normalize(rawURL)
	if err != nil {
		return err
	}
	c, err := s.store.GetDNSChallengeByHostname(ctx, host)
	if challenge.IsErrChallengeNotExist(err) {
		log.Debug("No challenge to abandon for %s", host)
		return nil
	} else if err != nil {
		return err
	}
	if err := s.store.DeleteDNSChallenge(ctx, c.Key); err != nil {
		return err
	}
	log.Info("Abandoned challenge for %s", host)
	s.count(func(m *metrics.Metrics) { m.ChallengesDeleted.Inc() })
	return nil
}

// dropStale removes the challenge of host if it is stored under a key other
// than key
func (s *Service) dropStale(ctx context.Context, host, key string) error {
	c, err := s.store.GetDNSChallengeByHostname(ctx, host)
	if challenge.IsErrChallengeNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	if c.Key == key {
		return nil
	}
	log.Warn("Replacing challenge for %s issued under another key", host)
	if err := s.store.DeleteDNSChallenge(ctx, c.Key); err != nil {
		return err
	}
	s.count(func(m *metrics.Metrics) { m.ChallengesDeleted.Inc() })
	return nil
}

func (s *Service) count(fn func(m *metrics.Metrics)) {
	if s.opts.Metrics != nil {
		fn(s.opts.Metrics)
	}
}
