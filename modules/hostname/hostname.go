// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hostname normalizes forge URLs into the form used as the key of a
// forge instance: scheme and host, nothing else.
package hostname

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"codeberg.org/forgeflux/starchart/modules/util"

	"golang.org/x/net/idna"
)

// underscores are common in test and internal hostnames, so the STD3 rules
// applied by idna.Lookup are relaxed.
var profile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false))

type ErrInvalid struct {
	Raw    string
	Reason string
}

func IsErrInvalid(err error) bool {
	_, ok := err.(ErrInvalid)
	return ok
}

func (err ErrInvalid) Error() string {
	return fmt.Sprintf("invalid forge hostname %q: %s", err.Raw, err.Reason)
}

func (err ErrInvalid) Unwrap() error {
	return util.ErrInvalidArgument
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize parses raw as an absolute http(s) URL and returns
// "scheme://host[:port]" with a lower case ASCII host. Path, query, fragment,
// user info and default ports are dropped.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalid{Raw: raw, Reason: err.Error()}
	}
	return FromURL(u)
}

// FromURL is Normalize for an already parsed URL
func FromURL(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[scheme]; !ok {
		return "", ErrInvalid{Raw: u.String(), Reason: "scheme must be http or https"}
	}

	host := u.Hostname()
	if host == "" {
		return "", ErrInvalid{Raw: u.String(), Reason: "host is empty"}
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) == nil {
		ascii, err := profile.ToASCII(host)
		if err != nil {
			return "", ErrInvalid{Raw: u.String(), Reason: err.Error()}
		}
		host = ascii
	}

	if port := u.Port(); port != "" && port != defaultPorts[scheme] {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		// bare IPv6 literal
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}

// Host returns the host part (including a non default port) of a normalized
// hostname, as used for DNS names and export directories.
func Host(normalized string) string {
	_, host, found := strings.Cut(normalized, "://")
	if !found {
		return normalized
	}
	return host
}

// Scheme returns the scheme of a normalized hostname, empty if there is none
func Scheme(normalized string) string {
	scheme, _, found := strings.Cut(normalized, "://")
	if !found {
		return ""
	}
	return scheme
}

// DNSName returns the host of a normalized hostname without any port
func DNSName(normalized string) string {
	host := Host(normalized)
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}
