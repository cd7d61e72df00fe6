// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"codeberg.org/forgeflux/starchart/modules/optional"
	"codeberg.org/forgeflux/starchart/modules/timeutil"
	"codeberg.org/forgeflux/starchart/modules/validation"
)

// Repository is a repository spidered from a forge instance
type Repository struct {
	ID          int64              `xorm:"pk autoincr"`
	Hostname    string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
	Owner       string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
	Name        string             `xorm:"UNIQUE(s) NOT NULL VARCHAR(255)"`
	HTMLLink    string             `xorm:"html_link TEXT NOT NULL"`
	Website     string             `xorm:"TEXT"`
	Description string             `xorm:"TEXT"`
	Created     timeutil.TimeStamp `xorm:"created"`
	Updated     timeutil.TimeStamp `xorm:"updated"`

	Topics []string `xorm:"-"`
}

// TableName returns the table name of spidered repositories
func (Repository) TableName() string {
	return "repository"
}

// Topic is a tag of a repository
type Topic struct {
	ID     int64  `xorm:"pk autoincr"`
	RepoID int64  `xorm:"UNIQUE(s) INDEX NOT NULL"`
	Name   string `xorm:"UNIQUE(s) NOT NULL VARCHAR(50)"`
}

// TableName returns the table name of repository topics
func (Topic) TableName() string {
	return "repo_topic"
}

// NewRepository creates a Repository of an already normalized hostname. Created struct is asserted to be valid
func NewRepository(host, owner, name, htmlLink string, website, description optional.Option[string], tags []string) (*Repository, error) {
	result := &Repository{
		Hostname:    host,
		Owner:       owner,
		Name:        name,
		HTMLLink:    htmlLink,
		Website:     website.ValueOrDefault(""),
		Description: description.ValueOrDefault(""),
		Topics:      NormalizeTopics(tags),
	}
	if valid, err := validation.IsValid(result); !valid {
		return nil, err
	}
	return result, nil
}

// Validate collects error strings in a slice and returns this
func (r Repository) Validate() []string {
	var result []string
	result = append(result, validation.ValidateNotEmpty(r.Hostname, "Hostname")...)
	result = append(result, validation.ValidateNotEmpty(r.Owner, "Owner")...)
	result = append(result, validation.ValidateNotEmpty(r.Name, "Name")...)
	result = append(result, validation.ValidateMaxLen(r.Name, 255, "Name")...)
	result = append(result, validation.ValidatePathSegment(r.Owner, "Owner")...)
	result = append(result, validation.ValidatePathSegment(r.Name, "Name")...)
	result = append(result, validation.ValidateNotEmpty(r.HTMLLink, "HTMLLink")...)
	if r.HTMLLink != "" {
		if u, err := url.Parse(r.HTMLLink); err != nil || u.Host == "" {
			result = append(result, fmt.Sprintf("HTMLLink has to be an absolute URL but was: %v", r.HTMLLink))
		}
	}
	for _, topic := range r.Topics {
		result = append(result, validation.ValidateMaxLen(topic, 50, "Topic")...)
	}
	return result
}

// WebsiteLink returns the website if the repository has one
func (r *Repository) WebsiteLink() optional.Option[string] {
	return optional.FromNonDefault(r.Website)
}

// DescriptionText returns the description if the repository has one
func (r *Repository) DescriptionText() optional.Option[string] {
	return optional.FromNonDefault(r.Description)
}

// NormalizeTopics trims, deduplicates and sorts tags, order carries no meaning
func NormalizeTopics(tags []string) []string {
	topics := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		topics = append(topics, tag)
	}
	slices.Sort(topics)
	return slices.Compact(topics)
}
