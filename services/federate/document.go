// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package federate

import (
	"codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	user_model "codeberg.org/forgeflux/starchart/models/user"
)

const (
	instanceFile    = "instance.yml"
	usersDir        = "users"
	repositoriesDir = "repositories"
	documentExt     = ".yml"
)

// Instance is the document stored as <host>/instance.yml
type Instance struct {
	Hostname  string `yaml:"hostname"`
	ForgeType string `yaml:"forge_type"`
}

// User is the document stored as <host>/users/<username>.yml
type User struct {
	Username     string `yaml:"username"`
	Hostname     string `yaml:"hostname"`
	HTMLLink     string `yaml:"html_link"`
	ProfilePhoto string `yaml:"profile_photo,omitempty"`
}

// Repository is the document stored as <host>/repositories/<owner>/<name>.yml
type Repository struct {
	Name        string   `yaml:"name"`
	Owner       string   `yaml:"owner"`
	Hostname    string   `yaml:"hostname"`
	HTMLLink    string   `yaml:"html_link"`
	Website     string   `yaml:"website,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags"`
}

// Snapshot holds every document of a bundle
type Snapshot struct {
	Instances    []*Instance
	Users        []*User
	Repositories []*Repository
}

func instanceDocument(instance *forge.Instance) *Instance {
	return &Instance{
		Hostname:  instance.Hostname,
		ForgeType: instance.ForgeType.String(),
	}
}

func userDocument(u *user_model.User) *User {
	return &User{
		Username:     u.Username,
		Hostname:     u.Hostname,
		HTMLLink:     u.HTMLLink,
		ProfilePhoto: u.ProfilePhoto,
	}
}

func repositoryDocument(r *repo_model.Repository) *Repository {
	tags := r.Topics
	if tags == nil {
		tags = []string{}
	}
	return &Repository{
		Name:        r.Name,
		Owner:       r.Owner,
		Hostname:    r.Hostname,
		HTMLLink:    r.HTMLLink,
		Website:     r.Website,
		Description: r.Description,
		Tags:        tags,
	}
}
