// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package user

import (
	"fmt"
	"net/url"

	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/optional"
	"codeberg.org/forgeflux/starchart/modules/timeutil"
	"codeberg.org/forgeflux/starchart/modules/validation"
)

// User is an account spidered from a forge instance
type User struct {
	ID           int64              `xorm:"pk autoincr"`
	Hostname     string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
	Username     string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
	HTMLLink     string             `xorm:"html_link TEXT NOT NULL"`
	ProfilePhoto string             `xorm:"TEXT"`
	Created      timeutil.TimeStamp `xorm:"created"`
	Updated      timeutil.TimeStamp `xorm:"updated"`
}

// TableName returns the table name of spidered users
func (User) TableName() string {
	return "forge_user"
}

// NewUser creates a User of an already normalized hostname. Created struct is asserted to be valid
func NewUser(host, username, htmlLink string, profilePhoto optional.Option[string]) (*User, error) {
	result := &User{
		Hostname:     host,
		Username:     username,
		HTMLLink:     htmlLink,
		ProfilePhoto: profilePhoto.ValueOrDefault(""),
	}
	if valid, err := validation.IsValid(result); !valid {
		return nil, err
	}
	return result, nil
}

// Validate collects error strings in a slice and returns this
func (u User) Validate() []string {
	var result []string
	result = append(result, validation.ValidateNotEmpty(u.Hostname, "Hostname")...)
	result = append(result, validation.ValidateNotEmpty(u.Username, "Username")...)
	result = append(result, validation.ValidateMaxLen(u.Username, 255, "Username")...)
	result = append(result, validation.ValidatePathSegment(u.Username, "Username")...)
	result = append(result, validateLink(u.HTMLLink, "HTMLLink", true)...)
	result = append(result, validateLink(u.ProfilePhoto, "ProfilePhoto", false)...)
	if normalized, err := hostname.Normalize(u.Hostname); err == nil && normalized != u.Hostname {
		result = append(result, fmt.Sprintf("Hostname has to be normalized but was: %v", u.Hostname))
	}
	return result
}

// PhotoLink returns the profile photo link if the forge published one
func (u *User) PhotoLink() optional.Option[string] {
	return optional.FromNonDefault(u.ProfilePhoto)
}

func validateLink(link, name string, required bool) []string {
	if link == "" {
		if required {
			return validation.ValidateNotEmpty(link, name)
		}
		return []string{}
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return []string{fmt.Sprintf("%v is not a valid URL: %v", name, err)}
	}
	if parsed.Host == "" {
		return []string{fmt.Sprintf("%v has to be absolute", name)}
	}
	return validation.ValidateOneOf(parsed.Scheme, []any{"http", "https"}, name+".Scheme")
}
