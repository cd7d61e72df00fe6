// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge

import (
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/hostname"
	"codeberg.org/forgeflux/starchart/modules/timeutil"
	"codeberg.org/forgeflux/starchart/modules/validation"
)

// Instance is a registered forge, keyed by its normalized hostname
type Instance struct {
	ID        int64              `xorm:"pk autoincr"`
	Hostname  string             `xorm:"UNIQUE NOT NULL VARCHAR(255)"`
	ForgeType Type               `xorm:"VARCHAR(32) NOT NULL"`
	Created   timeutil.TimeStamp `xorm:"created"`
	Updated   timeutil.TimeStamp `xorm:"updated"`
}

// TableName returns the table name of forge instances
func (Instance) TableName() string {
	return "forge_instance"
}

// NewInstance creates an Instance for an already normalized hostname. Created struct is asserted to be valid
func NewInstance(host string, forgeType Type) (*Instance, error) {
	result := &Instance{
		Hostname:  host,
		ForgeType: forgeType,
	}
	if valid, err := validation.IsValid(result); !valid {
		return nil, err
	}
	return result, nil
}

// Validate collects error strings in a slice and returns this
func (instance Instance) Validate() []string {
	var result []string
	result = append(result, validation.ValidateNotEmpty(instance.Hostname, "Hostname")...)
	result = append(result, validation.ValidateMaxLen(instance.Hostname, 255, "Hostname")...)
	result = append(result, validation.ValidateNotEmpty(string(instance.ForgeType), "ForgeType")...)
	if instance.Hostname != "" {
		if normalized, err := hostname.Normalize(instance.Hostname); err != nil {
			result = append(result, err.Error())
		} else if normalized != instance.Hostname {
			result = append(result, fmt.Sprintf("Hostname has to be normalized but was: %v", instance.Hostname))
		}
	}
	return result
}

// Host returns the bare host of the instance, used for DNS names and export directories
func (instance *Instance) Host() string {
	return hostname.Host(instance.Hostname)
}
