// Copyright 2023 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge

import (
	"codeberg.org/forgeflux/starchart/modules/validation"

	"github.com/valyala/fastjson"
)

// SoftwareName is the software.name field of a NodeInfo document
type SoftwareName string

const (
	ForgejoSoftware SoftwareName = "forgejo"
	GiteaSoftware   SoftwareName = "gitea"
)

// softwareTypes maps the NodeInfo software names onto the forge type registry
var softwareTypes = map[SoftwareName]Type{
	ForgejoSoftware: TypeGitea,
	GiteaSoftware:   TypeGitea,
}

var knownSoftware = []any{
	ForgejoSoftware, GiteaSoftware,
}

// NodeInfo data type
type NodeInfo struct {
	SoftwareName SoftwareName
}

func NodeInfoUnmarshalJSON(data []byte) (NodeInfo, error) {
	p := fastjson.Parser{}
	val, err := p.ParseBytes(data)
	if err != nil {
		return NodeInfo{}, err
	}
	source := string(val.GetStringBytes("software", "name"))
	return NodeInfo{SoftwareName: SoftwareName(source)}, nil
}

// NewNodeInfo parses a NodeInfo document. Created struct is asserted to be valid
func NewNodeInfo(body []byte) (NodeInfo, error) {
	result, err := NodeInfoUnmarshalJSON(body)
	if err != nil {
		return NodeInfo{}, err
	}

	if valid, err := validation.IsValid(result); !valid {
		return NodeInfo{}, err
	}
	return result, nil
}

// Validate collects error strings in a slice and returns this
func (node NodeInfo) Validate() []string {
	var result []string
	result = append(result, validation.ValidateNotEmpty(string(node.SoftwareName), "node.SoftwareName")...)
	result = append(result, validation.ValidateOneOf(node.SoftwareName, knownSoftware, "node.SoftwareName")...)

	return result
}

// ForgeType returns the registry entry serving this software
func (node NodeInfo) ForgeType() Type {
	return softwareTypes[node.SoftwareName]
}

// TypeFromNodeInfo derives the forge type from a NodeInfo document
func TypeFromNodeInfo(body []byte) (Type, error) {
	node, err := NewNodeInfo(body)
	if err != nil {
		return "", err
	}
	return node.ForgeType(), nil
}
