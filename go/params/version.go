// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package params

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ProtocolVersion identifies a set of execution rules. Changing gas tables
// or limits requires a new protocol version.
type ProtocolVersion int

const (
	V1_Genesis ProtocolVersion = iota + 1
	V2_AccessLists
	V99_UnknownNextVersion ProtocolVersion = 99
)

// LatestVersion is the most recent version with a defined parameter set.
const LatestVersion = V2_AccessLists

func (v ProtocolVersion) String() string {
	switch v {
	case V1_Genesis:
		return "Genesis"
	case V2_AccessLists:
		return "AccessLists"
	case V99_UnknownNextVersion:
		return "UnknownNextVersion"
	default:
		return fmt.Sprintf("ProtocolVersion(%d)", v)
	}
}

func (v ProtocolVersion) MarshalText() ([]byte, error) {
	s := v.String()
	reg := regexp.MustCompile(`ProtocolVersion\([0-9]+\)`)
	if reg.MatchString(s) {
		return nil, &json.UnsupportedValueError{Str: s}
	}
	return []byte(s), nil
}

func (v *ProtocolVersion) UnmarshalText(data []byte) error {
	var version ProtocolVersion
	switch string(data) {
	case "Genesis":
		version = V1_Genesis
	case "AccessLists":
		version = V2_AccessLists
	case "UnknownNextVersion":
		version = V99_UnknownNextVersion
	default:
		return fmt.Errorf("unknown protocol version %q", string(data))
	}
	*v = version
	return nil
}
