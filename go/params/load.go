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
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads a parameter file. The file is applied on top of the parameter
// set of the version it names (or the latest version if none is named), so
// it only needs to list overrides. Unknown keys are rejected.
func Load(path string) (Params, error) {
	var header struct {
		Version ProtocolVersion `toml:"version"`
	}
	if _, err := toml.DecodeFile(path, &header); err != nil {
		return Params{}, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	version := header.Version
	if version == 0 {
		version = LatestVersion
	}
	res, err := ForVersion(version)
	if err != nil {
		return Params{}, err
	}
	meta, err := toml.DecodeFile(path, &res)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return Params{}, fmt.Errorf("unknown parameters in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := res.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid parameters in %s: %w", path, err)
	}
	return res, nil
}
