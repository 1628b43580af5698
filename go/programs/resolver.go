// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package programs

import (
	"fmt"
	"strings"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/params"
)

// ErrUnknownProgram is returned when resolving code not naming a program.
const ErrUnknownProgram = chain.ConstError("unknown program")

// Resolver maps the code of accounts to program instances. The code of an
// account is the name of the program it runs. All programs are
// instantiated up front, a Resolver is safe for concurrent use.
type Resolver struct {
	programs map[string]chain.Executable
}

// NewResolver instantiates all programs of the registry for the given
// parameters.
func NewResolver(registry *Registry, p params.Params) (*Resolver, error) {
	res := &Resolver{programs: map[string]chain.Executable{}}
	for name, factory := range registry.All() {
		program, err := factory(p)
		if err != nil {
			return nil, fmt.Errorf("failed to create program %s: %w", name, err)
		}
		res.programs[name] = program
	}
	return res, nil
}

func (r *Resolver) Resolve(code chain.Code) (chain.Executable, error) {
	if program, found := r.programs[strings.ToLower(string(code))]; found {
		return program, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, code)
}
