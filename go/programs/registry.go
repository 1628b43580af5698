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
	"sync"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/params"
	"golang.org/x/exp/maps"
)

// This file provides a registry for the programs contracts may run.
//
// A program becomes available by registering a factory for it, typically in
// the init code of the package implementing it. Programs are looked up by
// name, which is also the code installed on accounts running the program.

// Factory is the type of a function creating a program instance for the
// given protocol parameters.
type Factory func(params.Params) (chain.Executable, error)

// Registry maps case-insensitive program names to factories. It is safe for
// concurrent use.
type Registry struct {
	factories map[string]Factory
	lock      sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a new program factory to the registry. An error is returned
// if a factory was bound to the same name before, or the factory is nil.
func (r *Registry) Register(name string, factory Factory) error {
	key := strings.ToLower(name)
	if key == "" {
		return fmt.Errorf("invalid initialization: cannot register program without name")
	}
	if factory == nil {
		return fmt.Errorf("invalid initialization: cannot register nil-factory using `%s`", key)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, found := r.factories[key]; found {
		return fmt.Errorf("invalid initialization: multiple factories registered for `%s`", key)
	}
	r.factories[key] = factory
	return nil
}

// Lookup performs a case-insensitive lookup of the given name. The result
// is nil if no factory was registered under the given name.
func (r *Registry) Lookup(name string) Factory {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.factories[strings.ToLower(name)]
}

// All obtains all registered factories.
func (r *Registry) All() map[string]Factory {
	r.lock.Lock()
	defer r.lock.Unlock()
	return maps.Clone(r.factories)
}

// Names lists the names of all registered programs in no particular order.
func (r *Registry) Names() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return maps.Keys(r.factories)
}

// defaultRegistry holds the built-in programs.
var defaultRegistry = NewRegistry()

// Default returns the registry of built-in programs.
func Default() *Registry {
	return defaultRegistry
}

// RegisterProgram registers a factory in the default registry. It panics
// on failure and is intended to be used by package initialization code.
func RegisterProgram(name string, factory Factory) {
	if err := defaultRegistry.Register(name, factory); err != nil {
		panic(err)
	}
}
