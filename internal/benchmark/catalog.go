// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"fmt"
	"sync"
)

// =============================================================================
// WORKLOAD CATALOG
// =============================================================================

// Catalog is an ordered registry of workload descriptors. Registration order
// is run order. Descriptors are copied in and never mutated afterwards.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Descriptor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]Descriptor)}
}

// Register adds d to the catalog.
func (c *Catalog) Register(d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateWorkload, d.ID)
	}
	c.byID[d.ID] = d
	c.order = append(c.order, d.ID)
	return nil
}

// MustRegister is Register for static catalogs; it panics on error.
func (c *Catalog) MustRegister(ds ...Descriptor) {
	for _, d := range ds {
		if err := c.Register(d); err != nil {
			panic(err)
		}
	}
}

// Get returns the descriptor with the given id.
func (c *Catalog) Get(id string) (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownWorkload, id)
	}
	return d, nil
}

// All returns every descriptor in registration order.
func (c *Catalog) All() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Descriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Suite returns the descriptors that take part in s, in registration order.
func (c *Catalog) Suite(s Suite) []Descriptor {
	var out []Descriptor
	for _, d := range c.All() {
		if d.Suites.Has(s) {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered workloads.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Filter returns a new catalog holding only the listed ids, in this catalog's
// order. Unknown ids are an error.
func (c *Catalog) Filter(ids []string) (*Catalog, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, err := c.Get(id); err != nil {
			return nil, err
		}
		want[id] = true
	}

	out := NewCatalog()
	for _, d := range c.All() {
		if want[d.ID] {
			if err := out.Register(d); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
