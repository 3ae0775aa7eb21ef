/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package model

import "context"

// Resolver computes the value of a lazy property on first read.
type Resolver func(ctx context.Context) (interface{}, error)

// LazyState is the state of a Lazy cell.
type LazyState int

const (
	LazyUnbound LazyState = iota
	LazyUnresolved
	LazyResolved
)

// Lazy holds a deferred value. A bound resolver runs at most once per
// Unresolved to Resolved transition; Invalidate allows it to run again.
type Lazy struct {
	state    LazyState
	resolver Resolver
	value    interface{}
}

// Bind installs a resolver and discards any resolved value.
func (l *Lazy) Bind(r Resolver) {
	l.resolver = r
	l.value = nil
	if r == nil {
		l.state = LazyUnbound
		return
	}
	l.state = LazyUnresolved
}

// Assign stores a resolved value directly.
func (l *Lazy) Assign(v interface{}) {
	l.value = v
	l.state = LazyResolved
}

// Resolve returns the cached value, running the resolver if needed. A failed
// resolution leaves the cell unresolved.
func (l *Lazy) Resolve(ctx context.Context) (interface{}, error) {
	switch l.state {
	case LazyResolved:
		return l.value, nil
	case LazyUnbound:
		return nil, nil
	}
	v, err := l.resolver(ctx)
	if err != nil {
		return nil, err
	}
	l.Assign(v)
	return v, nil
}

// Invalidate drops the cached value. A bound cell resolves again on the
// next read; an unbound one reads as nil.
func (l *Lazy) Invalidate() {
	l.value = nil
	if l.resolver != nil {
		l.state = LazyUnresolved
	} else {
		l.state = LazyUnbound
	}
}

// State returns the current state.
func (l *Lazy) State() LazyState { return l.state }

// IsResolved reports whether a value is cached.
func (l *Lazy) IsResolved() bool { return l.state == LazyResolved }
