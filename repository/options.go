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

package repository

import (
	"github.com/tomoncle/homebase/types"
	"github.com/tomoncle/homebase/utils"
)

// MultipleRelatedPolicy decides what a singular relation resolves to when
// more than one related entity matches.
type MultipleRelatedPolicy int

const (
	// WarnAndPick logs a warning and resolves to the lowest id.
	WarnAndPick MultipleRelatedPolicy = iota
	// FailOnMultiple fails the resolution with ErrMultipleRelated.
	FailOnMultiple
)

var policyTable = types.EnumTable{
	{Name: "warn-and-pick", Desc: "warn and resolve to the lowest id"},
	{Name: "fail-on-multiple", Desc: "fail with ErrMultipleRelated"},
}

var _ types.BaseEnum = WarnAndPick

func (p MultipleRelatedPolicy) IsValid() bool  { return policyTable.Valid(int(p)) }
func (p MultipleRelatedPolicy) Number() int    { return policyTable.Number(int(p)) }
func (p MultipleRelatedPolicy) String() string { return policyTable.Name(int(p)) }
func (p MultipleRelatedPolicy) Desc() string   { return policyTable.Desc(int(p)) }
func (p MultipleRelatedPolicy) Name() string   { return policyTable.Name(int(p)) }

// Option configures a Repository.
type Option func(*Repository)

// WithLogger replaces the default logger.
func WithLogger(l Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMultipleRelatedPolicy sets the policy for ambiguous singular relations.
func WithMultipleRelatedPolicy(p MultipleRelatedPolicy) Option {
	return func(r *Repository) {
		if p.IsValid() {
			r.policy = p
		}
	}
}

func defaultLogger() Logger {
	return utils.NewFieldLogger("REPOSITORY")
}
