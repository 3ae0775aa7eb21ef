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
	"errors"
	"fmt"
)

var (
	// ErrBadQuery classifies malformed queries.
	ErrBadQuery = errors.New("repository: bad query")

	// ErrBackendFailure classifies execution failures of the backend.
	ErrBackendFailure = errors.New("repository: backend failure")

	// ErrIdentityMissing is returned when a created entity has no id.
	ErrIdentityMissing = errors.New("repository: identity missing")

	// ErrIDCountMismatch is returned when an insert returns fewer or more ids
	// than rows were written.
	ErrIDCountMismatch = errors.New("repository: inserted id count mismatch")

	// ErrMultipleRelated is returned under FailOnMultiple when a singular
	// relation matches more than one entity.
	ErrMultipleRelated = errors.New("repository: multiple related entities")

	// ErrCacheInvalidation is returned when clearing cached query results
	// fails after a successful write.
	ErrCacheInvalidation = errors.New("repository: cache invalidation failed")
)

// QueryError reports a failed build or execution of a query.
type QueryError struct {
	// Op describes the repository operation, e.g. "insert entities".
	Op    string
	Query Query
	// Kind is ErrBadQuery or ErrBackendFailure.
	Kind error
	Err  error
}

func newQueryError(op string, q Query, err error) *QueryError {
	kind := ErrBackendFailure
	if errors.Is(err, ErrBadQuery) {
		kind = ErrBadQuery
	}
	return &QueryError{Op: op, Query: q, Kind: kind, Err: err}
}

// newBuildError classifies a QueryBuilder failure, which is always a bad query.
func newBuildError(op string, err error) *QueryError {
	return &QueryError{Op: op, Kind: ErrBadQuery, Err: err}
}

func (e *QueryError) Error() string {
	if e.Kind == ErrBadQuery {
		return fmt.Sprintf("unable to %s: bad query '%s' has been executed: %v", e.Op, e.Query.Text, e.Err)
	}
	return fmt.Sprintf("unable to %s: backend failure has been encountered: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is matches the failure class as well as the wrapped chain.
func (e *QueryError) Is(target error) bool { return target == e.Kind }

// IsBadQuery reports whether err is a bad query failure.
func IsBadQuery(err error) bool { return errors.Is(err, ErrBadQuery) }

// IsBackendFailure reports whether err is a backend failure.
func IsBackendFailure(err error) bool { return errors.Is(err, ErrBackendFailure) }
