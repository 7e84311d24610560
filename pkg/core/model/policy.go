// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
)

// LockPolicy decides what happens when the shared store which keeps
// the locks is unreachable. A busy lock is always reported to the
// caller, regardless of this policy.
type LockPolicy int

// Valid values for the LockPolicy enum.
const (
	LockPolicyInvalid LockPolicy = iota // zero value is invalid

	// LockPolicyStrict fails the operation when locks are unavailable.
	LockPolicyStrict
	// LockPolicyDegraded runs the critical section without mutual
	// exclusion when locks are unavailable. Only the conditional writes
	// of the critical section remain as a protection against races.
	LockPolicyDegraded
)

// ErrUnknownLockPolicy indicates that a given string may not be parsed
// as a known lock policy.
var ErrUnknownLockPolicy = errors.New("unknown lock policy")

// Validate returns nil if LockPolicy value is valid.
func (p LockPolicy) Validate() error {
	switch p {
	case LockPolicyStrict, LockPolicyDegraded:
		return nil
	default:
		return fmt.Errorf("invalid lock policy: %d", int(p))
	}
}

// String converts the LockPolicy enum to a string. Invalid values
// cause a panic.
func (p LockPolicy) String() string {
	switch p {
	case LockPolicyStrict:
		return "strict"
	case LockPolicyDegraded:
		return "degraded"
	default:
		panic(p.Validate())
	}
}

// ParseLockPolicy parses the given string and returns a LockPolicy.
func ParseLockPolicy(s string) (LockPolicy, error) {
	switch s {
	case "strict":
		return LockPolicyStrict, nil
	case "degraded":
		return LockPolicyDegraded, nil
	default:
		return LockPolicyInvalid, ErrUnknownLockPolicy
	}
}

// LimitPolicy decides the rate limiter verdict when the shared store
// which keeps the counters is unreachable.
type LimitPolicy int

// Valid values for the LimitPolicy enum.
const (
	LimitPolicyInvalid LimitPolicy = iota // zero value is invalid

	// LimitPolicyFailOpen allows calls when counters are unavailable.
	LimitPolicyFailOpen
	// LimitPolicyFailClosed rejects calls when counters are unavailable.
	LimitPolicyFailClosed
)

// ErrUnknownLimitPolicy indicates that a given string may not be parsed
// as a known limiter policy.
var ErrUnknownLimitPolicy = errors.New("unknown limiter policy")

// Validate returns nil if LimitPolicy value is valid.
func (p LimitPolicy) Validate() error {
	switch p {
	case LimitPolicyFailOpen, LimitPolicyFailClosed:
		return nil
	default:
		return fmt.Errorf("invalid limiter policy: %d", int(p))
	}
}

// String converts the LimitPolicy enum to a string. Invalid values
// cause a panic.
func (p LimitPolicy) String() string {
	switch p {
	case LimitPolicyFailOpen:
		return "fail-open"
	case LimitPolicyFailClosed:
		return "fail-closed"
	default:
		panic(p.Validate())
	}
}

// ParseLimitPolicy parses the given string and returns a LimitPolicy.
func ParseLimitPolicy(s string) (LimitPolicy, error) {
	switch s {
	case "fail-open":
		return LimitPolicyFailOpen, nil
	case "fail-closed":
		return LimitPolicyFailClosed, nil
	default:
		return LimitPolicyInvalid, ErrUnknownLimitPolicy
	}
}
