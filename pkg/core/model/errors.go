// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "errors"

// Sentinel errors of the dispatch domain. Use cases wrap them in
// cerr.Error instances in order to attach the client-visible status,
// so callers should compare them using errors.Is.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrPartnerNotFound = errors.New("partner not found")
	ErrPartnerSuspended = errors.New("partner is suspended")
	ErrAlreadyAssigned = errors.New("booking is already assigned")
	ErrNoOnlinePartner = errors.New("no online partner is available")
	ErrAssignConflict  = errors.New("booking was modified concurrently")
	ErrLockBusy        = errors.New("lock is held by another caller")
	ErrRateLimited     = errors.New("rate limit is exceeded")
)
