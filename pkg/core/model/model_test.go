// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusRoundTrip(t *testing.T) {
	for _, s := range []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusAssigned,
		model.BookingStatusConfirmed,
		model.BookingStatusCancelled,
	} {
		require.NoError(t, s.Validate())
		p, err := model.ParseBookingStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, p)
	}
	_, err := model.ParseBookingStatus("pending")
	assert.ErrorIs(t, err, model.ErrUnknownBookingStatus)
	assert.Error(t, model.BookingStatusInvalid.Validate())
	assert.Panics(t, func() { _ = model.BookingStatus(42).String() })
}

func TestPartnerStatusRoundTrip(t *testing.T) {
	for _, s := range []string{"online", "offline", "suspended"} {
		p, err := model.ParsePartnerStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, p.String())
	}
	_, err := model.ParsePartnerStatus("busy")
	assert.ErrorIs(t, err, model.ErrUnknownPartnerStatus)
}

func TestPolicies(t *testing.T) {
	lp, err := model.ParseLockPolicy("degraded")
	require.NoError(t, err)
	assert.Equal(t, model.LockPolicyDegraded, lp)
	_, err = model.ParseLockPolicy("lenient")
	assert.ErrorIs(t, err, model.ErrUnknownLockPolicy)
	assert.Error(t, model.LockPolicyInvalid.Validate())

	rp, err := model.ParseLimitPolicy("fail-closed")
	require.NoError(t, err)
	assert.Equal(t, "fail-closed", rp.String())
	_, err = model.ParseLimitPolicy("open")
	assert.ErrorIs(t, err, model.ErrUnknownLimitPolicy)
}

func TestBookingAssignable(t *testing.T) {
	pid := uuid.New()
	b := &model.Booking{Status: model.BookingStatusPending}
	assert.True(t, b.Assignable())
	b.PartnerID = &pid
	assert.False(t, b.Assignable())
	b.PartnerID = nil
	b.Status = model.BookingStatusCancelled
	assert.False(t, b.Assignable())
}

func TestAssignLockKey(t *testing.T) {
	bid := uuid.MustParse("6f1c1c53-7a5e-4a3e-9d0b-0c1f9a1f2b3c")
	assert.Equal(t,
		"booking:6f1c1c53-7a5e-4a3e-9d0b-0c1f9a1f2b3c:assign",
		model.AssignLockKey(bid),
	)
	assert.NotEqual(t, model.AssignLockKey(bid), model.AssignLockKey(uuid.New()))
}

func TestPartnerGPSPayload(t *testing.T) {
	pid := uuid.MustParse("0b3e2c6a-3d1f-4c59-9a43-5b0f2a6f7e11")
	b, err := json.Marshal(model.PartnerGPS{PartnerID: pid, Lat: 19.2, Lng: 72.82})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"partnerId":"0b3e2c6a-3d1f-4c59-9a43-5b0f2a6f7e11","lat":19.2,"lng":72.82}`,
		string(b),
	)
	assert.Equal(t, model.ChannelPartnerGPS, model.PartnerGPS{}.Channel())
	assert.Equal(t, model.ChannelBookingConfirmed, model.BookingConfirmed{}.Channel())
}

func TestBookingStatusJSON(t *testing.T) {
	var b struct {
		Status model.BookingStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ASSIGNED"}`), &b))
	assert.Equal(t, model.BookingStatusAssigned, b.Status)
	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ASSIGNED"}`, string(out))
}

func TestSemVer(t *testing.T) {
	var sv model.SemVer
	require.NoError(t, sv.UnmarshalText([]byte("2.1")))
	assert.Equal(t, model.SemVer{2, 1, 0}, sv)
	assert.Equal(t, "2.1.0", sv.String())
	assert.Error(t, sv.UnmarshalText([]byte("1.2.3.4")))
	assert.Error(t, sv.UnmarshalText([]byte("1.-2")))
	assert.Equal(t, model.SemVer{2, 1, 0}, sv)

	assert.True(t, model.SemVer{1, 2, 0}.Compatible(model.SemVer{1, 1, 7}))
	assert.False(t, model.SemVer{1, 2, 0}.Compatible(model.SemVer{1, 3, 0}))
	assert.False(t, model.SemVer{1, 2, 0}.Compatible(model.SemVer{2, 0, 0}))
}
