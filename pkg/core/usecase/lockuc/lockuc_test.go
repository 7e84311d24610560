// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lockuc_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kvredis "github.com/momeni/rentdispatch/pkg/adapter/kv/redis"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/usecase/lockuc"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

type downLocker struct{}

func (downLocker) Acquire(context.Context, string, time.Duration) (string, error) {
	return "", errDown
}

func (downLocker) Release(context.Context, string, string) error {
	return errDown
}

func newLocker(t *testing.T) (*miniredis.Miniredis, *kvredis.Locker) {
	srv := miniredis.RunT(t)
	rdb, err := kvredis.Connect(context.Background(), &redis.Options{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return srv, kvredis.NewLocker(rdb)
}

func TestWithLockReleasesAfterRun(t *testing.T) {
	srv, l := newLocker(t)
	uc, err := lockuc.New(l, lockuc.WithTTL(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, uc.TTL())

	ctx := context.Background()
	ran := false
	err = uc.WithLock(ctx, "booking:1:assign", func(ctx context.Context) error {
		ran = true
		assert.True(t, srv.Exists("booking:1:assign"))
		dl, ok := ctx.Deadline()
		assert.True(t, ok, "critical section is bounded by ttl")
		assert.WithinDuration(t, time.Now().Add(3*time.Second), dl, time.Second)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, srv.Exists("booking:1:assign"))

	fail := errors.New("boom")
	err = uc.WithLock(ctx, "booking:1:assign", func(context.Context) error {
		return fail
	})
	assert.ErrorIs(t, err, fail)
	assert.False(t, srv.Exists("booking:1:assign"), "released after failure")

	assert.Panics(t, func() {
		_ = uc.WithLock(ctx, "booking:1:assign", func(context.Context) error {
			panic("boom")
		})
	})
	assert.False(t, srv.Exists("booking:1:assign"), "released after panic")
}

func TestWithLockReportsBusyLock(t *testing.T) {
	srv, l := newLocker(t)
	require.NoError(t, srv.Set("booking:1:assign", "other-holder"))
	uc, err := lockuc.New(l)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, uc.TTL())

	err = uc.WithLock(context.Background(), "booking:1:assign", func(context.Context) error {
		t.Fatal("critical section must not run")
		return nil
	})
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusLocked, ce.HTTPStatusCode)
	assert.Equal(t, cerr.CodeLockBusy, ce.Code)
	assert.ErrorIs(t, err, model.ErrLockBusy)

	v, err := srv.Get("booking:1:assign")
	require.NoError(t, err)
	assert.Equal(t, "other-holder", v, "foreign lock is kept")
}

func TestWithLockPolicyOnUnreachableStore(t *testing.T) {
	strict, err := lockuc.New(downLocker{})
	require.NoError(t, err)
	err = strict.WithLock(context.Background(), "k", func(context.Context) error {
		t.Fatal("critical section must not run")
		return nil
	})
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, model.ErrLockBusy)

	degraded, err := lockuc.New(downLocker{}, lockuc.WithPolicy(model.LockPolicyDegraded))
	require.NoError(t, err)
	ran := false
	err = degraded.WithLock(context.Background(), "k", func(context.Context) error {
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)
}

func TestInvalidOptions(t *testing.T) {
	for name, opts := range map[string][]lockuc.Option{
		"short ttl":      {lockuc.WithTTL(time.Microsecond)},
		"repeated ttl":   {lockuc.WithTTL(time.Second), lockuc.WithTTL(time.Second)},
		"invalid policy": {lockuc.WithPolicy(model.LockPolicyInvalid)},
		"repeated policy": {
			lockuc.WithPolicy(model.LockPolicyStrict),
			lockuc.WithPolicy(model.LockPolicyDegraded),
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := lockuc.New(downLocker{}, opts...)
			assert.Error(t, err)
		})
	}
}
