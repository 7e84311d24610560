// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momeni/rentdispatch/pkg/adapter/config/settings"
)

func ExampleDuration_String() {
	for _, d := range []time.Duration{
		90 * time.Second, 2 * time.Minute, 3 * time.Hour, 500 * time.Millisecond,
	} {
		fmt.Println(settings.Duration(d).String())
	}
	// Output:
	// 1m30s
	// 2m
	// 3h
	// 500ms
}

func TestDurationUnmarshalText(t *testing.T) {
	d := settings.Duration(time.Second)
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, settings.Duration(90*time.Second), d)
	assert.Error(t, d.UnmarshalText([]byte("soon")))
	assert.Equal(t, settings.Duration(90*time.Second), d, "kept on errors")
}

func TestVerifyRange(t *testing.T) {
	minb, maxb := settings.Duration(time.Second), settings.Duration(30*time.Second)
	ttl := settings.Duration(time.Minute)
	err := settings.VerifyRange("lock-ttl", &ttl, minb, maxb)
	var re *settings.RangeError[settings.Duration]
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ttl, re.Value)
	assert.EqualError(t, err, "lock-ttl (1m) is outside of [1s, 30s]")
	assert.Equal(t, settings.Duration(time.Minute), ttl, "never clamped")

	ttl = settings.Duration(5 * time.Second)
	assert.NoError(t, settings.VerifyRange("lock-ttl", &ttl, minb, maxb))
	assert.NoError(t, settings.VerifyRange("lock-ttl", &minb, minb, maxb))
	assert.NoError(t, settings.VerifyRange("lock-ttl", nil, minb, maxb))

	err = settings.VerifyRange[settings.Duration]("lock-ttl", nil, maxb, minb)
	assert.EqualError(t, err,
		"lock-ttl boundaries are empty: minimum 30s is greater than maximum 1s")

	n := 0
	assert.Error(t, settings.VerifyRange("limit", &n, 1, 10))
}

func TestDefaultAndOverride(t *testing.T) {
	var s *string
	settings.Default(&s, "a")
	assert.Equal(t, "a", *s)
	settings.Default(&s, "b")
	assert.Equal(t, "a", *s)

	settings.Override(&s, nil)
	assert.Equal(t, "a", *s)
	c := "c"
	settings.Override(&s, &c)
	c = "d"
	assert.Equal(t, "c", *s, "value is copied")

	var n *int
	settings.Nil2Zero(&n)
	assert.Equal(t, 0, *n)
}
