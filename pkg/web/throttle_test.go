/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: throttle_test.go
Description: Tests for request pacing.
*/

package web_test

import (
	"context"
	"testing"
	"time"

	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleSpacesAcquires(t *testing.T) {
	const interval = 40 * time.Millisecond
	throttle := web.NewRequestThrottle(interval)
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, throttle.Acquire(ctx))
		stamps = append(stamps, time.Now())
	}
	for i := 1; i < len(stamps); i++ {
		// small slack for timer granularity
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), interval-5*time.Millisecond)
	}
}

func TestThrottleZeroIntervalDoesNotBlock(t *testing.T) {
	throttle := web.NewRequestThrottle(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, throttle.Acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestThrottleAcquireHonoursCancellation(t *testing.T) {
	throttle := web.NewRequestThrottle(time.Hour)
	require.NoError(t, throttle.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, throttle.Acquire(ctx))
}

func TestThrottleSetInterval(t *testing.T) {
	throttle := web.NewRequestThrottle(time.Second)
	assert.Equal(t, time.Second, throttle.MinimumRequestInterval())

	throttle.SetMinimumRequestInterval(0)
	assert.Equal(t, time.Duration(0), throttle.MinimumRequestInterval())

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, throttle.Acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	throttle.SetMinimumRequestInterval(-time.Second)
	assert.Equal(t, time.Duration(0), throttle.MinimumRequestInterval())
}
