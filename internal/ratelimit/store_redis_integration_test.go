//go:build integration

package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pulsefit/internal/ratelimit"
	"pulsefit/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = ratelimit.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAllowUpToLimit() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := s.store.Allow(ctx, "user-a", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(3-(i+1), result.Remaining)
	}

	result, err := s.store.Allow(ctx, "user-a", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Zero(result.Remaining)
}

func (s *RedisStoreSuite) TestKeysAreIndependent() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "user-a", 1, time.Minute)
	s.Require().NoError(err)

	result, err := s.store.Allow(ctx, "user-b", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisStoreSuite) TestReset() {
	ctx := context.Background()

	denied, err := s.store.Allow(ctx, "user-a", 1, time.Minute)
	s.Require().NoError(err)
	s.True(denied.Allowed)
	s.Require().NoError(s.store.Reset(ctx, "user-a"))

	result, err := s.store.Allow(ctx, "user-a", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

// TestConcurrentAllow checks the shared counter admits exactly limit requests
// even when the increments race.
func (s *RedisStoreSuite) TestConcurrentAllow() {
	ctx := context.Background()
	const attempts = 50
	const limit = 10

	var wg sync.WaitGroup
	results := make([]bool, attempts)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := s.store.Allow(ctx, "shared", limit, time.Minute)
			s.NoError(err)
			results[i] = result.Allowed
		}(i)
	}
	wg.Wait()

	allowed := 0
	for _, ok := range results {
		if ok {
			allowed++
		}
	}
	s.Equal(limit, allowed)
}
