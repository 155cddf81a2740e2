//go:build integration

package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"candidate-onboarding/internal/notify"
	"candidate-onboarding/pkg/testutil/containers"
)

type RedisClaimIntegrationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *notify.RedisClaimStore
}

func TestRedisClaimIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisClaimIntegrationSuite))
}

func (s *RedisClaimIntegrationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = notify.NewRedisClaimStore(s.redis.Client, 30*time.Second)
}

func (s *RedisClaimIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

// TestConcurrentAcquireSingleWinner verifies SETNX admits exactly one
// claimant against a real server.
func (s *RedisClaimIntegrationSuite) TestConcurrentAcquireSingleWinner() {
	ctx := context.Background()
	const claimants = 20

	var wg sync.WaitGroup
	wins := make(chan bool, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, _, err := s.store.TryAcquire(ctx, "offer-notice:1")
			s.NoError(err)
			wins <- acquired
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for acquired := range wins {
		if acquired {
			winners++
		}
	}
	s.Equal(1, winners)
}

func (s *RedisClaimIntegrationSuite) TestSentStateSurvivesRelease() {
	ctx := context.Background()
	const key = "offer-notice:2"

	acquired, _, err := s.store.TryAcquire(ctx, key)
	s.Require().NoError(err)
	s.Require().True(acquired)
	s.Require().NoError(s.store.MarkSent(ctx, key))

	s.Require().NoError(s.store.Release(ctx, key))

	acquired, state, err := s.store.TryAcquire(ctx, key)
	s.Require().NoError(err)
	s.False(acquired)
	s.Equal(notify.StateSent, state)
}
