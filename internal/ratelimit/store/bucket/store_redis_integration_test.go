//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"riskflow/internal/ratelimit"
	"riskflow/internal/ratelimit/store/bucket"
	"riskflow/pkg/testutil/containers"
)

type RedisBucketSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
}

func TestRedisBucketSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketSuite))
}

func (s *RedisBucketSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedis(s.redis.Client)
}

func (s *RedisBucketSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketSuite) TestLimitIsEnforced() {
	ctx := context.Background()
	key := ratelimit.SubmissionKey("svc-intake")
	for i := range 3 {
		res, err := s.store.Allow(ctx, key, 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}

	res, err := s.store.Allow(ctx, key, 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)
}

func (s *RedisBucketSuite) TestWindowExpires() {
	ctx := context.Background()
	key := ratelimit.SubmissionKey("svc-short")
	_, err := s.store.Allow(ctx, key, 1, 100*time.Millisecond)
	s.Require().NoError(err)

	time.Sleep(150 * time.Millisecond)

	res, err := s.store.Allow(ctx, key, 1, 100*time.Millisecond)
	s.Require().NoError(err)
	s.True(res.Allowed)
}
