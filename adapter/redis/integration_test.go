package redis

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/pandaqa/pandaqa"
	"github.com/pandaqa/pandaqa/pandaqatest"
)

func TestRedisTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	suite.Run(t, new(RedisTestSuite))
}

type RedisTestSuite struct {
	suite.Suite
	container *dockertest.Resource
	client    *goredis.Client
	adapter   *Adapter
}

const testVectorDim = 4

func (s *RedisTestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	r, addr, err := startRedisContainer(ctx)
	if err != nil {
		log.Fatalf("could not start redis container: %s", err)
	}
	s.container = r

	s.client = goredis.NewClient(&goredis.Options{Addr: addr})

	s.adapter, err = New(ctx, s.client, WithVectorDim(testVectorDim))
	s.Require().NoError(err)
}

func (s *RedisTestSuite) TearDownSuite() {
	s.Require().NoError(s.client.Close())
}

func (s *RedisTestSuite) SetupTest() {
	ctx, cancel := testContext()
	defer cancel()

	s.Require().NoError(s.adapter.Clear(ctx))
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func startRedisContainer(ctx context.Context) (*dockertest.Resource, string, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, "", fmt.Errorf("could not construct pool: %w", err)
	}

	if err := pool.Client.Ping(); err != nil {
		return nil, "", fmt.Errorf("could not connect to Docker: %w", err)
	}

	r, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis/redis-stack-server",
		Tag:        "7.4.0-v0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, "", fmt.Errorf("could not start resource: %w", err)
	}

	r.Expire(120)

	addr := fmt.Sprintf("localhost:%s", r.GetPort("6379/tcp"))

	if err := pool.Retry(func() error {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		defer client.Close()
		return client.Ping(ctx).Err()
	}); err != nil {
		return nil, "", fmt.Errorf("could not connect to redis: %w", err)
	}

	return r, addr, nil
}

var gen = pandaqatest.New(time.Now().UnixNano(), time.Now())

func (s *RedisTestSuite) TestSaveAndSearchChunks() {
	ctx, cancel := testContext()
	defer cancel()

	chunks := []pandaqa.Chunk{
		gen.Chunk(pandaqatest.WithChunkText("red apples taste sweet")),
		gen.Chunk(pandaqatest.WithChunkText("bicycles have two wheels")),
	}
	vectors := []pandaqa.Vector{
		{1, 0, 0, 0},
		{0, 0, 0, 1},
	}

	s.Require().NoError(s.adapter.SaveChunks(ctx, chunks, vectors))

	results, err := s.adapter.SearchChunks(ctx, pandaqa.ChunkFilter{
		Vector: pandaqa.Vector{1, 0, 0, 0},
	}, 2)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("red apples taste sweet", results[0].Text)
	s.Greater(results[0].Score, results[1].Score)
	s.GreaterOrEqual(results[0].Score, 0.0)
	s.LessOrEqual(results[0].Score, 1.0)
}

func (s *RedisTestSuite) TestCountAndClear() {
	ctx, cancel := testContext()
	defer cancel()

	chunks := []pandaqa.Chunk{gen.Chunk(), gen.Chunk(), gen.Chunk()}
	vectors := []pandaqa.Vector{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}}

	s.Require().NoError(s.adapter.SaveChunks(ctx, chunks, vectors))

	count, err := s.adapter.CountChunks(ctx)
	s.Require().NoError(err)
	s.Equal(3, count)

	s.Require().NoError(s.adapter.Clear(ctx))

	count, err = s.adapter.CountChunks(ctx)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *RedisTestSuite) TestDeleteFileChunks() {
	ctx, cancel := testContext()
	defer cancel()

	fileID := pandaqa.NewFileID()
	chunks := []pandaqa.Chunk{
		gen.Chunk(pandaqatest.WithChunkFileID(fileID)),
		gen.Chunk(),
	}
	vectors := []pandaqa.Vector{{1, 0, 0, 0}, {0, 1, 0, 0}}

	s.Require().NoError(s.adapter.SaveChunks(ctx, chunks, vectors))
	s.Require().NoError(s.adapter.DeleteFileChunks(ctx, fileID))

	count, err := s.adapter.CountChunks(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}
