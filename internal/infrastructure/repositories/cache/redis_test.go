package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisClient es un mock del cliente Redis
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewStringCmd(ctx, "get", key)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if args.Error(0) != nil {
		cmd.SetErr(args.Error(0))
	} else {
		cmd.SetVal("OK")
	}
	return cmd
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	cmd := redis.NewIntCmd(ctx, "del")
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(int64(args.Int(0)))
	}
	return cmd
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	cmd := redis.NewStatusCmd(ctx, "ping")
	if args.Error(0) != nil {
		cmd.SetErr(args.Error(0))
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestRedisCache_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		mockVal   string
		mockErr   error
		wantVal   string
		wantErrIs error
		wantErr   bool
	}{
		{name: "hit", mockVal: `{"price_usd":1}`, wantVal: `{"price_usd":1}`},
		{name: "redis.Nil es ErrKeyNotFound", mockErr: redis.Nil, wantErrIs: ErrKeyNotFound, wantErr: true},
		{name: "falla de conexión se propaga", mockErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockRedisClient)
			client.On("Get", ctx, "k").Return(tt.mockVal, tt.mockErr)

			got, err := newRedisCache(client).Get(ctx, "k")
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				} else {
					assert.False(t, IsMiss(err))
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantVal, got)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestRedisCache_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("usa SET con expiración", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Set", ctx, "k", "v", 5*time.Minute).Return(nil)

		require.NoError(t, newRedisCache(client).Set(ctx, "k", "v", 5*time.Minute))
		client.AssertExpectations(t)
	})

	t.Run("ttl cero borra la clave", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Del", ctx, []string{"k"}).Return(1, nil)

		require.NoError(t, newRedisCache(client).Set(ctx, "k", "v", 0))
		client.AssertExpectations(t)
		client.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error de escritura", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Set", ctx, "k", "v", time.Minute).Return(errors.New("READONLY"))

		assert.Error(t, newRedisCache(client).Set(ctx, "k", "v", time.Minute))
	})
}

func TestRedisCache_DeletePingClose(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedisClient)
	client.On("Del", ctx, []string{"k"}).Return(1, nil)
	client.On("Ping", ctx).Return(nil)
	client.On("Close").Return(nil)

	cache := newRedisCache(client)
	assert.NoError(t, cache.Delete(ctx, "k"))
	assert.NoError(t, cache.Ping(ctx))
	assert.NoError(t, cache.Close())
	client.AssertExpectations(t)
}
