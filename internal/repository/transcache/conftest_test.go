package transcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/kv"
)

type mockTranslator struct {
	out   string
	err   error
	calls int
}

func (m *mockTranslator) Translate(_ context.Context, _, _ string) (string, error) {
	m.calls++
	return m.out, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, kv.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedTranslator(t *testing.T, inner *mockTranslator) (*CachedTranslator, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, time.Hour, nil, zap.NewNop()), ms
}
