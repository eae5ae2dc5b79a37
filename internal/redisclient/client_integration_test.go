//go:build integration

package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := NewClient(endpoint, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestIdempotencyRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, found, err := c.LookupResult(ctx, "repair-orders:abc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.RememberResult(ctx, "repair-orders:abc", "RO000001", time.Minute))

	result, found, err := c.LookupResult(ctx, "repair-orders:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "RO000001", result)
}

func TestLockIsExclusive(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "repair-orders:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "repair-orders:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "repair-orders:abc"))

	ok, err = c.AcquireLock(ctx, "repair-orders:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
