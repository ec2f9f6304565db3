package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"epic-nft-gallery/internal/storage/clickhouse"
	"epic-nft-gallery/internal/storage/migrations"
)

// newTestConn starts a ClickHouse server and returns a connection to a
// freshly migrated "gallery" database. Teardown is registered with t.Cleanup.
func newTestConn(t *testing.T) *clickhouse.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("clickhouse container test skipped in -short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.3-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_SKIP_USER_SETUP": "1",
			},
			WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate clickhouse: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)

	// The database does not exist yet; migrations create it.
	conn, err := migrations.RunClickhouseMigrations(ctx, fmt.Sprintf("clickhouse://default:@%s/gallery", endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
