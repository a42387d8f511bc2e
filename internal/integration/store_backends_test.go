//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/adapter/store"
	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// exerciseStore runs the same append and schema checks against any backend.
func exerciseStore(ctx context.Context, t *testing.T, backend store.Backend, dsn string) {
	t.Helper()

	s, err := store.Open(ctx, backend, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx, -1, discardLogger()))
	require.NoError(t, s.CheckReadiness(ctx))

	res, err := s.Append(ctx, paradiso())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 25, res.Record.Anomaly)

	incomplete := paradiso()
	incomplete.HistoricalTraffic = nil
	res, err = s.Append(ctx, incomplete)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	// Rolling back drops the table, so appends fail until it is recreated.
	require.NoError(t, s.Migrate(ctx, 0, discardLogger()))
	_, err = s.Append(ctx, paradiso())
	require.ErrorIs(t, err, domain.ErrStore)

	require.NoError(t, s.Reset(ctx))
	res, err = s.Append(ctx, paradiso())
	require.NoError(t, err)
	assert.Equal(t, 25, res.Record.Anomaly)
}

func TestStore_Postgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pizzeria"),
		tcpostgres.WithUsername("pizzeria"),
		tcpostgres.WithPassword("pizzeria"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err, "start postgres container")

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	exerciseStore(ctx, t, store.Postgres, dsn)
}

func TestStore_MySQL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.4",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "secret",
				"MYSQL_DATABASE":      "pizzeria",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("port: 3306  MySQL Community Server"),
				wait.ForListeningPort("3306/tcp"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, mysqlC)
	require.NoError(t, err, "start mysql container")

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	// multiStatements lets migrate run each migration file in one Exec.
	dsn := fmt.Sprintf("root:secret@tcp(%s:%s)/pizzeria?multiStatements=true", host, port.Port())
	exerciseStore(ctx, t, store.MySQL, dsn)
}
