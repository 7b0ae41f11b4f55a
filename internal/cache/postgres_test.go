package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testPostgresCredential = "tracker-test"

func newPostgresContainer(ctx context.Context, t *testing.T) string {
	t.Helper()

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       testPostgresCredential,
				"POSTGRES_USER":     testPostgresCredential,
				"POSTGRES_PASSWORD": testPostgresCredential,
			},
			WaitingFor: wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(cont) })

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		testPostgresCredential, testPostgresCredential, host, port.Port(), testPostgresCredential)
}

func TestPostgresStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container tests need docker")
	}

	ctx := context.Background()
	store, err := Open(ctx, newPostgresContainer(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.IsType(t, &PostgresStore{}, store)

	testContract(t, store)
}
