//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var databaseHistory = []sampleRelease{
	{"app.Core": {"app.Repo"}, "app.Repo": nil},
	{"app.Core": {"app.Repo"}, "app.Repo": nil, "app.Cache": {"app.Repo"}},
}

// TestClassdriftWithMySQL tests the classdrift CLI with a MySQL backend.
func TestClassdriftWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "classdrift",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/classdrift?parseTime=true", host, port.Port())
	exerciseBackend(t, "mysql", connStr)
}

// TestClassdriftWithPostgres tests the classdrift CLI with a PostgreSQL backend.
func TestClassdriftWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	exerciseBackend(t, "postgresql", connStr)
}

// exerciseBackend runs a full extract and evolve cycle against one database backend.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	env := map[string]string{
		"CLASSDRIFT_STORE_BACKEND":    backend,
		"CLASSDRIFT_STORE_DB_CONNECT": connStr,
		"CLASSDRIFT_RUN_BACKEND":      backend,
		"CLASSDRIFT_RUN_DB_CONNECT":   connStr,
	}
	descriptor := writeSampleHistory(t, "sample", databaseHistory)

	for _, args := range [][]string{
		{"store", "migrate"},
		{"runs", "migrate"},
		{"store", "clear"},
		{"runs", "clear"},
		{"run", descriptor, "--output", "csv"},
		{"evolve", "sample"},
		{"classes", "sample", "--limit", "5"},
		{"class", "sample", "app.Core"},
	} {
		_, err := runClassdrift(t, env, args...)
		require.NoError(t, err, "classdrift %v", args)
	}

	out, err := runClassdrift(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Store Backend: "+backend)
	assert.Contains(t, out, "Snapshots: 2")

	out, err = runClassdrift(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")
}
