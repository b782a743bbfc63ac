package testing

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/db"
	"github.com/neurondb/NeuronFlow/internal/engine"
	"github.com/neurondb/NeuronFlow/internal/logging"
)

/* TestDB holds test database connection */
type TestDB struct {
	DB           *db.DB
	NodePaths    *db.NodePathQueries
	Participants *db.ParticipantQueries
}

var sqliteSeq atomic.Int64

/* SetupTestDB opens a private in-memory SQLite database with the schema applied */
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	/* shared-cache name keeps the database private to this test */
	dsn := fmt.Sprintf("file:neuronflow_test_%d?mode=memory&cache=shared", sqliteSeq.Add(1))
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	return setup(t, db.New(conn, config.FlavorSQLite))
}

/* SetupPostgresTestDB connects to a testcontainers PostgreSQL; skipped when Docker is unavailable */
func SetupPostgresTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := GetPostgresDSN(t)
	conn, err := sqlx.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("Failed to open postgres: %v", err)
	}
	tdb := setup(t, db.New(conn, config.FlavorPostgres))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tdb.DB.Truncate(ctx); err != nil {
		t.Fatalf("Failed to truncate: %v", err)
	}
	return tdb
}

func setup(t *testing.T, d *db.DB) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.PingContext(ctx); err != nil {
		d.Close()
		t.Fatalf("Failed to ping test database: %v", err)
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	return &TestDB{
		DB:           d,
		NodePaths:    db.NewNodePathQueries(d),
		Participants: db.NewParticipantQueries(d),
	}
}

/* TestLogger returns a logger that discards output */
func TestLogger() *logging.Logger {
	return logging.Nop()
}

/* NewCreateNodePathModel builds a valid create model for tests */
func NewCreateNodePathModel(name string, parent, schema uuid.UUID, actions ...engine.Action) *engine.CreateNodePathModel {
	if actions == nil {
		actions = []engine.Action{}
	}
	return &engine.CreateNodePathModel{
		Type:         engine.ActionTypeSendMessage,
		Name:         name,
		ParentNodeId: parent,
		SchemaId:     schema,
		Actions:      actions,
	}
}

/* CreateTestNodePath inserts a node path with the given name */
func CreateTestNodePath(ctx context.Context, q *db.NodePathQueries, name string, parent, schema uuid.UUID) (*engine.NodePath, error) {
	return q.CreateNodePath(ctx, NewCreateNodePathModel(name, parent, schema))
}
