//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance with the full
// application schema applied.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DB        *sql.DB
	URL       string
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("hrportal"),
		tcpostgres.WithUsername("hrportal"),
		tcpostgres.WithPassword("hrportal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{Container: container, DB: db, URL: url}
	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})
	return pc
}

// Truncate empties all tables. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE approval_history, notifications, emergency_contacts, absence_requests, users CASCADE`)
	return err
}

const schema = `
CREATE TABLE users (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	supervisor_id UUID REFERENCES users (id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE absence_requests (
	id UUID PRIMARY KEY,
	employee_id UUID NOT NULL REFERENCES users (id),
	request_type TEXT NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ NOT NULL,
	total_days DOUBLE PRECISION NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	current_approval_stage TEXT NOT NULL,
	approved_by UUID REFERENCES users (id),
	approved_date TIMESTAMPTZ,
	rejected_by UUID REFERENCES users (id),
	rejected_date TIMESTAMPTZ,
	rejection_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX absence_requests_employee_idx ON absence_requests (employee_id, created_at);

CREATE TABLE approval_history (
	id UUID PRIMARY KEY,
	request_id UUID NOT NULL REFERENCES absence_requests (id),
	approver_id UUID NOT NULL REFERENCES users (id),
	approval_stage TEXT NOT NULL,
	action TEXT NOT NULL,
	comments TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX approval_history_request_idx ON approval_history (request_id, created_at);

CREATE TABLE notifications (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users (id),
	request_id UUID REFERENCES absence_requests (id),
	kind TEXT NOT NULL,
	message TEXT NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	read_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX notifications_user_idx ON notifications (user_id, created_at DESC);

CREATE TABLE emergency_contacts (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users (id),
	name TEXT NOT NULL,
	relationship TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX emergency_contacts_user_idx ON emergency_contacts (user_id, created_at);
`
