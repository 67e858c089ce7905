package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"eventgate/internal/bootstrap/config"
	"eventgate/internal/infrastructure/persistence/sqlite/model"
)

func TestOpenCreatesDirectoryAndEnablesForeignKeys(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "dir", "engine.sqlite")

	db, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var enabled int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		t.Fatalf("read pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("foreign_keys = %d", enabled)
	}

	before, err := Tables(ctx, db)
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("tables before migrate = %v", before)
	}

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	after, err := Tables(ctx, db)
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if len(after) != len(model.All()) || after[0] != "users" || after[len(after)-1] != "engine_kv" {
		t.Fatalf("tables after migrate = %v", after)
	}
	for _, table := range []string{"users", "events", "submissions", "submission_values", "reminders"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table %s missing", table)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestOpenAppliesPragmasToEveryPooledConnection(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "pool.sqlite")

	db, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: dsn, MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	// Hold every connection at once so the pool has to open distinct ones.
	conns := make([]*sql.Conn, 0, 4)
	t.Cleanup(func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	for i := 0; i < 4; i++ {
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn(%d) error = %v", i, err)
		}
		conns = append(conns, conn)
	}

	for i, conn := range conns {
		var fk, busy int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn %d foreign_keys: %v", i, err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil {
			t.Fatalf("conn %d busy_timeout: %v", i, err)
		}
		if fk != 1 || busy != 5000 {
			t.Fatalf("conn %d foreign_keys=%d busy_timeout=%d", i, fk, busy)
		}
	}
}

func TestSQLiteDSNKeepsExistingParameters(t *testing.T) {
	cases := map[string]string{
		"engine.sqlite":                   "engine.sqlite?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29",
		"file:engine.sqlite?cache=shared": "file:engine.sqlite?cache=shared&_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29",
		"x.db?_pragma=foreign_keys(0)":    "x.db?_pragma=foreign_keys(0)&_pragma=busy_timeout%285000%29",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrateDeclaresCascadingForeignKeys(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "fk.sqlite")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	type foreignKey struct {
		Table    string `gorm:"column:table"`
		From     string `gorm:"column:from"`
		To       string `gorm:"column:to"`
		OnDelete string `gorm:"column:on_delete"`
	}
	want := map[string][]string{
		"users":                nil,
		"events":               {"users.creator_id->user_id"},
		"eligibility_criteria": {"events.event_id->event_id"},
		"inputs":               {"events.event_id->event_id"},
		"event_statistics":     {"events.event_id->event_id"},
		"participants":         {"events.event_id->event_id", "users.user_id->user_id"},
		"submissions":          {"events.event_id->event_id", "participants.p_id->p_id"},
		"submission_values":    {"inputs.input_id->input_id", "submissions.submission_id->submission_id"},
		"reminders":            {"events.event_id->event_id", "participants.p_id->p_id"},
	}
	for table, expected := range want {
		var rows []foreignKey
		if err := db.Raw("SELECT * FROM pragma_foreign_key_list(?)", table).Scan(&rows).Error; err != nil {
			t.Fatalf("foreign_key_list(%s): %v", table, err)
		}
		got := make([]string, 0, len(rows))
		for _, row := range rows {
			if row.OnDelete != "CASCADE" {
				t.Fatalf("%s.%s on_delete = %q, want CASCADE", table, row.From, row.OnDelete)
			}
			got = append(got, row.Table+"."+row.From+"->"+row.To)
		}
		sort.Strings(got)
		if strings.Join(got, ",") != strings.Join(expected, ",") {
			t.Fatalf("%s foreign keys = %v, want %v", table, got, expected)
		}
	}
}
