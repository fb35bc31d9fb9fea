package reporting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

const snapshotTable = "crm_pipeline_snapshot"

var ErrReportingDisabled = errors.New("replicação de relatórios não configurada")

var snapshotColumns = []string{
	"lead_id", "nome", "email", "telefone", "origem", "temperatura", "finalizado",
	"etapa_id", "etapa_nome", "data_entrada", "lead_created_at", "synced_at",
}

// Dialect holds what differs between the supported SQL targets
type Dialect struct {
	Driver      string
	CreateTable string
	placeholder func(n int) string
	upsertTail  func(cols []string) string
}

var postgresDialect = Dialect{
	Driver: "postgres",
	CreateTable: `CREATE TABLE IF NOT EXISTS ` + snapshotTable + ` (
	lead_id VARCHAR(64) PRIMARY KEY,
	nome VARCHAR(100) NOT NULL,
	email VARCHAR(255),
	telefone VARCHAR(20),
	origem VARCHAR(50),
	temperatura VARCHAR(10),
	finalizado BOOLEAN NOT NULL DEFAULT FALSE,
	etapa_id VARCHAR(64),
	etapa_nome VARCHAR(50),
	data_entrada TIMESTAMPTZ NULL,
	lead_created_at TIMESTAMPTZ NOT NULL,
	synced_at TIMESTAMPTZ NOT NULL
)`,
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	upsertTail: func(cols []string) string {
		sets := make([]string, 0, len(cols))
		for _, c := range cols {
			sets = append(sets, c+" = EXCLUDED."+c)
		}
		return "ON CONFLICT (lead_id) DO UPDATE SET " + strings.Join(sets, ", ")
	},
}

var mysqlDialect = Dialect{
	Driver: "mysql",
	CreateTable: `CREATE TABLE IF NOT EXISTS ` + snapshotTable + ` (
	lead_id VARCHAR(64) PRIMARY KEY,
	nome VARCHAR(100) NOT NULL,
	email VARCHAR(255),
	telefone VARCHAR(20),
	origem VARCHAR(50),
	temperatura VARCHAR(10),
	finalizado BOOLEAN NOT NULL DEFAULT FALSE,
	etapa_id VARCHAR(64),
	etapa_nome VARCHAR(50),
	data_entrada DATETIME NULL,
	lead_created_at DATETIME NOT NULL,
	synced_at DATETIME NOT NULL
)`,
	placeholder: func(int) string { return "?" },
	upsertTail: func(cols []string) string {
		sets := make([]string, 0, len(cols))
		for _, c := range cols {
			sets = append(sets, c+" = VALUES("+c+")")
		}
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	},
}

// DialectFor maps a configured driver name to its dialect
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql":
		return postgresDialect, nil
	case "mysql":
		return mysqlDialect, nil
	}
	return Dialect{}, fmt.Errorf("unsupported reporting driver: %s", driver)
}

// UpsertSQL is the single-row insert-or-update for the snapshot table
func (d Dialect) UpsertSQL() string {
	placeholders := make([]string, len(snapshotColumns))
	for i := range snapshotColumns {
		placeholders[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		snapshotTable,
		strings.Join(snapshotColumns, ", "),
		strings.Join(placeholders, ", "),
		d.upsertTail(snapshotColumns[1:]),
	)
}

// PruneSQL removes leads that were not part of the latest export
func (d Dialect) PruneSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE synced_at < %s", snapshotTable, d.placeholder(1))
}

// Store is the SQL side of the replica
type Store interface {
	Driver() string
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, rows []SnapshotRow, at time.Time) (int, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

type SQLStore struct {
	DB      *sql.DB
	Dialect Dialect
}

// OpenStore connects to the reporting database and checks it is reachable
func OpenStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open reporting database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping reporting database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &SQLStore{DB: db, Dialect: dialect}, nil
}

func (s *SQLStore) Driver() string { return s.Dialect.Driver }

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, s.Dialect.CreateTable)
	return err
}

// Upsert writes all rows in one transaction
func (s *SQLStore) Upsert(ctx context.Context, rows []SnapshotRow, at time.Time) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.UpsertSQL())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.args(at)...); err != nil {
			return 0, fmt.Errorf("failed to upsert lead %s: %w", r.LeadID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *SQLStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, s.Dialect.PruneSQL(), before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func (r SnapshotRow) args(at time.Time) []any {
	var entrada any
	if r.DataEntrada != nil {
		entrada = r.DataEntrada.UTC()
	}
	return []any{
		r.LeadID, r.Nome, nullable(r.Email), nullable(r.Telefone), nullable(r.Origem), nullable(r.Temperatura), r.Finalizado,
		nullable(r.EtapaID), nullable(r.EtapaNome), entrada, r.CreatedAt.UTC(), at.UTC(),
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
