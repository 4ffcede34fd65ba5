package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"guardx/internal/common"
	"guardx/internal/domain/model"
	"guardx/internal/platform/config"

	"github.com/jackc/pgx/v5/pgconn"
)

type OperationRepository interface {
	Create(ctx context.Context, op *model.Operation) error
	FindByID(ctx context.Context, id string) (*model.Operation, error)
	// List returns operations newest first.
	List(ctx context.Context, limit, offset int) ([]model.Operation, int, error)
}

type sqlOperationRepository struct {
	db     *sql.DB
	driver string
}

// NewSQLOperationRepository works with both the sqlite3 and pgx drivers.
// Queries are written with ? placeholders and rebound for PostgreSQL.
func NewSQLOperationRepository(db *sql.DB, driver string) OperationRepository {
	return &sqlOperationRepository{db: db, driver: driver}
}

func (r *sqlOperationRepository) rebind(query string) string {
	if r.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *sqlOperationRepository) Create(ctx context.Context, op *model.Operation) error {
	query := r.rebind(`INSERT INTO operations (id, operation_id, operator, unit, targets_identified,
	          threat_level, model_used, processing_time, filename, source, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		op.ID, op.OperationID, op.Operator, op.Unit, op.TargetsIdentified,
		string(op.ThreatLevel), op.ModelUsed, op.ProcessingTime, op.Filename, op.Source, op.CreatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("operation %s already recorded: %w", op.ID, common.ErrConflict)
		}
		return fmt.Errorf("sqlOperationRepository.Create: %w", err)
	}
	return nil
}

const operationColumns = `id, operation_id, operator, unit, targets_identified, threat_level,
	model_used, processing_time, filename, source, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (*model.Operation, error) {
	op := &model.Operation{}
	var threat string
	err := row.Scan(&op.ID, &op.OperationID, &op.Operator, &op.Unit, &op.TargetsIdentified, &threat,
		&op.ModelUsed, &op.ProcessingTime, &op.Filename, &op.Source, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	op.ThreatLevel = model.ThreatLevel(threat)
	return op, nil
}

func (r *sqlOperationRepository) FindByID(ctx context.Context, id string) (*model.Operation, error) {
	query := r.rebind(`SELECT ` + operationColumns + ` FROM operations WHERE id = ?`)
	op, err := scanOperation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlOperationRepository.FindByID: %w", err)
	}
	return op, nil
}

func (r *sqlOperationRepository) List(ctx context.Context, limit, offset int) ([]model.Operation, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlOperationRepository.List count: %w", err)
	}

	query := r.rebind(`SELECT ` + operationColumns + ` FROM operations
	          ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlOperationRepository.List: %w", err)
	}
	defer rows.Close()

	ops := make([]model.Operation, 0, limit)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlOperationRepository.List scan: %w", err)
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlOperationRepository.List rows: %w", err)
	}
	return ops, total, nil
}
