package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo_api/internal/config"
	"todo_api/internal/models"
	"todo_api/internal/storage"
	"todo_api/internal/storage/postgres/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresRepo struct {
	db DB
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return &PostgresRepo{db: pool}, nil
}

func NewWithDB(db DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// * migrate применяет встроенные goose-миграции
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

const accountColumns = `
		a.id::text,
		a.email,
		a.password_hash,
		COALESCE(array_agg(t.access ORDER BY t.id) FILTER (WHERE t.id IS NOT NULL), '{}'),
		COALESCE(array_agg(t.token ORDER BY t.id) FILTER (WHERE t.id IS NOT NULL), '{}')
	FROM accounts a
	LEFT JOIN account_tokens t ON t.account_id = a.id`

// SaveAccount inserts the account and its tokens in one statement, so an
// account never exists without the token it was registered with.
func (r *PostgresRepo) SaveAccount(ctx context.Context, acc models.Account) (models.Account, error) {
	const op = "storage.postgres.SaveAccount"

	query := `
		WITH account AS (
			INSERT INTO accounts (id, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id
		)
		INSERT INTO account_tokens (account_id, access, token)
		SELECT account.id, t.access, t.token
		FROM account, unnest($4::text[], $5::text[]) AS t(access, token);
	`

	access := make([]string, 0, len(acc.Tokens))
	tokens := make([]string, 0, len(acc.Tokens))
	for _, t := range acc.Tokens {
		access = append(access, t.Access)
		tokens = append(tokens, t.Token)
	}

	_, err := r.db.Exec(ctx, query, acc.ID, acc.Email, string(acc.PassHash), access, tokens)
	if err != nil {
		if isCode(err, codeUniqueViolation) {
			return models.Account{}, storage.ErrAccountExists
		}

		return models.Account{}, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	return acc, nil
}

func (r *PostgresRepo) Account(ctx context.Context, email string) (models.Account, error) {
	const op = "storage.postgres.Account"

	query := `SELECT` + accountColumns + `
		WHERE a.email = $1
		GROUP BY a.id;
	`

	return r.scanAccount(op, r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) AccountByID(ctx context.Context, id string) (models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `SELECT` + accountColumns + `
		WHERE a.id = $1
		GROUP BY a.id;
	`

	return r.scanAccount(op, r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) AccountByToken(ctx context.Context, id, access, token string) (models.Account, error) {
	const op = "storage.postgres.AccountByToken"

	query := `SELECT` + accountColumns + `
		WHERE a.id = $1
		  AND EXISTS (
			SELECT 1 FROM account_tokens x
			WHERE x.account_id = a.id AND x.access = $2 AND x.token = $3
		  )
		GROUP BY a.id;
	`

	return r.scanAccount(op, r.db.QueryRow(ctx, query, id, access, token))
}

func (r *PostgresRepo) SaveToken(ctx context.Context, accountID, access, token string) error {
	const op = "storage.postgres.SaveToken"

	const query = `
		INSERT INTO account_tokens (account_id, access, token)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, accountID, access, token)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return storage.ErrAccountNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) DeleteToken(ctx context.Context, accountID, token string) error {
	const op = "storage.postgres.DeleteToken"

	query := `DELETE FROM account_tokens WHERE account_id = $1 AND token = $2`

	tag, err := r.db.Exec(ctx, query, accountID, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTokenNotFound
	}

	return nil
}

const todoColumns = `id::text, text, completed, completed_at, owner_id::text`

func (r *PostgresRepo) SaveTodo(ctx context.Context, ownerID, text string) (models.Todo, error) {
	const op = "storage.postgres.SaveTodo"

	query := `
		INSERT INTO todos (owner_id, text)
		VALUES ($1, $2)
		RETURNING ` + todoColumns + `;
	`

	t, err := scanTodo(r.db.QueryRow(ctx, query, ownerID, text))
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return models.Todo{}, storage.ErrAccountNotFound
		}

		return models.Todo{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

func (r *PostgresRepo) Todos(ctx context.Context, ownerID string) ([]models.Todo, error) {
	const op = "storage.postgres.Todos"

	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE owner_id = $1
		ORDER BY created_at, id;
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)

	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return todos, nil
}

func (r *PostgresRepo) Todo(ctx context.Context, id, ownerID string) (models.Todo, error) {
	const op = "storage.postgres.Todo"

	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1 AND owner_id = $2;
	`

	return todoResult(op, r.db.QueryRow(ctx, query, id, ownerID))
}

func (r *PostgresRepo) UpdateTodo(ctx context.Context, id, ownerID string, patch models.TodoPatch) (models.Todo, error) {
	const op = "storage.postgres.UpdateTodo"

	query := `
		UPDATE todos
		SET text = COALESCE($3, text), completed = $4, completed_at = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + todoColumns + `;
	`

	return todoResult(op, r.db.QueryRow(ctx, query, id, ownerID, patch.Text, patch.Completed, patch.CompletedAt))
}

func (r *PostgresRepo) DeleteTodo(ctx context.Context, id, ownerID string) (models.Todo, error) {
	const op = "storage.postgres.DeleteTodo"

	query := `
		DELETE FROM todos
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + todoColumns + `;
	`

	return todoResult(op, r.db.QueryRow(ctx, query, id, ownerID))
}

func (r *PostgresRepo) Close() {
	r.db.Close()
}

func (r *PostgresRepo) scanAccount(op string, row pgx.Row) (models.Account, error) {
	var (
		a      models.Account
		hash   string
		access []string
		tokens []string
	)

	err := row.Scan(&a.ID, &a.Email, &hash, &access, &tokens)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(access) != len(tokens) {
		return models.Account{}, fmt.Errorf("%s: token columns mismatch", op)
	}

	a.PassHash = []byte(hash)
	for i := range tokens {
		a.Tokens = append(a.Tokens, models.Token{Access: access[i], Token: tokens[i]})
	}

	return a, nil
}

func todoResult(op string, row pgx.Row) (models.Todo, error) {
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Todo{}, storage.ErrTodoNotFound
		}

		return models.Todo{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

func scanTodo(row pgx.Row) (models.Todo, error) {
	var t models.Todo

	err := row.Scan(&t.ID, &t.Text, &t.Completed, &t.CompletedAt, &t.OwnerID)

	return t, err
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == code
}

// * dsn формирует строку подключения к базе данных.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
