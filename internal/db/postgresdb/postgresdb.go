// Package postgresdb provides a PostgreSQL-based implementation of the storage
// contract. Users live in their own table; posts keep the author snapshot in a
// JSONB column, so later user edits never reach existing posts.
package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/twitterapi/internal/db/postgresdb/migrations"
	"github.com/patric-chuzhbe/twitterapi/internal/db/storage"
	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed storage.Storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

type initOptions struct {
	DBPreReset bool
	driverName string
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every public table before
// migrating. Meant for tests.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// WithDriver selects the database/sql driver: DriverPgx (the default) or
// DriverPq.
func WithDriver(driverName string) InitOption {
	return func(options *initOptions) {
		options.driverName = driverName
	}
}

// New connects to the database, applies the embedded migrations and returns
// a ready PostgresDB.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
		driverName: DriverPgx,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open(options.driverName, databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w",
				err,
			)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			_ = database.Close()
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.UpContext(ctx, result.database, "."); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w",
				err,
			)
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode
}

func nullableDate(date *models.Date) sql.NullTime {
	if date == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: date.Time(), Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}

const userColumns = `user_id, email, first_name, last_name, birth_date, password`

func scanUser(row rowScanner) (models.User, error) {
	var usr models.User
	var birthDate sql.NullTime
	err := row.Scan(&usr.UserID, &usr.Email, &usr.FirstName, &usr.LastName, &birthDate, &usr.Password)
	if err != nil {
		return models.User{}, err
	}
	if birthDate.Valid {
		date := models.DateOf(birthDate.Time)
		usr.BirthDate = &date
	}

	return usr, nil
}

const postColumns = `post_id, content, created_at, updated_at, author`

func scanPost(row rowScanner) (models.Post, error) {
	var post models.Post
	var updatedAt sql.NullTime
	var author []byte
	err := row.Scan(&post.PostID, &post.Content, &post.CreatedAt, &updatedAt, &author)
	if err != nil {
		return models.Post{}, err
	}
	post.CreatedAt = post.CreatedAt.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		post.UpdatedAt = &t
	}
	if err := json.Unmarshal(author, &post.By); err != nil {
		return models.Post{}, fmt.Errorf("decoding author of post %s: %w", post.PostID, err)
	}

	return post, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, usr models.User) (models.User, error) {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		usr.UserID,
		usr.Email,
		usr.FirstName,
		usr.LastName,
		nullableDate(usr.BirthDate),
		usr.Password,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("user %s <%s>: %w", usr.UserID, usr.Email, storage.ErrConflict)
		}
		return models.User{}, err
	}

	return usr, nil
}

func (db *PostgresDB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.database.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		usr, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, usr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	usr, err := scanUser(db.database.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`,
		userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
		}
		return models.User{}, err
	}

	return usr, nil
}

func (db *PostgresDB) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	usr, err := scanUser(db.database.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user <%s>: %w", email, storage.ErrNotFound)
		}
		return models.User{}, err
	}

	return usr, nil
}

// UpdateUser overwrites the row stored under userID, including its primary
// key when usr carries a different UserID.
func (db *PostgresDB) UpdateUser(ctx context.Context, userID uuid.UUID, usr models.User) (models.User, error) {
	result, err := db.database.ExecContext(
		ctx,
		`
			UPDATE users
				SET user_id = $2,
					email = $3,
					first_name = $4,
					last_name = $5,
					birth_date = $6,
					password = $7
				WHERE user_id = $1
		`,
		userID,
		usr.UserID,
		usr.Email,
		usr.FirstName,
		usr.LastName,
		nullableDate(usr.BirthDate),
		usr.Password,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("user %s <%s>: %w", usr.UserID, usr.Email, storage.ErrConflict)
		}
		return models.User{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if affected == 0 {
		return models.User{}, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}

	return usr, nil
}

func (db *PostgresDB) DeleteUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	usr, err := scanUser(db.database.QueryRowContext(
		ctx,
		`DELETE FROM users WHERE user_id = $1 RETURNING `+userColumns,
		userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
		}
		return models.User{}, err
	}

	return usr, nil
}

func (db *PostgresDB) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (db *PostgresDB) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	author, err := json.Marshal(post.By)
	if err != nil {
		return models.Post{}, err
	}

	_, err = db.database.ExecContext(
		ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		post.PostID,
		post.Content,
		post.CreatedAt,
		nullableTime(post.UpdatedAt),
		string(author),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Post{}, fmt.Errorf("post %s: %w", post.PostID, storage.ErrConflict)
		}
		return models.Post{}, err
	}

	return post, nil
}

func (db *PostgresDB) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := db.database.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) GetPost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	post, err := scanPost(db.database.QueryRowContext(
		ctx,
		`SELECT `+postColumns+` FROM posts WHERE post_id = $1`,
		postID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
		}
		return models.Post{}, err
	}

	return post, nil
}

func (db *PostgresDB) UpdatePost(ctx context.Context, postID uuid.UUID, post models.Post) (models.Post, error) {
	author, err := json.Marshal(post.By)
	if err != nil {
		return models.Post{}, err
	}

	result, err := db.database.ExecContext(
		ctx,
		`
			UPDATE posts
				SET post_id = $2,
					content = $3,
					created_at = $4,
					updated_at = $5,
					author = $6
				WHERE post_id = $1
		`,
		postID,
		post.PostID,
		post.Content,
		post.CreatedAt,
		nullableTime(post.UpdatedAt),
		string(author),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Post{}, fmt.Errorf("post %s: %w", post.PostID, storage.ErrConflict)
		}
		return models.Post{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return models.Post{}, err
	}
	if affected == 0 {
		return models.Post{}, fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
	}

	return post, nil
}

func (db *PostgresDB) DeletePost(ctx context.Context, postID uuid.UUID) (models.Post, error) {
	post, err := scanPost(db.database.QueryRowContext(
		ctx,
		`DELETE FROM posts WHERE post_id = $1 RETURNING `+postColumns,
		postID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
		}
		return models.Post{}, err
	}

	return post, nil
}

func (db *PostgresDB) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	if err := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
