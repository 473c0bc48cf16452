// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/keyra/internal/platform/dberr"
	"github.com/taibuivan/keyra/pkg/pagination"
)

// # PostgreSQL Store

// userColumns is the canonical column list shared by every SELECT so scan
// order stays in one place.
const userColumns = `
	id, username, email, fullname, passwordhash, otpsecret,
	disabled, role, createdat, updatedat`

// PostgresUserStore implements [UserStore] backed by the iam.account table.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a PostgreSQL-backed user store.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// FindByID returns the account with the given ID, or apperr.NotFound.
func (store *PostgresUserStore) FindByID(context context.Context, id int64) (*User, error) {
	query := `SELECT` + userColumns + ` FROM iam.account WHERE id = $1`
	return store.scanOne(context, query, id)
}

// FindByUsername returns the account with the given username, or apperr.NotFound.
func (store *PostgresUserStore) FindByUsername(context context.Context, username string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM iam.account WHERE username = $1`
	return store.scanOne(context, query, username)
}

// FindByEmail returns the account with the given email, or apperr.NotFound.
func (store *PostgresUserStore) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM iam.account WHERE email = $1`
	return store.scanOne(context, query, email)
}

/*
Create inserts a new account row.

Description: The database assigns the BIGSERIAL id and both timestamps; all
three are written back onto the passed entity. Unique-constraint races
surface as apperr.Conflict via [dberr.Wrap].
*/
func (store *PostgresUserStore) Create(context context.Context, user *User) error {
	query := `
		INSERT INTO iam.account
			(username, email, fullname, passwordhash, otpsecret, disabled, role)
		VALUES
			($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, createdat, updatedat`

	err := store.pool.QueryRow(context, query,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.OTPSecret,
		user.Disabled,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
Replace overwrites every mutable column of the row identified by user.ID.

Description: Full replacement, matching the service's update semantics.
The updatedat timestamp is advanced by the database and written back.
*/
func (store *PostgresUserStore) Replace(context context.Context, user *User) error {
	query := `
		UPDATE iam.account SET
			username = $1,
			email = $2,
			fullname = $3,
			passwordhash = $4,
			otpsecret = $5,
			disabled = $6,
			role = $7,
			updatedat = NOW()
		WHERE id = $8
		RETURNING updatedat`

	err := store.pool.QueryRow(context, query,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.OTPSecret,
		user.Disabled,
		user.Role,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

// List returns one page of accounts ordered by ID plus the total row count.
func (store *PostgresUserStore) List(context context.Context, params pagination.Params) ([]*User, int, error) {

	var total int
	if err := store.pool.QueryRow(context, `SELECT COUNT(*) FROM iam.account`).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	query := `SELECT` + userColumns + `
		FROM iam.account
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := store.pool.Query(context, query, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}
	defer rows.Close()

	users := make([]*User, 0, params.PerPage)
	for rows.Next() {
		user := &User{}
		if err := scanUser(rows, user); err != nil {
			return nil, 0, fmt.Errorf("iam_store_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	return users, total, nil
}

// scanOne executes a single-row query and hydrates a [User].
func (store *PostgresUserStore) scanOne(context context.Context, query string, args ...interface{}) (*User, error) {
	user := &User{}
	if err := scanUser(store.pool.QueryRow(context, query, args...), user); err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser maps one result row onto a [User] in userColumns order.
func scanUser(row rowScanner, user *User) error {
	return row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.OTPSecret,
		&user.Disabled,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
