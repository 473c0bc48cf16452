// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"

	"github.com/taibuivan/keyra/pkg/pagination"
)

// # User Data Access

// UserStore defines the data access contract for user accounts.
//
// The core performs at most one read and one write per logical operation and
// never holds the store across suspension points; consistency under
// concurrent writes is the store's responsibility (last-writer-wins is
// acceptable). Implementations exist for PostgreSQL, Redis, and an in-memory
// map used by tests.
type UserStore interface {

	/*
		FindByID returns the account with the given numeric ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByUsername returns the account with the given username.
		Usernames are unique and case-sensitive.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByEmail returns the account with the given email.
		Emails are unique and case-sensitive.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account and assigns its ID and
		timestamps on the passed entity.

		Returns:
		  - error: Constraint violations or storage failures
	*/
	Create(context context.Context, user *User) error

	/*
		Replace overwrites the stored record for user.ID with the passed
		entity in full. Callers are expected to have loaded the record
		first; fields they did not change carry their previous values.

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	Replace(context context.Context, user *User) error

	/*
		List returns one page of accounts ordered by ID, plus the total
		record count for pagination metadata.

		Returns:
		  - []*User: Page of records
		  - int: Total number of records
		  - error: Storage failures
	*/
	List(context context.Context, params pagination.Params) ([]*User, int, error)
}
