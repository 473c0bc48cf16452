// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/keyra/internal/platform/apperr"
	"github.com/taibuivan/keyra/pkg/pagination"
)

// # In-Memory Store

// MemoryUserStore implements [UserStore] with a mutex-guarded map.
//
// It exists for tests and for local runs with STORAGE_ENGINE=memory; nothing
// survives a restart. Every read hands out a copy so callers can never
// mutate the stored record without going through [MemoryUserStore.Replace].
type MemoryUserStore struct {
	mu         sync.Mutex
	users      map[int64]*User
	byUsername map[string]int64
	byEmail    map[string]int64
	nextID     int64
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:      make(map[int64]*User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

// FindByID returns a copy of the account with the given ID.
func (store *MemoryUserStore) FindByID(_ context.Context, id int64) (*User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return copyUser(user), nil
}

// FindByUsername returns a copy of the account with the given username.
func (store *MemoryUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	id, ok := store.byUsername[username]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return copyUser(store.users[id]), nil
}

// FindByEmail returns a copy of the account with the given email.
func (store *MemoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	id, ok := store.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return copyUser(store.users[id]), nil
}

// Create assigns the next ID and timestamps and stores a copy of the entity.
func (store *MemoryUserStore) Create(_ context.Context, user *User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.byUsername[user.Username]; exists {
		return apperr.Conflict("Username is already taken")
	}
	if _, exists := store.byEmail[user.Email]; exists {
		return apperr.Conflict("Email is already taken")
	}

	store.nextID++
	currentTime := time.Now().UTC()

	user.ID = store.nextID
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime

	store.users[user.ID] = copyUser(user)
	store.byUsername[user.Username] = user.ID
	store.byEmail[user.Email] = user.ID

	return nil
}

// Replace overwrites the stored record and keeps the lookup indexes in sync.
func (store *MemoryUserStore) Replace(_ context.Context, user *User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	previous, ok := store.users[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}

	if user.Username != previous.Username {
		if _, exists := store.byUsername[user.Username]; exists {
			return apperr.Conflict("Username is already taken")
		}
	}
	if user.Email != previous.Email {
		if _, exists := store.byEmail[user.Email]; exists {
			return apperr.Conflict("Email is already taken")
		}
	}

	user.UpdatedAt = time.Now().UTC()

	delete(store.byUsername, previous.Username)
	delete(store.byEmail, previous.Email)

	store.users[user.ID] = copyUser(user)
	store.byUsername[user.Username] = user.ID
	store.byEmail[user.Email] = user.ID

	return nil
}

// List returns one page of accounts ordered by ID plus the total count.
func (store *MemoryUserStore) List(_ context.Context, params pagination.Params) ([]*User, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	// IDs are assigned sequentially from 1, so a linear walk keeps the same
	// ordering the relational store produces without sorting map keys.
	users := make([]*User, 0, params.PerPage)
	skip := params.Offset()
	seen := 0
	for id := int64(1); id <= store.nextID; id++ {
		user, ok := store.users[id]
		if !ok {
			continue
		}
		if seen < skip {
			seen++
			continue
		}
		if len(users) < params.PerPage {
			users = append(users, copyUser(user))
		}
		seen++
	}

	return users, len(store.users), nil
}

// copyUser returns a detached copy of the record.
func copyUser(user *User) *User {
	detached := *user
	return &detached
}
