// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/keyra/internal/platform/apperr"
	"github.com/taibuivan/keyra/internal/platform/constants"
	"github.com/taibuivan/keyra/internal/platform/sec"
	"github.com/taibuivan/keyra/pkg/pagination"
)

// # Redis Store

// redisUserRecord is the persisted shape of a user in the key-value engine.
// It exists because [User] hides PasswordHash and OTPSecret from JSON, and
// the store needs them round-tripped.
type redisUserRecord struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"password_hash"`
	OTPSecret    string    `json:"otp_secret"`
	Disabled     bool      `json:"disabled"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RedisUserStore implements [UserStore] on top of a Redis key space.
//
// # Key Layout
//
//   - iam:user:id:<id>        JSON record (source of truth)
//   - iam:user:username:<u>   index key -> id
//   - iam:user:email:<e>      index key -> id
//   - iam:user:next_id        INCR counter for id assignment
//   - iam:user:ids            sorted set of ids, scored by id, for listing
//
// Index keys are written in the same pipeline as the record. Uniqueness is
// enforced with SETNX on the index keys, so a concurrent duplicate loses
// with a Conflict just like a relational unique constraint.
type RedisUserStore struct {
	client *redis.Client
}

// NewRedisUserStore creates a Redis-backed user store.
func NewRedisUserStore(client *redis.Client) *RedisUserStore {
	return &RedisUserStore{client: client}
}

// FindByID returns the account with the given ID, or apperr.NotFound.
func (store *RedisUserStore) FindByID(context stdctx.Context, id int64) (*User, error) {
	return store.loadRecord(context, recordKey(id))
}

// FindByUsername resolves the username index and loads the record.
func (store *RedisUserStore) FindByUsername(context stdctx.Context, username string) (*User, error) {
	return store.loadByIndex(context, constants.RedisPrefixUsernameIndex+username)
}

// FindByEmail resolves the email index and loads the record.
func (store *RedisUserStore) FindByEmail(context stdctx.Context, email string) (*User, error) {
	return store.loadByIndex(context, constants.RedisPrefixEmailIndex+email)
}

/*
Create persists a new account record and its index keys.

Description: Reserves both index keys with SETNX first so duplicate
usernames or emails fail with a Conflict before any record is written, then
assigns the next ID and writes the record, back-references, and the listing
set in one pipeline.
*/
func (store *RedisUserStore) Create(context stdctx.Context, user *User) error {

	// Reserve the unique keys before touching anything else. The value is a
	// placeholder until the real ID is known.
	if err := store.reserveIndex(context, constants.RedisPrefixUsernameIndex+user.Username, "Username"); err != nil {
		return err
	}
	if err := store.reserveIndex(context, constants.RedisPrefixEmailIndex+user.Email, "Email"); err != nil {
		_ = store.client.Del(context, constants.RedisPrefixUsernameIndex+user.Username).Err()
		return err
	}

	id, err := store.client.Incr(context, constants.RedisKeyUserIDCounter).Result()
	if err != nil {
		return apperr.Internal(fmt.Errorf("iam_redis_id_assignment_failed: %w", err))
	}

	currentTime := time.Now().UTC()
	user.ID = id
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime

	payload, err := json.Marshal(toRecord(user))
	if err != nil {
		return apperr.Internal(fmt.Errorf("iam_redis_encode_failed: %w", err))
	}

	idValue := strconv.FormatInt(id, 10)

	pipeline := store.client.TxPipeline()
	pipeline.Set(context, recordKey(id), payload, 0)
	pipeline.Set(context, constants.RedisPrefixUsernameIndex+user.Username, idValue, 0)
	pipeline.Set(context, constants.RedisPrefixEmailIndex+user.Email, idValue, 0)
	pipeline.ZAdd(context, constants.RedisKeyUserIDIndex, redis.Z{Score: float64(id), Member: idValue})
	if _, err := pipeline.Exec(context); err != nil {
		return apperr.Internal(fmt.Errorf("iam_redis_create_failed: %w", err))
	}

	return nil
}

/*
Replace overwrites the stored record and repairs the index keys.

Description: When the username or email changed, the stale index key is
deleted and the new one written in the same pipeline as the record, so a
lookup never resolves to a record that no longer carries that identity.
*/
func (store *RedisUserStore) Replace(context stdctx.Context, user *User) error {

	previous, err := store.loadRecord(context, recordKey(user.ID))
	if err != nil {
		return err
	}

	if user.Username != previous.Username {
		if err := store.reserveIndex(context, constants.RedisPrefixUsernameIndex+user.Username, "Username"); err != nil {
			return err
		}
	}
	if user.Email != previous.Email {
		if err := store.reserveIndex(context, constants.RedisPrefixEmailIndex+user.Email, "Email"); err != nil {
			return err
		}
	}

	user.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(toRecord(user))
	if err != nil {
		return apperr.Internal(fmt.Errorf("iam_redis_encode_failed: %w", err))
	}

	idValue := strconv.FormatInt(user.ID, 10)

	pipeline := store.client.TxPipeline()
	pipeline.Set(context, recordKey(user.ID), payload, 0)
	if user.Username != previous.Username {
		pipeline.Del(context, constants.RedisPrefixUsernameIndex+previous.Username)
		pipeline.Set(context, constants.RedisPrefixUsernameIndex+user.Username, idValue, 0)
	}
	if user.Email != previous.Email {
		pipeline.Del(context, constants.RedisPrefixEmailIndex+previous.Email)
		pipeline.Set(context, constants.RedisPrefixEmailIndex+user.Email, idValue, 0)
	}
	if _, err := pipeline.Exec(context); err != nil {
		return apperr.Internal(fmt.Errorf("iam_redis_replace_failed: %w", err))
	}

	return nil
}

// List pages through the id sorted set and bulk-loads the records.
func (store *RedisUserStore) List(context stdctx.Context, params pagination.Params) ([]*User, int, error) {

	total, err := store.client.ZCard(context, constants.RedisKeyUserIDIndex).Result()
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("iam_redis_count_failed: %w", err))
	}

	start := int64(params.Offset())
	stop := start + int64(params.PerPage) - 1

	ids, err := store.client.ZRange(context, constants.RedisKeyUserIDIndex, start, stop).Result()
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("iam_redis_range_failed: %w", err))
	}

	if len(ids) == 0 {
		return []*User{}, int(total), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = constants.RedisPrefixUserRecord + id
	}

	values, err := store.client.MGet(context, keys...).Result()
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("iam_redis_mget_failed: %w", err))
	}

	users := make([]*User, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Record deleted between ZRANGE and MGET; skip the hole.
			continue
		}

		user, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, int(total), nil
}

// # Internal Helpers

// reserveIndex claims a unique index key with SETNX.
func (store *RedisUserStore) reserveIndex(context stdctx.Context, key, resource string) error {
	claimed, err := store.client.SetNX(context, key, "reserved", 0).Result()
	if err != nil {
		return apperr.Internal(fmt.Errorf("iam_redis_reserve_failed: %w", err))
	}
	if !claimed {
		return apperr.Conflict(resource + " is already taken")
	}
	return nil
}

// loadByIndex resolves an index key to an id and loads the record.
func (store *RedisUserStore) loadByIndex(context stdctx.Context, indexKey string) (*User, error) {
	idValue, err := store.client.Get(context, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal(fmt.Errorf("iam_redis_index_lookup_failed: %w", err))
	}

	return store.loadRecord(context, constants.RedisPrefixUserRecord+idValue)
}

// loadRecord fetches and decodes a single record key.
func (store *RedisUserStore) loadRecord(context stdctx.Context, key string) (*User, error) {
	raw, err := store.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal(fmt.Errorf("iam_redis_record_lookup_failed: %w", err))
	}

	return decodeRecord(raw)
}

// recordKey builds the primary record key for an id.
func recordKey(id int64) string {
	return constants.RedisPrefixUserRecord + strconv.FormatInt(id, 10)
}

// toRecord converts the domain entity to its persisted shape.
func toRecord(user *User) redisUserRecord {
	return redisUserRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		PasswordHash: user.PasswordHash,
		OTPSecret:    user.OTPSecret,
		Disabled:     user.Disabled,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// decodeRecord converts persisted bytes back to the domain entity.
func decodeRecord(raw []byte) (*User, error) {
	var record redisUserRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, apperr.Internal(fmt.Errorf("iam_redis_decode_failed: %w", err))
	}

	return &User{
		ID:           record.ID,
		Username:     record.Username,
		Email:        record.Email,
		FullName:     record.FullName,
		PasswordHash: record.PasswordHash,
		OTPSecret:    record.OTPSecret,
		Disabled:     record.Disabled,
		Role:         sec.UserRole(record.Role),
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}
