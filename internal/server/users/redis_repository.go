package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RileyParsons/plateful/internal/common"
)

// Key layout:
//
//	user:<id>           JSON-encoded record
//	user:email:<email>  secondary index, value is the user id
//	user:reset:<hash>   secondary index for outstanding reset secrets
//	users:all           set of all user ids, used for listing
const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user:email:"
	resetKeyPrefix = "user:reset:"
	allUsersKey    = "users:all"
)

// RedisRepository stores user records in a key-value store with explicit
// secondary indexes. Index writes are not transactional with the record
// write; the email index is claimed first (SETNX) so a duplicate
// registration can never take over an existing address.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

type redisUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	HashedPassword   string     `json:"hashedPassword"`
	CreatedAt        time.Time  `json:"createdAt"`
	ResetTokenHash   string     `json:"resetTokenHash,omitempty"`
	ResetTokenExpiry *time.Time `json:"resetTokenExpiry,omitempty"`
}

func encodeUser(u *User) ([]byte, error) {
	rec := redisUser{
		ID:             u.ID,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		CreatedAt:      u.CreatedAt,
		ResetTokenHash: u.ResetTokenHash,
	}
	if !u.ResetTokenExpiry.IsZero() {
		t := u.ResetTokenExpiry
		rec.ResetTokenExpiry = &t
	}
	return json.Marshal(rec)
}

func decodeUser(data []byte) (*User, error) {
	var rec redisUser
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("error decoding user record: %w", err)
	}
	u := &User{
		ID:             rec.ID,
		Email:          rec.Email,
		HashedPassword: rec.HashedPassword,
		CreatedAt:      rec.CreatedAt,
		ResetTokenHash: rec.ResetTokenHash,
	}
	if rec.ResetTokenExpiry != nil {
		u.ResetTokenExpiry = *rec.ResetTokenExpiry
	}
	return u, nil
}

func (r *RedisRepository) Create(ctx context.Context, user *User) (*User, error) {
	// Claim the email index first; a losing concurrent registration fails
	// here instead of overwriting.
	claimed, err := r.client.SetNX(ctx, emailKeyPrefix+user.Email, user.ID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if !claimed {
		return nil, common.ErrEmailTaken
	}

	if err := r.writeRecord(ctx, user); err != nil {
		return nil, err
	}
	if err := r.client.SAdd(ctx, allUsersKey, user.ID).Err(); err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	return user, nil
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (*User, error) {
	data, err := r.client.Get(ctx, userKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return decodeUser(data)
}

func (r *RedisRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getByIndex(ctx, emailKeyPrefix+email)
}

func (r *RedisRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*User, error) {
	return r.getByIndex(ctx, resetKeyPrefix+tokenHash)
}

func (r *RedisRepository) getByIndex(ctx context.Context, indexKey string) (*User, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *RedisRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	return r.mutate(ctx, userID, func(u *User) {
		u.HashedPassword = newHash
	})
}

func (r *RedisRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	// Replace any previous outstanding secret and its index entry.
	if user.ResetTokenHash != "" {
		if err := r.client.Del(ctx, resetKeyPrefix+user.ResetTokenHash).Err(); err != nil {
			return fmt.Errorf("redis error: %w", err)
		}
	}

	user.ResetTokenHash = tokenHash
	user.ResetTokenExpiry = expiry
	if err := r.writeRecord(ctx, user); err != nil {
		return err
	}
	if err := r.client.Set(ctx, resetKeyPrefix+tokenHash, userID, 0).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) ClearResetToken(ctx context.Context, userID string) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.ResetTokenHash != "" {
		if err := r.client.Del(ctx, resetKeyPrefix+user.ResetTokenHash).Err(); err != nil {
			return fmt.Errorf("redis error: %w", err)
		}
	}

	user.ResetTokenHash = ""
	user.ResetTokenExpiry = time.Time{}
	return r.writeRecord(ctx, user)
}

func (r *RedisRepository) List(ctx context.Context, offset, limit int) ([]*User, error) {
	ids, err := r.client.SMembers(ctx, allUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	all := make([]*User, 0, len(ids))
	for _, id := range ids {
		user, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, err
		}
		all = append(all, user)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	return paginate(all, offset, limit), nil
}

func (r *RedisRepository) mutate(ctx context.Context, userID string, fn func(*User)) error {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	fn(user)
	return r.writeRecord(ctx, user)
}

func (r *RedisRepository) writeRecord(ctx context.Context, user *User) error {
	data, err := encodeUser(user)
	if err != nil {
		return fmt.Errorf("error encoding user record: %w", err)
	}
	if err := r.client.Set(ctx, userKeyPrefix+user.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func paginate(all []*User, offset, limit int) []*User {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
