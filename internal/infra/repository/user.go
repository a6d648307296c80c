package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/amberflux/lorepo/internal/domain"
	"github.com/amberflux/lorepo/internal/infra/database/models"
)

const userCacheTTL = 300 // seconds

// UserRepository resolves usernames to user records with a memcached
// read-through. Cache faults fall back to postgres.
type UserRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewUserRepository(db *gorm.DB, mc *memcache.Client) *UserRepository {
	return &UserRepository{db: db, mc: mc}
}

func userCacheKey(username string) string {
	return "user:" + username
}

func (r *UserRepository) GetUser(ctx context.Context, username string) (domain.User, error) {

	if r.mc != nil {
		item, err := r.mc.Get(userCacheKey(username))
		if err == nil {
			var user domain.User
			if err := json.Unmarshal(item.Value, &user); err == nil {
				return user, nil
			}
		}
	}

	var m models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "user not found: " + username}
		}
		return domain.User{}, err
	}

	user := domain.User{
		Username:      m.Username,
		Name:          m.Name,
		Email:         m.Email,
		EmailVerified: m.EmailVerified,
	}

	if r.mc != nil {
		if cached, err := json.Marshal(user); err == nil {
			r.mc.Set(&memcache.Item{
				Key:        userCacheKey(username),
				Value:      cached,
				Expiration: userCacheTTL,
			})
		}
	}

	return user, nil
}
