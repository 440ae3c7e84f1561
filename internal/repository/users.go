package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const allowedUsersKey = "users:allowed"

// UserRepository is the admin-managed allowlist of users permitted to start
// apps. An empty allowlist means open access, so a fresh server needs no
// provisioning before it is usable.
type UserRepository interface {
	Allow(ctx context.Context, user string) error
	Deny(ctx context.Context, user string) error
	Allowed(ctx context.Context, user string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

type dbUsers struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) UserRepository {
	return &dbUsers{
		client: client,
	}
}

func (that *dbUsers) Allow(ctx context.Context, user string) error {
	if err := that.client.SAdd(ctx, allowedUsersKey, user).Err(); err != nil {
		return fmt.Errorf("failed to add user to allowlist: %w", err)
	}

	return nil
}

func (that *dbUsers) Deny(ctx context.Context, user string) error {
	if err := that.client.SRem(ctx, allowedUsersKey, user).Err(); err != nil {
		return fmt.Errorf("failed to remove user from allowlist: %w", err)
	}

	return nil
}

func (that *dbUsers) Allowed(ctx context.Context, user string) (bool, error) {
	size, err := that.client.SCard(ctx, allowedUsersKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read allowlist size: %w", err)
	}

	if size == 0 {
		return true, nil
	}

	member, err := that.client.SIsMember(ctx, allowedUsersKey, user).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check allowlist membership: %w", err)
	}

	return member, nil
}

func (that *dbUsers) List(ctx context.Context) ([]string, error) {
	users, err := that.client.SMembers(ctx, allowedUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list allowed users: %w", err)
	}

	return users, nil
}
