package session_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"plinko_backend/internal/model"
)

const sessionKeyFmt = "plinko:session:%s"

type SessionRepo struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) GetSession(ctx context.Context, token string) (*model.Session, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(sessionKeyFmt, token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	session.Token = token
	return &session, nil
}
