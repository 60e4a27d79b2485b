package comparison

import (
	"context"

	"go.uber.org/zap"
)

// Sessions hands out the Manager of a browsing session.
type Sessions struct {
	stores StoreFactory
	logger *zap.Logger
}

func NewSessions(stores StoreFactory, logger *zap.Logger) *Sessions {
	return &Sessions{stores: stores, logger: logger}
}

// Manager loads the selection of sessionID. Managers are cheap and meant to
// live for one request.
func (s *Sessions) Manager(ctx context.Context, sessionID string) *Manager {
	return NewManager(ctx, s.stores(sessionID), s.logger.With(zap.String("session_id", sessionID)))
}
