package memory

import (
	"context"
	"sync"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

type contactRepository struct {
	mu       sync.RWMutex
	contacts map[string]notification.Recipient
}

func NewContactRepository() notification.ContactRepository {
	return &contactRepository{contacts: make(map[string]notification.Recipient)}
}

func (r *contactRepository) Get(ctx context.Context, userID string) (*notification.Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contacts[userID]
	if !ok {
		return &notification.Recipient{UserID: userID}, nil
	}
	return &c, nil
}

func (r *contactRepository) Upsert(ctx context.Context, recipient *notification.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[recipient.UserID] = *recipient
	return nil
}
