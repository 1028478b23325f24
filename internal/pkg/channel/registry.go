package channel

import "github.com/aicostguardian/guardian-backend-go/internal/domain/notification"

// Registry maps each channel to the adapter that delivers it
type Registry struct {
	senders map[notification.Channel]notification.Sender
}

func NewRegistry(senders ...notification.Sender) *Registry {
	r := &Registry{senders: make(map[notification.Channel]notification.Sender, len(senders))}
	for _, s := range senders {
		r.senders[s.Channel().Normalize()] = s
	}
	return r
}

// Get returns the adapter for ch, resolving aliases
func (r *Registry) Get(ch notification.Channel) (notification.Sender, bool) {
	s, ok := r.senders[ch.Normalize()]
	return s, ok
}
