package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/startera/internal/constants"
)

// Kind is the visual category of a toast
type Kind string

const (
	KindDefault Kind = constants.ToastDefault
	KindSuccess Kind = constants.ToastSuccess
	KindError   Kind = constants.ToastError
)

// Toast is a transient user notification
type Toast struct {
	ID      string
	Message string
	Kind    Kind
}

// Handler receives published toasts
type Handler func(Toast)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus fans toasts out to subscribers synchronously, in subscription order
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler and returns a func that removes it; calling it again is a no-op
func (b *Bus) Subscribe(handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers toast to every current subscriber and returns it with its ID set
func (b *Bus) Publish(toast Toast) Toast {
	if toast.ID == "" {
		toast.ID = uuid.New().String()
	}
	if toast.Kind == "" {
		toast.Kind = KindDefault
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.subs))
	for i, sub := range b.subs {
		handlers[i] = sub.handler
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(toast)
	}
	return toast
}

// Info publishes a default toast
func (b *Bus) Info(message string) Toast {
	return b.Publish(Toast{Message: message, Kind: KindDefault})
}

// Success publishes a success toast
func (b *Bus) Success(message string) Toast {
	return b.Publish(Toast{Message: message, Kind: KindSuccess})
}

// Error publishes an error toast
func (b *Bus) Error(message string) Toast {
	return b.Publish(Toast{Message: message, Kind: KindError})
}

// Subscribers reports the current subscriber count
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
