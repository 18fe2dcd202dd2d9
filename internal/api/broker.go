package api

import (
	"sync"

	"shiftnav/internal/model"
)

// NotificationBroker fans recommendation events out to the subscribers of
// the event's city. The in-memory broker serves a single process; the Redis
// broker spans replicas.
type NotificationBroker interface {
	Subscribe(cityID int) chan model.Notification
	Unsubscribe(cityID int, ch chan model.Notification)
	Publish(n model.Notification)
}

type Broker struct {
	mu   sync.Mutex
	subs map[int]map[chan model.Notification]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[int]map[chan model.Notification]struct{}{}}
}

func (b *Broker) Subscribe(cityID int) chan model.Notification {
	ch := make(chan model.Notification, 8)
	b.mu.Lock()
	if b.subs[cityID] == nil {
		b.subs[cityID] = map[chan model.Notification]struct{}{}
	}
	b.subs[cityID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(cityID int, ch chan model.Notification) {
	b.mu.Lock()
	if m := b.subs[cityID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, cityID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish delivers to every subscriber of the notification's city; slow
// subscribers drop rather than block.
func (b *Broker) Publish(n model.Notification) {
	b.mu.Lock()
	for ch := range b.subs[n.CityID] {
		select {
		case ch <- n:
		default:
		}
	}
	b.mu.Unlock()
}
