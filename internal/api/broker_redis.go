package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"shiftnav/internal/model"
)

// RedisBroker implements NotificationBroker over Redis pub/sub so every
// replica's subscribers see events published anywhere.
type RedisBroker struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[chan model.Notification]*redis.PubSub
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{
		rdb:  redis.NewClient(opt),
		subs: map[chan model.Notification]*redis.PubSub{},
	}, nil
}

func (b *RedisBroker) Subscribe(cityID int) chan model.Notification {
	ch := make(chan model.Notification, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(cityID))
	// initial receive confirms the subscription is live
	_, _ = ps.Receive(ctx)
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var n model.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err == nil {
				select {
				case ch <- n:
				default:
				}
			}
		}
	}()
	return ch
}

// Unsubscribe closes the subscriber's pub/sub connection, which ends the
// reader goroutine and closes the delivered channel.
func (b *RedisBroker) Unsubscribe(cityID int, ch chan model.Notification) {
	b.mu.Lock()
	ps, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(n model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(n)
	_ = b.rdb.Publish(ctx, b.chanName(n.CityID), data).Err()
}

func (b *RedisBroker) chanName(cityID int) string { return fmt.Sprintf("shiftnav:notify:%d", cityID) }
