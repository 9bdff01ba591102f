package telegram

import (
	"context"
	"sync"
)

// dispatcher runs updates of different chats concurrently and updates of the
// same chat one at a time, in arrival order.
type dispatcher struct {
	handler func(context.Context, Update)

	mu     sync.Mutex
	queues map[int64]*chatQueue
}

// chatQueue exists only while its chat has a worker running.
type chatQueue struct {
	pending []Update
}

func newDispatcher(handler func(context.Context, Update)) *dispatcher {
	return &dispatcher{
		handler: handler,
		queues:  make(map[int64]*chatQueue),
	}
}

func (d *dispatcher) dispatch(ctx context.Context, update Update) {
	key := chatKey(update)

	d.mu.Lock()
	defer d.mu.Unlock()

	if q, ok := d.queues[key]; ok {
		q.pending = append(q.pending, update)
		return
	}

	q := &chatQueue{pending: []Update{update}}
	d.queues[key] = q
	go d.drain(ctx, key, q)
}

func (d *dispatcher) drain(ctx context.Context, key int64, q *chatQueue) {
	for {
		d.mu.Lock()
		if len(q.pending) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		update := q.pending[0]
		q.pending = q.pending[1:]
		d.mu.Unlock()

		d.handler(ctx, update)
	}
}

// chatKey groups updates by chat. Updates without a chat share key 0.
func chatKey(update Update) int64 {
	if update.Message == nil || update.Message.Chat == nil {
		return 0
	}
	return update.Message.Chat.ID
}
