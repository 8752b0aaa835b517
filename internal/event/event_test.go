package event_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/codechallenge/internal/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	type (
		inputs struct {
			published   []event.Event
			subscribers map[string][]string
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a subscriber only receives the events it subscribed to": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{named("challenge.created"), named("submission.created")},
					subscribers: map[string][]string{
						"notify": {"submission.created"},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{named("submission.created")}, out.received["notify"])
			},
		},

		"every subscriber receives every matching event": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						named("submission.created"),
						named("user.logged_in"),
						named("submission.created"),
					},
					subscribers: map[string][]string{
						"notify":  {"submission.created", "user.logged_in"},
						"metrics": {"submission.created"},
						"audit":   {"challenge.created"},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{named("submission.created"), named("user.logged_in"), named("submission.created")}, out.received["notify"])
				assert.ElementsMatch(t, []event.Event{named("submission.created"), named("submission.created")}, out.received["metrics"])
				assert.Empty(t, out.received["audit"])
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			mu := sync.Mutex{}
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus(event.WithPoolSize(2))
			for sub, names := range in.subscribers {
				for _, n := range names {
					b.Subscribe(n, func(ctx context.Context, e event.Event) error {
						mu.Lock()
						out.received[sub] = append(out.received[sub], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_HandlerFailuresAreContained(t *testing.T) {
	var calls atomic.Int32

	b := event.NewBus()
	b.Subscribe("e", func(context.Context, event.Event) error {
		calls.Add(1)
		panic("boom")
	})
	b.Subscribe("e", func(context.Context, event.Event) error {
		calls.Add(1)
		return errors.New("failed")
	})

	b.Publish(context.Background(), named("e"))
	b.Stop()

	assert.Equal(t, int32(2), calls.Load())
}

func TestBus_PublishAfterStop(t *testing.T) {
	var calls atomic.Int32

	b := event.NewBus()
	b.Subscribe("e", func(context.Context, event.Event) error {
		calls.Add(1)
		return nil
	})
	b.Stop()

	b.Publish(context.Background(), named("e"))
	assert.Equal(t, int32(0), calls.Load())
}

type named string

func (e named) Name() string {
	return string(e)
}
