package tests

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/agg-svc/internal/domain"
	"storefront/agg-svc/internal/mocks"
	"storefront/agg-svc/internal/service"
)

func quietLogger() log.FieldLogger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

var placedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func confirmedEvent(items ...domain.OrderedDish) domain.OrderEvent {
	return domain.OrderEvent{
		Type:      domain.OrderConfirmed,
		OrderID:   1714564800000,
		Total:     45.01,
		Items:     items,
		Timestamp: placedAt,
	}
}

func TestConsumer_ProcessOrder(t *testing.T) {
	ctx := context.Background()
	items := []domain.OrderedDish{{DishID: 1, Quantity: 2}, {DishID: 16, Quantity: 1}}

	tests := []struct {
		name         string
		event        domain.OrderEvent
		setupStore   func(*mocks.PopularityStore)
		setupCounter func(*mocks.DishCounter)
		wantErr      bool
	}{
		{
			name:  "success",
			event: confirmedEvent(items...),
			setupStore: func(store *mocks.PopularityStore) {
				store.On("MarkProcessed", ctx, int64(1714564800000)).Return(true, nil)
				store.On("IncrementDishes", ctx, placedAt, items).Return(nil)
			},
			setupCounter: func(counter *mocks.DishCounter) {
				counter.On("RecordDishes", ctx, placedAt, items).Return(nil)
			},
		},
		{
			name:  "already counted",
			event: confirmedEvent(items...),
			setupStore: func(store *mocks.PopularityStore) {
				store.On("MarkProcessed", ctx, int64(1714564800000)).Return(false, nil)
			},
		},
		{
			name:  "zero quantities dropped",
			event: confirmedEvent(domain.OrderedDish{DishID: 3, Quantity: 0}, domain.OrderedDish{DishID: 4, Quantity: 1}),
			setupStore: func(store *mocks.PopularityStore) {
				store.On("MarkProcessed", ctx, int64(1714564800000)).Return(true, nil)
				store.On("IncrementDishes", ctx, placedAt, []domain.OrderedDish{{DishID: 4, Quantity: 1}}).Return(nil)
			},
			setupCounter: func(counter *mocks.DishCounter) {
				counter.On("RecordDishes", ctx, placedAt, []domain.OrderedDish{{DishID: 4, Quantity: 1}}).Return(nil)
			},
		},
		{
			name:  "no items",
			event: confirmedEvent(),
		},
		{
			name:  "other event types ignored",
			event: domain.OrderEvent{Type: "order.created", OrderID: 1, Items: items},
		},
		{
			name:  "mark error",
			event: confirmedEvent(items...),
			setupStore: func(store *mocks.PopularityStore) {
				store.On("MarkProcessed", ctx, int64(1714564800000)).Return(false, errors.New("redis down"))
			},
			wantErr: true,
		},
		{
			name:  "increment error",
			event: confirmedEvent(items...),
			setupStore: func(store *mocks.PopularityStore) {
				store.On("MarkProcessed", ctx, int64(1714564800000)).Return(true, nil)
				store.On("IncrementDishes", ctx, placedAt, items).Return(errors.New("redis down"))
			},
			wantErr: true,
		},
		{
			name:  "counter error",
			event: confirmedEvent(items...),
			setupStore: func(store *mocks.PopularityStore) {
				store.On("MarkProcessed", ctx, int64(1714564800000)).Return(true, nil)
				store.On("IncrementDishes", ctx, placedAt, items).Return(nil)
			},
			setupCounter: func(counter *mocks.DishCounter) {
				counter.On("RecordDishes", ctx, placedAt, items).Return(errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			store := mocks.NewPopularityStore(t)
			counter := mocks.NewDishCounter(t)
			if testCase.setupStore != nil {
				testCase.setupStore(store)
			}
			if testCase.setupCounter != nil {
				testCase.setupCounter(counter)
			}

			consumer := service.NewConsumer(nil, store, quietLogger())
			consumer.Counter = counter

			err := consumer.ProcessOrder(ctx, testCase.event)

			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConsumer_ProcessOrderWithoutCounter(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewPopularityStore(t)
	store.On("MarkProcessed", ctx, int64(7)).Return(true, nil)
	store.On("IncrementDishes", ctx, placedAt, mock.Anything).Return(nil)

	consumer := service.NewConsumer(nil, store, quietLogger())
	consumer.Clock = func() time.Time { return placedAt }

	event := domain.OrderEvent{Type: domain.OrderConfirmed, OrderID: 7, Items: []domain.OrderedDish{{DishID: 2, Quantity: 1}}}
	assert.NoError(t, consumer.ProcessOrder(ctx, event))
}

// scriptedReader replays messages, then blocks until the context ends.
type scriptedReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	errs     []error
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func TestConsumer_Start(t *testing.T) {
	payload, err := json.Marshal(confirmedEvent(domain.OrderedDish{DishID: 9, Quantity: 3}))
	require.NoError(t, err)

	reader := &scriptedReader{
		errs:     []error{errors.New("broker hiccup")},
		messages: []kafka.Message{{Value: []byte("not json")}, {Value: payload}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counted := make(chan struct{})
	store := mocks.NewPopularityStore(t)
	store.On("MarkProcessed", mock.Anything, int64(1714564800000)).Return(true, nil).Once()
	store.On("IncrementDishes", mock.Anything, placedAt, []domain.OrderedDish{{DishID: 9, Quantity: 3}}).
		Return(nil).
		Run(func(mock.Arguments) { close(counted) }).
		Once()

	consumer := service.NewConsumer(reader, store, quietLogger())
	consumer.RetryDelay = time.Millisecond

	stopped := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(stopped)
	}()

	select {
	case <-counted:
	case <-time.After(time.Second):
		t.Fatal("order was not counted")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

// failingReader fails every read with err and counts the attempts.
type failingReader struct {
	err   error
	mu    sync.Mutex
	reads int
}

func (r *failingReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	return kafka.Message{}, r.err
}

func (r *failingReader) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func TestConsumer_StartStopsWhenReaderCloses(t *testing.T) {
	reader := &failingReader{err: io.EOF}
	consumer := service.NewConsumer(reader, mocks.NewPopularityStore(t), quietLogger())

	stopped := make(chan struct{})
	go func() {
		consumer.Start(context.Background())
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("consumer kept reading a closed reader")
	}
	assert.Equal(t, 1, reader.Reads())
}

func TestConsumer_StartBacksOffOnReadErrors(t *testing.T) {
	reader := &failingReader{err: errors.New("broker unavailable")}
	consumer := service.NewConsumer(reader, mocks.NewPopularityStore(t), quietLogger())
	consumer.RetryDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	consumer.Start(ctx)

	assert.GreaterOrEqual(t, reader.Reads(), 2)
	assert.LessOrEqual(t, reader.Reads(), 4)
}
