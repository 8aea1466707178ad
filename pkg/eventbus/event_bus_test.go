package eventbus_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nordwell/desk-sdk/pkg/eventbus"
)

type testEvent struct {
	Name string
}

func newBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

func TestPublish_DeliversToMatchingSubscribers(t *testing.T) {
	bus := newBus()

	var received []testEvent
	bus.Subscribe(func(e testEvent) { received = append(received, e) })
	bus.Subscribe(func(n int) { t.Fatal("int handler must not fire") })

	bus.Publish(testEvent{Name: "first"})
	bus.Publish(testEvent{Name: "second"})

	require.Len(t, received, 2)
	require.Equal(t, "first", received[0].Name)
}

func TestPublish_RecoversFromPanickingHandler(t *testing.T) {
	bus := newBus()

	fired := false
	bus.Subscribe(func(e testEvent) { panic("boom") })
	bus.Subscribe(func(e testEvent) { fired = true })

	require.NotPanics(t, func() { bus.Publish(testEvent{}) })
	require.True(t, fired)
}

func TestUnsubscribe(t *testing.T) {
	bus := newBus()

	count := 0
	handler := func(e testEvent) { count++ }
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Publish(testEvent{})
	bus.Unsubscribe(handler)
	bus.Publish(testEvent{})

	require.Equal(t, 1, count)
	require.Equal(t, 0, bus.SubscribersCount())
}

func TestUnsubscribe_UnknownHandlerIsNoop(t *testing.T) {
	bus := newBus()

	bus.Subscribe(func(e testEvent) {})
	bus.Unsubscribe(func(e testEvent) {})

	require.Equal(t, 1, bus.SubscribersCount())
}

func TestMatchSignature(t *testing.T) {
	require.True(t, eventbus.MatchSignature(func(e testEvent) {}, []interface{}{testEvent{}}))
	require.False(t, eventbus.MatchSignature(func(n int) {}, []interface{}{testEvent{}}))
	require.False(t, eventbus.MatchSignature("not a func", []interface{}{testEvent{}}))
}
