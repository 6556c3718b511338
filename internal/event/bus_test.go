package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishInRegistrationOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(StationBlocked, func(e Event) { got = append(got, "first") })
	b.Subscribe(StationBlocked, func(e Event) { got = append(got, "second") })
	b.SubscribeAll(func(e Event) { got = append(got, "all:"+string(e.Type)) })
	b.Subscribe(ItemAdded, func(e Event) { got = append(got, "item") })

	b.Publish(Event{Type: StationBlocked})
	assert.Equal(t, []string{"first", "second", "all:StationBlocked"}, got)

	got = nil
	b.Publish(Event{Type: PaymentAccepted})
	assert.Equal(t, []string{"all:PaymentAccepted"}, got)
}

func TestPublishOnNilBus(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() { b.Publish(Event{Type: ItemAdded}) })
}
