package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironframe/ecs/internal/core/ecs/entity"
)

func TestSink_PublishCallsListenersInOrder(t *testing.T) {
	var sink Sink
	var order []int
	sink.Connect(func(owner any, e entity.Entity) { order = append(order, 1) })
	sink.Connect(func(owner any, e entity.Entity) { order = append(order, 2) })
	sink.Connect(func(owner any, e entity.Entity) { order = append(order, 3) })

	sink.Publish(nil, entity.Make(1, 0))

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSink_PublishPassesOwnerAndEntity(t *testing.T) {
	var sink Sink
	type registryStub struct{ name string }
	owner := &registryStub{name: "r"}
	want := entity.Make(7, 2)

	var gotOwner any
	var gotEntity entity.Entity
	sink.Connect(func(o any, e entity.Entity) {
		gotOwner = o
		gotEntity = e
	})

	sink.Publish(owner, want)

	assert.Same(t, owner, gotOwner)
	assert.Equal(t, want, gotEntity)
}

func TestSink_Disconnect(t *testing.T) {
	var sink Sink
	var calls int
	token := sink.Connect(func(owner any, e entity.Entity) { calls++ })
	sink.Connect(func(owner any, e entity.Entity) { calls++ })

	sink.Disconnect(token)
	sink.Publish(nil, entity.Make(1, 0))

	assert.Equal(t, 1, calls)
}

func TestSink_SelfDisconnectDuringPublish(t *testing.T) {
	var sink Sink
	var token int
	var calls int
	token = sink.Connect(func(owner any, e entity.Entity) {
		calls++
		sink.Disconnect(token)
	})

	sink.Publish(nil, entity.Make(1, 0))
	sink.Publish(nil, entity.Make(1, 0))

	assert.Equal(t, 1, calls)
}

func TestSink_ConnectFrontRunsBeforeEarlierListeners(t *testing.T) {
	var sink Sink
	var order []string
	sink.Connect(func(owner any, e entity.Entity) { order = append(order, "first") })
	sink.ConnectFront(func(owner any, e entity.Entity) { order = append(order, "front") })

	sink.Publish(nil, entity.Make(1, 0))

	assert.Equal(t, []string{"front", "first"}, order)
}

func TestSink_DisconnectTokensSurviveConnectFront(t *testing.T) {
	var sink Sink
	var calls int
	token := sink.Connect(func(owner any, e entity.Entity) { calls++ })
	sink.ConnectFront(func(owner any, e entity.Entity) { calls++ })

	sink.Disconnect(token)
	sink.Publish(nil, entity.Make(1, 0))

	assert.Equal(t, 1, calls, "only the prepended listener remains connected")
}
