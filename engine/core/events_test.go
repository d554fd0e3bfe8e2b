package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFireStopsAtFirstHandler(t *testing.T) {
	bus := NewEventBus()
	var calls []string

	first := "first"
	second := "second"
	assert.True(t, bus.Register(EVENT_CODE_RESIZED, first, func(sender, listener interface{}, ctx EventContext) bool {
		calls = append(calls, listener.(string))
		return true
	}))
	assert.True(t, bus.Register(EVENT_CODE_RESIZED, second, func(sender, listener interface{}, ctx EventContext) bool {
		calls = append(calls, listener.(string))
		return false
	}))

	ctx := EventContext{Code: EVENT_CODE_RESIZED}
	ctx.Data.U32[0] = 800
	ctx.Data.U32[1] = 600
	assert.True(t, bus.Fire(nil, ctx))
	assert.Equal(t, []string{"first"}, calls)
}

func TestEventBusRejectsDuplicateListener(t *testing.T) {
	bus := NewEventBus()
	cb := func(sender, listener interface{}, ctx EventContext) bool { return false }

	assert.True(t, bus.Register(EVENT_CODE_KEY_PRESSED, "engine", cb))
	assert.False(t, bus.Register(EVENT_CODE_KEY_PRESSED, "engine", cb))
	assert.True(t, bus.Register(EVENT_CODE_KEY_RELEASED, "engine", cb))
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	fired := 0
	cb := func(sender, listener interface{}, ctx EventContext) bool {
		fired++
		return false
	}

	bus.Register(EVENT_CODE_APPLICATION_QUIT, "a", cb)
	bus.Register(EVENT_CODE_APPLICATION_QUIT, "b", cb)
	assert.True(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, "a"))
	assert.False(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, "a"))

	assert.False(t, bus.Fire(nil, EventContext{Code: EVENT_CODE_APPLICATION_QUIT}))
	assert.Equal(t, 1, fired)

	bus.Shutdown()
	bus.Fire(nil, EventContext{Code: EVENT_CODE_APPLICATION_QUIT})
	assert.Equal(t, 1, fired)
}
