package core

// EventContext carries the payload of a fired event.
type EventContext struct {
	Code SystemEventCode
	// 16 bytes is enough for the system events below.
	Data struct {
		U32 [4]uint32
		I32 [4]int32
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed.
	/* Context usage:
	 * key = data.I32[0]
	 */
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released.
	/* Context usage:
	 * key = data.I32[0]
	 */
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Framebuffer resized from the OS.
	/* Context usage:
	 * width = data.U32[0]
	 * height = data.U32[1]
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 1024

// Should return true if handled.
type FnOnEvent func(sender interface{}, listener interface{}, context EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus dispatches events synchronously on the calling goroutine.
// Listeners are invoked in registration order.
type EventBus struct {
	registered [MAX_MESSAGE_CODES][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Register listens for events sent with the provided code. A listener can
// only be registered once per code; a duplicate returns false.
func (b *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if int(code) >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	for _, e := range b.registered[code] {
		if e.listener == listener {
			return false
		}
	}
	b.registered[code] = append(b.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister returns false if no matching registration is found.
func (b *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	if int(code) >= MAX_MESSAGE_CODES {
		return false
	}
	events := b.registered[code]
	for i, e := range events {
		if e.listener == listener {
			b.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

// Fire sends the event to the listeners of its code. If a handler returns
// true the event is considered handled and is not passed on.
func (b *EventBus) Fire(sender interface{}, context EventContext) bool {
	if int(context.Code) >= MAX_MESSAGE_CODES {
		return false
	}
	for _, e := range b.registered[context.Code] {
		if e.callback(sender, e.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (b *EventBus) Shutdown() {
	for i := range b.registered {
		b.registered[i] = nil
	}
}

// Key codes carried by key events. The values match glfw's so the platform
// can forward them untouched.
type Key int32

const (
	KEY_SPACE  Key = 32
	KEY_P      Key = 80
	KEY_R      Key = 82
	KEY_ESCAPE Key = 256
)
