package swarm

// Key identifies the keys the swarm reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyEscape
)

func (k Key) String() string {
	switch k {
	case KeyW:
		return "W"
	case KeyA:
		return "A"
	case KeyS:
		return "S"
	case KeyD:
		return "D"
	case KeyQ:
		return "Q"
	case KeyE:
		return "E"
	case KeyEscape:
		return "Escape"
	default:
		return "unknown"
	}
}

// EventKind discriminates InputEvent.
type EventKind int

const (
	// KeyChanged carries Key and Pressed.
	KeyChanged EventKind = iota
	// Scrolled carries Scroll, positive away from the user.
	Scrolled
	// Quit asks the frame loop to stop.
	Quit
)

// InputEvent is a discrete input event delivered by an input source.
type InputEvent struct {
	Kind    EventKind
	Key     Key
	Pressed bool
	Scroll  float32
}

// KeyEvent returns a key state change.
func KeyEvent(key Key, pressed bool) InputEvent {
	return InputEvent{Kind: KeyChanged, Key: key, Pressed: pressed}
}

// ScrollEvent returns a wheel movement.
func ScrollEvent(delta float32) InputEvent {
	return InputEvent{Kind: Scrolled, Scroll: delta}
}

// QuitEvent returns a close request.
func QuitEvent() InputEvent {
	return InputEvent{Kind: Quit}
}

// IsQuit reports whether the event should stop the frame loop. Pressing
// Escape counts as a close request.
func (e InputEvent) IsQuit() bool {
	return e.Kind == Quit || (e.Kind == KeyChanged && e.Key == KeyEscape && e.Pressed)
}
