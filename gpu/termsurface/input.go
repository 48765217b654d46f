package termsurface

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/plus3/swarm/swarm"
)

var runes = map[rune]swarm.Key{
	'w': swarm.KeyW,
	'a': swarm.KeyA,
	's': swarm.KeyS,
	'd': swarm.KeyD,
	'q': swarm.KeyQ,
	'e': swarm.KeyE,
}

// Input turns tcell events into swarm input events. Terminals only report key
// presses, so every press is followed by a release on the next poll.
type Input struct {
	events  chan tcell.Event
	quit    chan struct{}
	once    sync.Once
	pending []swarm.Key
	out     []swarm.InputEvent
}

// NewInput starts reading events from screen until Close.
func NewInput(screen tcell.Screen) *Input {
	in := &Input{
		events: make(chan tcell.Event, 64),
		quit:   make(chan struct{}),
	}
	go screen.ChannelEvents(in.events, in.quit)
	return in
}

// Poll returns the events received since the last call without blocking.
func (in *Input) Poll() []swarm.InputEvent {
	in.out = in.out[:0]
	for _, key := range in.pending {
		in.out = append(in.out, swarm.KeyEvent(key, false))
	}
	in.pending = in.pending[:0]

	for {
		select {
		case ev, ok := <-in.events:
			if !ok {
				return append(in.out, swarm.QuitEvent())
			}
			in.translate(ev)
		default:
			return in.out
		}
	}
}

func (in *Input) translate(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			in.out = append(in.out, swarm.QuitEvent())
		case tcell.KeyRune:
			if key, ok := runes[ev.Rune()]; ok {
				in.out = append(in.out, swarm.KeyEvent(key, true))
				in.pending = append(in.pending, key)
			}
		}
	case *tcell.EventMouse:
		switch {
		case ev.Buttons()&tcell.WheelUp != 0:
			in.out = append(in.out, swarm.ScrollEvent(1))
		case ev.Buttons()&tcell.WheelDown != 0:
			in.out = append(in.out, swarm.ScrollEvent(-1))
		}
	}
}

// Close stops reading events.
func (in *Input) Close() {
	in.once.Do(func() { close(in.quit) })
}
