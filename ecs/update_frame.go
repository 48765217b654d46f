package ecs

// UpdateFrame is passed to every system run. It is shared by all systems of a tick.
type UpdateFrame struct {
	DeltaTime float64
	Frame     uint64
	Phase     Phase
	Storage   *Storage
	// Commands run after the last phase of the tick.
	Commands *Commands
}

func newUpdateFrame(dt float64, frame uint64, storage *Storage, commands *Commands) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Frame:     frame,
		Storage:   storage,
		Commands:  commands,
	}
}
