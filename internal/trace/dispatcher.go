package trace

// Dispatcher is a Tracer that forwards emitted events to whichever sink is installed.
type Dispatcher struct {
	sink    Sink
	emitted int
}

// NewDispatcher creates a dispatcher with no sink installed.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Sink() Sink { return d.sink }
func (d *Dispatcher) SetSink(s Sink) { d.sink = s }

// Emit delivers ev to the active sink. Events are dropped while no sink is installed.
func (d *Dispatcher) Emit(ev Event) error {
	if d.sink == nil {
		return nil
	}
	d.emitted++
	return d.sink.Event(ev)
}

// Emitted is the number of events delivered to a sink.
func (d *Dispatcher) Emitted() int {
	return d.emitted
}
