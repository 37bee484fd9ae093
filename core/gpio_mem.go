package core

import "sync"

// PinMode records how a MemGPIO pin was configured
type PinMode uint8

const (
	PinUnconfigured PinMode = iota
	PinOutput
	PinInputPullUp
	PinAlternate
)

// PinEdge is a level change recorded by MemGPIO
type PinEdge struct {
	Pin   GPIOPin
	Value bool
}

// MemGPIO is a host GPIODriver that keeps pin levels in memory and
// records every level change. Used by tests and the simulator.
type MemGPIO struct {
	mu     sync.Mutex
	levels map[GPIOPin]bool
	modes  map[GPIOPin]PinMode
	alt    map[GPIOPin]AltFunc
	edges  []PinEdge

	// OnEdge, when set, is called for every level change
	OnEdge func(PinEdge)
}

// NewMemGPIO creates an empty in-memory GPIO bank
func NewMemGPIO() *MemGPIO {
	return &MemGPIO{
		levels: make(map[GPIOPin]bool),
		modes:  make(map[GPIOPin]PinMode),
		alt:    make(map[GPIOPin]AltFunc),
	}
}

func (g *MemGPIO) ConfigureOutput(pin GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = PinOutput
	return nil
}

func (g *MemGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = PinInputPullUp
	g.levels[pin] = true
	return nil
}

func (g *MemGPIO) ConfigureAlternate(pin GPIOPin, af AltFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = PinAlternate
	g.alt[pin] = af
	return nil
}

func (g *MemGPIO) SetPin(pin GPIOPin, value bool) error {
	g.mu.Lock()
	old, seen := g.levels[pin]
	g.levels[pin] = value
	var edge *PinEdge
	if !seen || old != value {
		g.edges = append(g.edges, PinEdge{Pin: pin, Value: value})
		edge = &g.edges[len(g.edges)-1]
	}
	hook := g.OnEdge
	g.mu.Unlock()

	if edge != nil && hook != nil {
		hook(*edge)
	}
	return nil
}

func (g *MemGPIO) GetPin(pin GPIOPin) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin], nil
}

// Level returns the current level of a pin
func (g *MemGPIO) Level(pin GPIOPin) bool {
	v, _ := g.GetPin(pin)
	return v
}

// Mode returns how a pin was configured and its alternate function, if any
func (g *MemGPIO) Mode(pin GPIOPin) (PinMode, AltFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.modes[pin], g.alt[pin]
}

// Edges returns a copy of the recorded level changes
func (g *MemGPIO) Edges() []PinEdge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PinEdge, len(g.edges))
	copy(out, g.edges)
	return out
}

// ClearEdges forgets the recorded level changes
func (g *MemGPIO) ClearEdges() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = g.edges[:0]
}
