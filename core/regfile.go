package core

import "sync/atomic"

// Reg32 is an in-memory register used on the host in place of a
// memory-mapped one. Every access is a single atomic word operation.
type Reg32 struct {
	v uint32
}

func (r *Reg32) Get() uint32 {
	return atomic.LoadUint32(&r.v)
}

func (r *Reg32) Set(value uint32) {
	atomic.StoreUint32(&r.v, value)
}

func (r *Reg32) SetBits(value uint32) {
	for {
		old := atomic.LoadUint32(&r.v)
		if atomic.CompareAndSwapUint32(&r.v, old, old|value) {
			return
		}
	}
}

func (r *Reg32) ClearBits(value uint32) {
	for {
		old := atomic.LoadUint32(&r.v)
		if atomic.CompareAndSwapUint32(&r.v, old, old&^value) {
			return
		}
	}
}

func (r *Reg32) HasBits(value uint32) bool {
	return atomic.LoadUint32(&r.v)&value != 0
}

// NewMemTimerRegisters returns a timer register block backed by memory
func NewMemTimerRegisters() *TimerRegisters {
	return &TimerRegisters{
		CR1:  &Reg32{},
		DIER: &Reg32{},
		SR:   &Reg32{},
		PSC:  &Reg32{},
		ARR:  &Reg32{},
		CNT:  &Reg32{},
	}
}

// NewMemTimerBank builds a TimerBank for ids 2..5 on in-memory registers
func NewMemTimerBank(clock ClockControl, irq InterruptController) *TimerBank {
	var regs [TimerCount]*TimerRegisters
	for id := MinTimerID; id <= MaxTimerID; id++ {
		regs[id] = NewMemTimerRegisters()
	}
	return NewTimerBank(regs, clock, irq)
}

// NewMemClock returns an APB1Clock over an in-memory enable register
func NewMemClock() *APB1Clock {
	return &APB1Clock{ENR: &Reg32{}}
}

// MemNVIC is a host-side interrupt controller that keeps the enable and
// pending state of every line so tests can inspect it.
type MemNVIC struct {
	enabled [8]Reg32
	pending [8]Reg32
}

func (n *MemNVIC) SetIRQ(irq uint8, enable bool) {
	reg, bit := irq/nvicRegSize, uint32(1)<<(irq%nvicRegSize)
	if enable {
		n.enabled[reg].SetBits(bit)
	} else {
		n.enabled[reg].ClearBits(bit)
	}
}

func (n *MemNVIC) ClearPending(irq uint8) {
	n.pending[irq/nvicRegSize].ClearBits(uint32(1) << (irq % nvicRegSize))
}

// Raise marks a line pending, as hardware does when the peripheral fires
func (n *MemNVIC) Raise(irq uint8) {
	n.pending[irq/nvicRegSize].SetBits(uint32(1) << (irq % nvicRegSize))
}

// Enabled reports whether a line is routed
func (n *MemNVIC) Enabled(irq uint8) bool {
	return n.enabled[irq/nvicRegSize].HasBits(uint32(1) << (irq % nvicRegSize))
}

// Pending reports whether a line is pending
func (n *MemNVIC) Pending(irq uint8) bool {
	return n.pending[irq/nvicRegSize].HasBits(uint32(1) << (irq % nvicRegSize))
}
