package core

import "sync"

// UARTLine models the wire side of a USART for host builds. Bytes pushed
// with Inject appear in DR one at a time with RXNE set; bytes written to
// DR are captured and TXE is always set (the line transmits instantly).
type UARTLine struct {
	mu  sync.Mutex
	rx  []byte
	tx  []byte
	brr Reg32
	cr1 Reg32

	// OnTransmit, when set, receives every byte written to DR
	OnTransmit func(byte)
}

// NewUARTLine creates an idle line
func NewUARTLine() *UARTLine {
	return &UARTLine{}
}

// Registers returns a register block backed by the line
func (l *UARTLine) Registers() *UARTRegisters {
	return &UARTRegisters{
		SR:  lineStatus{l},
		DR:  lineData{l},
		BRR: &l.brr,
		CR1: &l.cr1,
	}
}

// Inject queues bytes arriving from the remote end
func (l *UARTLine) Inject(p []byte) {
	l.mu.Lock()
	l.rx = append(l.rx, p...)
	l.mu.Unlock()
}

// Transmitted returns and clears the captured TX bytes
func (l *UARTLine) Transmitted() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.tx
	l.tx = nil
	return out
}

// RxWaiting returns the number of injected bytes not yet read from DR
func (l *UARTLine) RxWaiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rx)
}

// InterruptPending reports whether the USART would request an interrupt:
// RXNE with RXNEIE, or TXE with TXEIE
func (l *UARTLine) InterruptPending() bool {
	cr1 := l.cr1.Get()
	if cr1&USART_CR1_TXEIE != 0 {
		return true
	}
	return cr1&USART_CR1_RXNEIE != 0 && l.RxWaiting() > 0
}

func (l *UARTLine) status() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	sr := uint32(USART_SR_TXE)
	if len(l.rx) > 0 {
		sr |= USART_SR_RXNE
	}
	return sr
}

func (l *UARTLine) readData() uint32 {
	l.mu.Lock()
	if len(l.rx) == 0 {
		l.mu.Unlock()
		return 0
	}
	c := l.rx[0]
	l.rx = l.rx[1:]
	l.mu.Unlock()
	return uint32(c)
}

func (l *UARTLine) writeData(v uint32) {
	l.mu.Lock()
	l.tx = append(l.tx, byte(v))
	hook := l.OnTransmit
	l.mu.Unlock()
	if hook != nil {
		hook(byte(v))
	}
}

// lineStatus is the read-only SR view of a line
type lineStatus struct{ l *UARTLine }

func (s lineStatus) Get() uint32 { return s.l.status() }
func (s lineStatus) Set(uint32) {}
func (s lineStatus) SetBits(uint32) {}
func (s lineStatus) ClearBits(uint32) {}
func (s lineStatus) HasBits(v uint32) bool { return s.l.status()&v != 0 }

// lineData is the DR view of a line: reads pop RX, writes push TX
type lineData struct{ l *UARTLine }

func (d lineData) Get() uint32 { return d.l.readData() }
func (d lineData) Set(v uint32) { d.l.writeData(v) }
func (d lineData) SetBits(v uint32) { d.l.writeData(v) }
func (d lineData) ClearBits(uint32) {}
func (d lineData) HasBits(uint32) bool { return false }
