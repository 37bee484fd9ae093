// Interrupt-driven console UART.
// Main-line code produces into the TX ring and consumes from the RX ring;
// the UART interrupt does the opposite. The rings are the only state the
// two sides share.
package core

import (
	"io"
	"sync/atomic"
)

// Standard descriptors accepted by Write and Read
const (
	Stdin  = 0
	Stdout = 1
)

// USART status and control bits
const (
	USART_SR_RXNE    = 1 << 5  // Read data register not empty
	USART_SR_TXE     = 1 << 7  // Transmit data register empty
	USART_CR1_RE     = 1 << 2  // Receiver enable
	USART_CR1_TE     = 1 << 3  // Transmitter enable
	USART_CR1_RXNEIE = 1 << 5  // RXNE interrupt enable
	USART_CR1_TXEIE  = 1 << 7  // TXE interrupt enable
	USART_CR1_UE     = 1 << 13 // USART enable
)

const (
	USART2_IRQ = 38

	// Bytes moved per direction per interrupt
	uartBatch = 16

	asciiEOT = 4
)

// Default USART2 pins: PA2 (TX) and PA3 (RX)
var (
	DefaultUARTTx = Pin(GPIO_A, 2)
	DefaultUARTRx = Pin(GPIO_A, 3)
)

// UARTRegisters is the subset of a USART register block the driver touches
type UARTRegisters struct {
	SR  Register32 // 0x00 Status
	DR  Register32 // 0x04 Data
	BRR Register32 // 0x08 Baud rate
	CR1 Register32 // 0x0C Control 1
}

// UARTConfig wires a UART to its collaborators
type UARTConfig struct {
	Regs    *UARTRegisters
	Clock   ClockControl
	IRQ     InterruptController
	GPIO    GPIODriver
	Periph  Peripheral
	IRQLine uint8
	TxPin   GPIOPin
	RxPin   GPIOPin
	AltFunc AltFunc
	ClockHz uint32 // Peripheral bus clock used for the baud divisor
}

// UART is the console serial line
type UART struct {
	cfg UARTConfig
	tx  RingBuffer
	rx  RingBuffer

	overruns uint32
	txDrops  uint32

	// live is set once Init has brought up the peripheral, so a TX
	// interrupt can drain the ring
	live bool

	// Idle is called on every iteration of a busy-wait. The board uses it
	// to wait for an interrupt; host code uses it to deliver one.
	Idle func()
}

// NewUART creates a UART. Nothing touches hardware until Init.
func NewUART(cfg UARTConfig) *UART {
	return &UART{cfg: cfg}
}

// BaudDivisor returns the USARTDIV register value for 16x oversampling,
// rounded to nearest (0x8B for 115200 baud at 16 MHz)
func BaudDivisor(clockHz, baud uint32) uint32 {
	return (clockHz + baud/2) / baud
}

// Init empties both rings and, for a non-zero baud, brings up the
// peripheral: clock, pins, divisor, interrupt line, then TE|RE|UE|RXNEIE.
// A zero baud is a pure software reset.
func (u *UART) Init(baud uint32) error {
	u.tx.Reset()
	u.rx.Reset()
	atomic.StoreUint32(&u.overruns, 0)
	atomic.StoreUint32(&u.txDrops, 0)
	u.live = false

	if baud == 0 {
		return nil
	}

	u.cfg.Clock.Enable(u.cfg.Periph)
	if err := u.cfg.GPIO.ConfigureAlternate(u.cfg.TxPin, u.cfg.AltFunc); err != nil {
		return err
	}
	if err := u.cfg.GPIO.ConfigureAlternate(u.cfg.RxPin, u.cfg.AltFunc); err != nil {
		return err
	}

	u.cfg.Regs.BRR.Set(BaudDivisor(u.cfg.ClockHz, baud))
	u.cfg.IRQ.SetIRQ(u.cfg.IRQLine, true)
	u.cfg.Regs.CR1.SetBits(USART_CR1_TE | USART_CR1_RE | USART_CR1_UE | USART_CR1_RXNEIE)
	u.live = true
	return nil
}

func (u *UART) idle() {
	if u.Idle != nil {
		u.Idle()
	}
}

// PutByte queues one byte for transmission and arms the TX interrupt
func (u *UART) PutByte(c byte) error {
	if err := u.tx.Put(c); err != nil {
		return err
	}
	u.cfg.Regs.CR1.SetBits(USART_CR1_TXEIE)
	return nil
}

// GetByte takes one received byte
func (u *UART) GetByte() (byte, error) {
	return u.rx.Get()
}

// canDrain reports whether waiting on a full TX ring can make progress:
// the peripheral is up, there is an Idle hook, and the TX interrupt can run.
func (u *UART) canDrain() bool {
	return u.live && u.Idle != nil && interruptsCanRun()
}

// Write queues p on the TX ring and returns len(p). A full ring is waited
// on while the TX interrupt can drain it; otherwise the bytes that do not
// fit are dropped and counted in TxDrops. Queued bytes are never overwritten.
func (u *UART) Write(fd int, p []byte) (int, error) {
	if fd != Stdout {
		return 0, ErrBadDescriptor
	}
	var dropped uint32
	for i, c := range p {
		for u.tx.Put(c) != nil {
			if !u.canDrain() {
				dropped = uint32(len(p) - i)
				break
			}
			u.cfg.Regs.CR1.SetBits(USART_CR1_TXEIE)
			u.idle()
		}
		if dropped != 0 {
			break
		}
	}
	u.cfg.Regs.CR1.SetBits(USART_CR1_TXEIE)
	if dropped != 0 {
		total := atomic.AddUint32(&u.txDrops, dropped)
		RecordEvent(EvtTxDrop, 0, total, dropped)
	}
	return len(p), nil
}

func (u *UART) echo(s string) {
	_, _ = u.Write(Stdout, []byte(s))
}

// readByteBlocking spins until the RX ring yields a byte
func (u *UART) readByteBlocking() byte {
	for {
		if c, err := u.rx.Get(); err == nil {
			return c
		}
		u.idle()
	}
}

// Read fills p with one edited line from the console, blocking per byte.
// EOT ends the read without storing anything; backspace drops the last
// accepted byte and erases it on the terminal; CR or LF stores a single
// '\n' and ends the read; every other byte is stored and echoed.
func (u *UART) Read(fd int, p []byte) (int, error) {
	if fd != Stdin {
		return 0, ErrBadDescriptor
	}

	n := 0
	for i := 0; i < len(p); i++ {
		c := u.readByteBlocking()

		switch c {
		case asciiEOT:
			return n, nil
		case '\b':
			if n > 0 {
				n--
				u.echo("\b \b")
			}
		case '\r':
			p[n] = '\n'
			n++
			u.echo("\r\n")
			return n, nil
		case '\n':
			p[n] = '\n'
			n++
			u.echo("\n")
			return n, nil
		default:
			p[n] = c
			n++
			_, _ = u.Write(Stdout, p[n-1:n])
		}
	}
	return n, nil
}

// HandleInterrupt is the USART interrupt handler. It moves up to 16 bytes
// each way, masks the TX interrupt once the TX ring runs dry, and clears
// the NVIC pending bit once at the end.
func (u *UART) HandleInterrupt() {
	regs := u.cfg.Regs

	handled := 0
	for handled < uartBatch && regs.SR.HasBits(USART_SR_TXE) {
		c, err := u.tx.Get()
		if err != nil {
			break
		}
		regs.DR.Set(uint32(c))
		handled++
	}
	if u.tx.IsEmpty() {
		regs.CR1.ClearBits(USART_CR1_TXEIE)
	}

	handled = 0
	for handled < uartBatch && regs.SR.HasBits(USART_SR_RXNE) {
		c := byte(regs.DR.Get()) // reading DR clears RXNE
		handled++
		if u.rx.Put(c) != nil {
			// No error path from an interrupt: the byte is lost.
			drops := atomic.AddUint32(&u.overruns, 1)
			RecordEvent(EvtRxOverrun, 0, drops, 0)
		}
	}

	u.cfg.IRQ.ClearPending(u.cfg.IRQLine)
}

// Buffered returns the number of received bytes waiting to be read
func (u *UART) Buffered() int {
	return u.rx.Len()
}

// Pending returns the number of bytes waiting to be transmitted
func (u *UART) Pending() int {
	return u.tx.Len()
}

// Overruns returns how many received bytes were dropped on a full RX ring
func (u *UART) Overruns() uint32 {
	return atomic.LoadUint32(&u.overruns)
}

// TxDrops returns how many bytes Write dropped because the TX ring was full
// and could not drain
func (u *UART) TxDrops() uint32 {
	return atomic.LoadUint32(&u.txDrops)
}

// Stdout returns an io.Writer that writes to the console
func (u *UART) Stdout() io.Writer {
	return stdoutWriter{u}
}

type stdoutWriter struct{ u *UART }

func (w stdoutWriter) Write(p []byte) (int, error) {
	return w.u.Write(Stdout, p)
}
