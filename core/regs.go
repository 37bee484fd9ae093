package core

// Register32 is a single 32-bit peripheral register.
// TinyGo's *volatile.Register32 satisfies this interface, so targets bind
// memory-mapped registers directly; host builds use Reg32.
type Register32 interface {
	Get() uint32
	Set(value uint32)
	SetBits(value uint32)
	ClearBits(value uint32)
	HasBits(value uint32) bool
}

// Peripheral identifies a clock-gated peripheral on the APB1 bus
type Peripheral uint8

const (
	PeriphTIM2 Peripheral = iota
	PeriphTIM3
	PeriphTIM4
	PeriphTIM5
	PeriphUSART2
)

// APB1ENR bit positions (STM32F401)
var apb1Bits = [...]uint32{
	PeriphTIM2:   1 << 0,
	PeriphTIM3:   1 << 1,
	PeriphTIM4:   1 << 2,
	PeriphTIM5:   1 << 3,
	PeriphUSART2: 1 << 17,
}

// ClockControl gates peripheral clocks (RCC on STM32)
type ClockControl interface {
	Enable(p Peripheral)
	Disable(p Peripheral)
	Enabled(p Peripheral) bool
}

// APB1Clock implements ClockControl over the RCC APB1 enable register
type APB1Clock struct {
	ENR Register32
}

func (c *APB1Clock) Enable(p Peripheral) {
	if int(p) < len(apb1Bits) {
		c.ENR.SetBits(apb1Bits[p])
	}
}

func (c *APB1Clock) Disable(p Peripheral) {
	if int(p) < len(apb1Bits) {
		c.ENR.ClearBits(apb1Bits[p])
	}
}

func (c *APB1Clock) Enabled(p Peripheral) bool {
	if int(p) >= len(apb1Bits) {
		return false
	}
	return c.ENR.HasBits(apb1Bits[p])
}

// InterruptController routes peripheral interrupt lines (NVIC on Cortex-M)
type InterruptController interface {
	SetIRQ(irq uint8, enable bool)
	ClearPending(irq uint8)
}

const (
	nvicRegSize = 32
	// NVICLines is the number of external interrupt lines a Cortex-M4 NVIC decodes
	NVICLines = 240
)

// NVIC implements InterruptController over the set-enable, clear-enable and
// clear-pending register banks. All three are write-one-to-act.
type NVIC struct {
	ISER [8]Register32
	ICER [8]Register32
	ICPR [8]Register32
}

// SetIRQ enables or disables an interrupt line
func (n *NVIC) SetIRQ(irq uint8, enable bool) {
	if int(irq) >= NVICLines {
		return
	}
	reg, bit := irq/nvicRegSize, uint32(1)<<(irq%nvicRegSize)
	// Read-modify-write on ICER would disable every enabled line
	if enable {
		n.ISER[reg].Set(bit)
	} else {
		n.ICER[reg].Set(bit)
	}
}

// ClearPending clears the pending bit of an interrupt line
func (n *NVIC) ClearPending(irq uint8) {
	if int(irq) >= NVICLines {
		return
	}
	reg, bit := irq/nvicRegSize, uint32(1)<<(irq%nvicRegSize)
	n.ICPR[reg].Set(bit)
}
