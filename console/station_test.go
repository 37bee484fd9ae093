package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servostation/core"
)

type fakeDisplay struct {
	rows [2]string
	row  uint8
}

func (d *fakeDisplay) Clear() { d.rows = [2]string{} }

func (d *fakeDisplay) SetCursor(row, col uint8) { d.row = row }

func (d *fakeDisplay) Print(s string) { d.rows[d.row] += s }

type fakeKeypad struct{ key byte }

func (k *fakeKeypad) Key() byte { return k.key }

type harness struct {
	board *core.MemBoard
	st    *Station
	lcd   *fakeDisplay
	keys  *fakeKeypad
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := core.NewMemBoard()
	require.NoError(t, b.UART.Init(115200))
	b.UART.Idle = b.ServiceUART
	require.NoError(t, b.Servos.ConfigurePins())

	h := &harness{board: b, lcd: &fakeDisplay{}, keys: &fakeKeypad{}}
	h.st = NewStation(b.Servos, b.Ticks, b.UART, h.lcd, h.keys)
	return h
}

// output drains the TX ring and returns everything sent so far
func (h *harness) output() string {
	h.board.ServiceUART()
	return string(h.board.Line.Transmitted())
}

// advance moves the tick counter forward, polling the station each tick
func (h *harness) advance(ms int) {
	for i := 0; i < ms; i++ {
		h.board.Ticks.Handle()
		h.st.Poll()
	}
}

func TestStationEnableOverUART(t *testing.T) {
	h := newHarness(t)
	h.board.Line.Inject([]byte("enable1\r"))
	h.board.ServiceUART()

	h.st.Poll()

	sc, err := h.board.Servos.Channel(0)
	require.NoError(t, err)
	assert.True(t, sc.Enabled)
	assert.Equal(t, 0, h.st.Active())
	assert.True(t, h.board.Timers.Running(2))
	assert.Contains(t, h.output(), "enable1\r\nServo 1 enabled\r\n")
}

func TestStationEnableWithSpace(t *testing.T) {
	h := newHarness(t)
	h.st.HandleLine("enable 2\n")

	sc, _ := h.board.Servos.Channel(1)
	assert.True(t, sc.Enabled)
	assert.Equal(t, 1, h.st.Active())
}

func TestStationDisable(t *testing.T) {
	h := newHarness(t)
	h.st.HandleLine("enable1\n")
	h.st.HandleLine("disable1\n")

	sc, _ := h.board.Servos.Channel(0)
	assert.False(t, sc.Enabled)
	assert.Equal(t, NoChannel, h.st.Active())
	assert.False(t, h.board.GPIO.Level(core.DefaultServoPins[0]))
	assert.Contains(t, h.output(), "Servo 1 disabled\r\n")
}

func TestStationInvalidCommand(t *testing.T) {
	for _, line := range []string{"hello\n", "enable3\n", "enable\n", "disable0\n", "enable12\n", "\n"} {
		t.Run(strings.TrimSpace(line), func(t *testing.T) {
			h := newHarness(t)
			h.st.HandleLine("enable1\n")
			require.Equal(t, 0, h.st.Active())

			h.st.HandleLine(line)

			assert.Equal(t, NoChannel, h.st.Active())
			assert.True(t, strings.HasSuffix(h.output(), "Invalid command\r\n"))
			sc, _ := h.board.Servos.Channel(0)
			assert.True(t, sc.Enabled, "an invalid command leaves servos alone")
		})
	}
}

func TestStationKeypadAngleEntry(t *testing.T) {
	h := newHarness(t)
	h.st.HandleLine("enable1\n")

	for _, k := range []byte("90#") {
		h.st.HandleKey(k)
	}

	sc, _ := h.board.Servos.Channel(0)
	assert.Equal(t, uint16(15), sc.HighTick)
	assert.Equal(t, uint16(185), sc.LowTick)
	angle, _ := h.board.Servos.Angle(0)
	assert.Equal(t, uint8(90), angle)
	assert.Equal(t, "", h.st.Entry())
	assert.Contains(t, h.output(), "Servo 1 angle 90\r\n")
}

func TestStationKeypadRejectsLargeAngle(t *testing.T) {
	h := newHarness(t)
	h.st.HandleLine("enable1\n")
	for _, k := range []byte("45#181#") {
		h.st.HandleKey(k)
	}

	angle, _ := h.board.Servos.Angle(0)
	assert.Equal(t, uint8(45), angle, "previous angle kept")
	assert.Equal(t, 0, h.st.Active())
	assert.True(t, strings.HasSuffix(h.output(), "Invalid angle\r\n"))
}

func TestStationKeypadEntryLimits(t *testing.T) {
	h := newHarness(t)
	h.st.HandleLine("enable1\n")

	for _, k := range []byte("123") {
		h.st.HandleKey(k)
	}
	assert.Equal(t, "123", h.st.Entry())

	h.st.HandleKey('4')
	assert.Equal(t, "", h.st.Entry(), "a fourth digit discards the entry")

	h.st.HandleKey('1')
	h.st.HandleKey('*')
	assert.Equal(t, "", h.st.Entry())

	h.st.HandleKey('A')
	h.st.HandleKey('#')
	assert.Equal(t, "", h.st.Entry())
	angle, _ := h.board.Servos.Angle(0)
	assert.Equal(t, uint8(0), angle)
}

func TestStationKeypadWithoutChannel(t *testing.T) {
	h := newHarness(t)
	for _, k := range []byte("30#") {
		h.st.HandleKey(k)
	}
	for ch := uint8(0); ch < core.ServoChannels; ch++ {
		angle, _ := h.board.Servos.Angle(ch)
		assert.Equal(t, uint8(0), angle)
	}
	assert.Contains(t, h.output(), "No servo enabled\r\n")
}

func TestStationAngleCommand(t *testing.T) {
	h := newHarness(t)
	h.st.HandleLine("enable2\n")
	h.st.HandleLine("angle 180\n")

	sc, _ := h.board.Servos.Channel(1)
	assert.Equal(t, uint16(24), sc.HighTick)

	h.st.HandleLine("angle 200\n")
	sc, _ = h.board.Servos.Channel(1)
	assert.Equal(t, uint16(24), sc.HighTick)
	assert.Equal(t, 1, h.st.Active(), "a rejected angle is not an invalid command")
}

func TestStationStatus(t *testing.T) {
	h := newHarness(t)
	h.st.HandleLine("enable1\n")
	h.st.HandleLine("angle 0\n")
	h.st.HandleLine("status\n")

	out := h.output()
	assert.Contains(t, out, "Servo 1: on angle 0 pulse 6/194\r\n")
	assert.Contains(t, out, "Servo 2: off angle 0 pulse 0/200\r\n")
	assert.Equal(t, 0, h.st.Active())
}

func TestStationKeypadScanDebounce(t *testing.T) {
	h := newHarness(t)
	h.st.Start()
	h.st.HandleLine("enable1\n")

	press := func(k byte) {
		h.keys.key = k
		h.advance(KeyScanTicks * 3)
		h.keys.key = 0
		h.advance(KeyScanTicks)
	}
	press('6')
	press('0')
	assert.Equal(t, "60", h.st.Entry(), "a held key registers once")
	press('#')

	angle, _ := h.board.Servos.Angle(0)
	assert.Equal(t, uint8(60), angle)
}

func TestStationDisplay(t *testing.T) {
	h := newHarness(t)
	h.st.Start()
	assert.Equal(t, "No servo", h.lcd.rows[0])
	assert.Equal(t, "> ", h.lcd.rows[1])

	h.st.HandleLine("enable2\n")
	h.st.HandleKey('4')
	h.advance(DisplayTicks)

	assert.Equal(t, "Servo 2 0deg", h.lcd.rows[0])
	assert.Equal(t, "> 4", h.lcd.rows[1])
}

func TestStationBanner(t *testing.T) {
	h := newHarness(t)
	h.st.Start()
	assert.Equal(t, "Servo station ready\r\n", h.output())
}
