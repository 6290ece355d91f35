// Package regs models the GPIO register block the pin layer drives: one
// configuration word per pin, per-port set/clear/direction/input/latch
// registers and a single shared port-change event.
package regs

// PIN_CNF fields.
const (
	CnfDir             uint32 = 1 << 0
	CnfInputDisconnect uint32 = 1 << 1

	CnfPullPos  = 2
	CnfPullMask = uint32(3) << CnfPullPos
	CnfPullDown = uint32(1) << CnfPullPos
	CnfPullUp   = uint32(3) << CnfPullPos

	CnfDrivePos  = 8
	CnfDriveMask = uint32(7) << CnfDrivePos

	CnfSensePos  = 16
	CnfSenseMask = uint32(3) << CnfSensePos
	// CnfSenseFlip toggles between SenseHigh and SenseLow.
	CnfSenseFlip = uint32(1) << CnfSensePos

	// CnfReset is the power-on value: input, buffer disconnected.
	CnfReset = CnfInputDisconnect
)

// Sense values for the SENSE field.
const (
	SenseDisabled uint32 = 0
	SenseHigh     uint32 = 2
	SenseLow      uint32 = 3
)

// Drive modes for the DRIVE field.
const (
	DriveS0S1 uint32 = iota // standard
	DriveH0S1
	DriveS0H1
	DriveH0H1 // high drive both levels
	DriveD0S1
	DriveD0H1
	DriveS0D1
	DriveH0D1
)

const (
	PortCount   = 2
	PinsPerPort = 32
	// MaxPins is the addressable pin space: 32 on port 0, 16 on port 1.
	MaxPins = 48
)

// Port is one 32-bit GPIO port.
type Port interface {
	PinCnf(bit int) uint32
	SetPinCnf(bit int, v uint32)
	OutSet(mask uint32)
	OutClr(mask uint32)
	Out() uint32
	In() uint32
	Dir() uint32
	DirSet(mask uint32)
	Latch() uint32
	ClearLatch(mask uint32)
}

// EventUnit is the shared port-change interrupt source.
type EventUnit interface {
	PortEventPending() bool
	AckPortEvent()
	EnablePortIRQ(handler func())
}

// Silicon bundles the register block.
type Silicon interface {
	Port(n int) Port
	Events() EventUnit
}

// Split maps a physical pin index to (port, bit).
func Split(number int) (port, bit int) {
	return number / PinsPerPort, number % PinsPerPort
}

// Mask returns the port-relative bit mask of a physical pin index.
func Mask(number int) uint32 {
	_, bit := Split(number)
	return 1 << uint(bit)
}

// SenseOf extracts the SENSE field.
func SenseOf(cnf uint32) uint32 { return (cnf & CnfSenseMask) >> CnfSensePos }

// WithSense replaces the SENSE field.
func WithSense(cnf, sense uint32) uint32 {
	return cnf&^CnfSenseMask | (sense<<CnfSensePos)&CnfSenseMask
}

// DriveOf extracts the DRIVE field.
func DriveOf(cnf uint32) uint32 { return (cnf & CnfDriveMask) >> CnfDrivePos }

// WithDrive replaces the DRIVE field.
func WithDrive(cnf, drive uint32) uint32 {
	return cnf&^CnfDriveMask | (drive<<CnfDrivePos)&CnfDriveMask
}
