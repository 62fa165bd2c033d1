package peripheral

// PinMode is the operational mode of a GPIO pin, derived from a
// board's direction/alternate-function configuration registers.
type PinMode int

const (
	PinInput PinMode = iota
	PinOutput
	PinInputPullUp
	PinInputPullDown
	PinAlternate
)

// PinLevel is the digital logic level observed or driven on a pin.
type PinLevel int

const (
	PinLow PinLevel = iota
	PinHigh
)
