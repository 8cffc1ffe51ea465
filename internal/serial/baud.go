package serial

// supportedRates are the baud rates the serial stack accepts, ascending.
var supportedRates = []int{
	50, 75, 110, 134, 150, 200, 300, 600,
	1200, 1800, 2400, 4800, 9600, 19200, 38400,
}

// fallbackRate is used when the requested rate exceeds every supported rate.
const fallbackRate = 9600

// SnapBaudRate returns the slowest supported rate that is at least the
// requested rate. Requests above the supported table fall back to 9600,
// matching the device's factory default.
func SnapBaudRate(requested int) int {
	for _, rate := range supportedRates {
		if requested <= rate {
			return rate
		}
	}
	return fallbackRate
}
