package device

import "strings"

// Feedback lines the device firmware emits, newline-terminated, with an
// optional trailing carriage return.
const (
	feedbackPowerOn   = "power_on"
	feedbackPowerOff  = "power_off"
	feedbackSpeedUp   = "speed_up"
	feedbackSpeedDown = "speed_down"
)

// applyFeedback decodes one feedback line and returns the new actual
// speed. The carriage return is stripped before matching so "speed_up"
// and "speed_up\r" decode identically. Unrecognised lines leave the
// speed untouched and report ok=false.
//
// The result is clamped to the device's speed range: feedback arriving
// out of order (duplicate power_on, stray steps) must not push the
// tracked speed outside what the hardware can physically do.
func applyFeedback(line string, actualSpeed int) (int, bool) {
	line = strings.TrimSuffix(line, "\r")

	switch line {
	case feedbackPowerOn:
		actualSpeed = 1
	case feedbackPowerOff:
		actualSpeed = 0
	case feedbackSpeedUp:
		actualSpeed++
	case feedbackSpeedDown:
		actualSpeed--
	default:
		return actualSpeed, false
	}

	if actualSpeed < MinSpeed {
		actualSpeed = MinSpeed
	}
	if actualSpeed > MaxSpeed {
		actualSpeed = MaxSpeed
	}
	return actualSpeed, true
}
