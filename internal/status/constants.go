// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// HealthDisconnected means the session lost its link and could not rebuild it.
const HealthDisconnected uint16 = 3

// ---- ERROR CODES ----

// Exception responses report the device exception code (1-255) verbatim.
// Local failures use codes above the exception range.

// ErrorCodeGeneric is used when nothing more specific is known.
const ErrorCodeGeneric uint16 = 0x0100

// ErrorCodeTimeout is a request that got no answer in time.
const ErrorCodeTimeout uint16 = 0x0101

// ErrorCodeTransport is a socket or serial failure.
const ErrorCodeTransport uint16 = 0x0102

// ErrorCodeNotConnected is an operation without a live session.
const ErrorCodeNotConnected uint16 = 0x0103

// ErrorCodeValidation is a request rejected before it reached the wire.
const ErrorCodeValidation uint16 = 0x0104

// ---- LIMITS ----

// MaxSecondsInError is where SecondsInError saturates.
const MaxSecondsInError = 65535
