package uds

import "fmt"

// NegativeResponseCode is the single byte an ECU attaches to a 0x7F
// negative response.
type NegativeResponseCode byte

const (
	GeneralReject                            NegativeResponseCode = 0x10
	ServiceNotSupported                      NegativeResponseCode = 0x11
	SubFunctionNotSupported                  NegativeResponseCode = 0x12
	IncorrectMessageLengthOrInvalidFormat    NegativeResponseCode = 0x13
	ResponseTooLong                          NegativeResponseCode = 0x14
	BusyRepeatRequest                        NegativeResponseCode = 0x21
	ConditionsNotCorrect                     NegativeResponseCode = 0x22
	RequestSequenceError                     NegativeResponseCode = 0x24
	RequestOutOfRange                        NegativeResponseCode = 0x31
	SecurityAccessDenied                     NegativeResponseCode = 0x33
	InvalidKey                               NegativeResponseCode = 0x35
	ExceededNumberOfAttempts                 NegativeResponseCode = 0x36
	RequiredTimeDelayNotExpired              NegativeResponseCode = 0x37
	RequestCorrectlyReceivedResponsePending  NegativeResponseCode = 0x78
	SubFunctionNotSupportedInActiveSession   NegativeResponseCode = 0x7E
	ServiceNotSupportedInActiveSession       NegativeResponseCode = 0x7F
)

// String renders known codes by name and anything in 0x80-0xFF (or
// otherwise unrecognised) as vendor-specific.
func (c NegativeResponseCode) String() string {
	switch c {
	case GeneralReject:
		return "GeneralReject"
	case ServiceNotSupported:
		return "ServiceNotSupported"
	case SubFunctionNotSupported:
		return "SubFunctionNotSupported"
	case IncorrectMessageLengthOrInvalidFormat:
		return "IncorrectMessageLengthOrInvalidFormat"
	case ResponseTooLong:
		return "ResponseTooLong"
	case BusyRepeatRequest:
		return "BusyRepeatRequest"
	case ConditionsNotCorrect:
		return "ConditionsNotCorrect"
	case RequestSequenceError:
		return "RequestSequenceError"
	case RequestOutOfRange:
		return "RequestOutOfRange"
	case SecurityAccessDenied:
		return "SecurityAccessDenied"
	case InvalidKey:
		return "InvalidKey"
	case ExceededNumberOfAttempts:
		return "ExceededNumberOfAttempts"
	case RequiredTimeDelayNotExpired:
		return "RequiredTimeDelayNotExpired"
	case RequestCorrectlyReceivedResponsePending:
		return "RequestCorrectlyReceivedResponsePending"
	case SubFunctionNotSupportedInActiveSession:
		return "SubFunctionNotSupportedInActiveSession"
	case ServiceNotSupportedInActiveSession:
		return "ServiceNotSupportedInActiveSession"
	default:
		return fmt.Sprintf("VendorSpecific(%#02x)", byte(c))
	}
}

// IsVendorSpecific reports whether c falls in the 0x80-0xFF
// manufacturer-defined range.
func (c NegativeResponseCode) IsVendorSpecific() bool {
	return c >= 0x80
}
