package radarapi

// ReturnCode is the stable status code every radar operation reports.
// It is a comparable newtype that implements error, so driver internals
// can return and wrap codes directly while bindings hand the raw value
// back to the caller.
type ReturnCode uint16

const (
	// RCUndefined is the default value before any operation ran.
	RCUndefined ReturnCode = iota
	// RCOK means the operation completed successfully.
	RCOK
	// RCError is a failure with no further information available.
	RCError
	// RCBadInput means input parameters are invalid or out of range.
	RCBadInput
	// RCTimeout means the operation timed out.
	RCTimeout
	// RCBadState means the operation is illegal in the current state.
	RCBadState
	// RCResLimit means an internal resource was exhausted.
	RCResLimit
	// RCUnsupported means the capability is not present on this driver.
	RCUnsupported
	// RCOops is an internal error that should never happen.
	RCOops
)

var rcNames = map[ReturnCode]string{
	RCUndefined:   "RC_UNDEFINED",
	RCOK:          "RC_OK",
	RCError:       "RC_ERROR",
	RCBadInput:    "RC_BAD_INPUT",
	RCTimeout:     "RC_TIMEOUT",
	RCBadState:    "RC_BAD_STATE",
	RCResLimit:    "RC_RES_LIMIT",
	RCUnsupported: "RC_UNSUPPORTED",
	RCOops:        "RC_OOPS",
}

func (c ReturnCode) String() string {
	if s, ok := rcNames[c]; ok {
		return s
	}
	return "RC_UNKNOWN"
}

func (c ReturnCode) Error() string { return c.String() }

// CodeOf extracts the ReturnCode from an error chain. A nil error maps
// to RCOK, an error that carries no code maps to RCError.
func CodeOf(err error) ReturnCode {
	if err == nil {
		return RCOK
	}
	for e := err; e != nil; e = unwrap(e) {
		if c, ok := e.(ReturnCode); ok {
			return c
		}
	}
	return RCError
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
