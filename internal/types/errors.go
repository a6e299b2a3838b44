package types

import "github.com/KevinKickass/OpenRadarCore/radarapi"

type ErrorBody struct {
	Code    string `json:"code"`
	Numeric uint16 `json:"numeric_code,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// NewDriverErrorResponse wraps a driver return code, carrying both its
// symbolic name and the numeric value of the C contract.
func NewDriverErrorResponse(code radarapi.ReturnCode, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code.String(),
			Numeric: uint16(code),
			Message: message,
			Details: details,
		},
	}
}
