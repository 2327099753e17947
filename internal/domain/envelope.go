package domain

import (
	"fmt"
	"strings"
)

// Envelope is the uniform response shape returned for every outcome.
//
// Build values with Success or Failure; a failure envelope never carries a
// payload. Status is an optional HTTP status override (0 means none) and is
// never serialized.
type Envelope struct {
	Code    string
	Message string
	Data    any
	Status  int

	success bool
}

// Success returns a success envelope. data may be nil.
func Success(code, msg string, data any) Envelope {
	return Envelope{Code: code, Message: msg, Data: data, success: true}
}

// Failure returns an error envelope.
func Failure(code, msg string) Envelope {
	return Envelope{Code: code, Message: msg}
}

// IsSuccess reports whether the envelope was built by Success.
func (e Envelope) IsSuccess() bool { return e.success }

// IsZero reports whether the envelope is empty.
func (e Envelope) IsZero() bool {
	return e.Code == "" && e.Message == "" && e.Data == nil
}

// Style selects the wire layout of an envelope.
type Style int

const (
	// StyleFlat renders {"code","message","data"}.
	StyleFlat Style = iota
	// StyleNested renders {"status":{"code","message"},"payload"}.
	StyleNested
)

// ParseStyle accepts "flat"/"1" and "nested"/"0".
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat", "1":
		return StyleFlat, nil
	case "nested", "0":
		return StyleNested, nil
	default:
		return StyleFlat, fmt.Errorf("unknown response style %q", s)
	}
}

// UnmarshalText lets config decoders read a Style directly.
func (s *Style) UnmarshalText(b []byte) error {
	v, err := ParseStyle(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Style) String() string {
	if s == StyleNested {
		return "nested"
	}
	return "flat"
}

// Body is the flat wire representation.
type Body struct {
	Code    string `json:"code" example:"NOT_FOUND"`
	Message string `json:"message" example:"Resource missing"`
	Data    any    `json:"data,omitempty"`
}

// NestedStatus is the status block of the nested wire representation.
type NestedStatus struct {
	Code    string `json:"code" example:"NOT_FOUND"`
	Message string `json:"message" example:"Resource missing"`
}

// NestedBody is the nested wire representation.
type NestedBody struct {
	Status  NestedStatus `json:"status"`
	Payload any          `json:"payload,omitempty"`
}

// Render returns the JSON-ready value for style s. Data is dropped for
// failure envelopes.
func (e Envelope) Render(s Style) any {
	var data any
	if e.success {
		data = e.Data
	}
	if s == StyleNested {
		return NestedBody{
			Status:  NestedStatus{Code: e.Code, Message: e.Message},
			Payload: data,
		}
	}
	return Body{Code: e.Code, Message: e.Message, Data: data}
}
