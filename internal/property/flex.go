package property

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexNumber accepts a JSON number or a numeric string ("1250000.00", "2,100").
// Anything unparsable decodes to zero; null leaves Valid false.
type FlexNumber struct {
	Value float64
	Valid bool
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	if n == nil {
		return fmt.Errorf("FlexNumber: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		if f, err := num.Float64(); err == nil {
			*n = FlexNumber{Value: f, Valid: true}
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		s = strings.TrimPrefix(s, "$")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = FlexNumber{Value: f, Valid: true}
		}
		return nil
	}

	return fmt.Errorf("FlexNumber: expected number or string, got %s", string(data))
}

func (n FlexNumber) Int() int {
	return int(n.Value)
}

// FlexString accepts a JSON string or number and keeps its text form.
type FlexString string

func (fs *FlexString) UnmarshalJSON(data []byte) error {
	if fs == nil {
		return fmt.Errorf("FlexString: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*fs = FlexString(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*fs = FlexString(num.String())
		return nil
	}

	return fmt.Errorf("FlexString: expected string or number, got %s", string(data))
}

func (fs FlexString) String() string {
	return string(fs)
}
