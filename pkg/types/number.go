package types

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Number is a float64 that also decodes from a quoted JSON number. The
// provider sometimes sends prices as strings.
type Number float64

// UnmarshalJSON accepts 123.4 and "123.4". null leaves the value unchanged.
func (n *Number) UnmarshalJSON(data []byte) error {
	v, ok, err := parseNumber(data)
	if err != nil {
		return err
	}
	if ok {
		*n = Number(v)
	}
	return nil
}

// parseNumber reports ok=false for null and the empty string.
func parseNumber(data []byte) (float64, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return 0, false, nil
	}
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false, fmt.Errorf("decode quoted number: %w", err)
		}
		data = bytes.TrimSpace([]byte(s))
		if len(data) == 0 {
			return 0, false, nil
		}
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode number %s: %w", data, err)
	}
	return v, true, nil
}

// UnmarshalJSON decodes numeric or quoted level prices. Null or empty levels
// are dropped so Prices reports the timepoint as incomplete.
func (t *Timepoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode timepoint: %w", err)
	}
	if raw == nil {
		*t = nil
		return nil
	}

	out := make(Timepoint, len(raw))
	for key, value := range raw {
		v, ok, err := parseNumber(value)
		if err != nil {
			return fmt.Errorf("decode timepoint level %s: %w", key, err)
		}
		if ok {
			out[key] = v
		}
	}
	*t = out
	return nil
}

// UnmarshalJSON accepts a numeric or quoted current_price.
func (f *PercentileForecast) UnmarshalJSON(data []byte) error {
	var aux struct {
		CurrentPrice   Number         `json:"current_price"`
		ForecastFuture ForecastFuture `json:"forecast_future"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.CurrentPrice = float64(aux.CurrentPrice)
	f.ForecastFuture = aux.ForecastFuture
	return nil
}
