package tradier

import (
	"bytes"

	"github.com/xhhuango/json"
)

// Day is one OHLCV bar of a history response.
type Day struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type QuoteHistory struct {
	History History `json:"history"`
}

// History wraps the bars. Tradier sends "history": null for an empty range
// and a bare object instead of an array when there is a single bar.
type History struct {
	Day []Day `json:"day"`
}

func (h *History) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`"null"`)) {
		h.Day = nil
		return nil
	}

	var raw struct {
		Day json.RawMessage `json:"day"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	day := bytes.TrimSpace(raw.Day)
	switch {
	case len(day) == 0 || bytes.Equal(day, []byte("null")):
		h.Day = nil
	case day[0] == '{':
		var d Day
		if err := json.Unmarshal(day, &d); err != nil {
			return err
		}
		h.Day = []Day{d}
	default:
		return json.Unmarshal(day, &h.Day)
	}
	return nil
}
