package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seenimoa/pynvestor/internal/chart"
)

// FieldRange is the [min, max] filter on one screening field.
type FieldRange struct {
	Name string
	Min  float64
	Max  float64
}

// FieldRanges is an ordered mapping from field name to bounds. It encodes as a
// JSON object whose keys keep insertion order.
type FieldRanges []FieldRange

// Set adds a field, or replaces the bounds of an existing one in place.
func (f *FieldRanges) Set(name string, lo, hi float64) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Min, (*f)[i].Max = lo, hi
			return
		}
	}
	*f = append(*f, FieldRange{Name: name, Min: lo, Max: hi})
}

// Get returns the bounds of name.
func (f FieldRanges) Get(name string) ([2]float64, bool) {
	for _, r := range f {
		if r.Name == name {
			return [2]float64{r.Min, r.Max}, true
		}
	}
	return [2]float64{}, false
}

func (f FieldRanges) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal([2]float64{r.Min, r.Max})
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", r.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *FieldRanges) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("fields: expected object")
	}

	out := FieldRanges{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var bounds [2]float64
		if err := dec.Decode(&bounds); err != nil {
			return fmt.Errorf("fields %q: %w", name, err)
		}
		out.Set(name, bounds[0], bounds[1])
	}
	*f = out
	return nil
}

// ScreeningRequest is the body of POST /run_screener.
type ScreeningRequest struct {
	Period string      `json:"period"`
	Fields FieldRanges `json:"fields"`
}

// WeightsRequest is the body of POST /optimizer_portfolio_weights.
type WeightsRequest struct {
	Weights []float64 `json:"weights"`
}

// StockData is the price history behind the chart detail page.
type StockData struct {
	ISIN   string        `json:"isin"`
	Name   string        `json:"name"`
	Title  string        `json:"title"`
	OHLC   []chart.OHLC  `json:"ohlc"`
	Volume []chart.Point `json:"volume"`
}
