package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrMissingPayload is returned when an event carries no Yaml field or a null one.
var ErrMissingPayload = errors.New("event has no Yaml payload")

// Event is the invocation input. Yaml may hold any YAML-serializable value;
// its string form doubles as the file name stem.
type Event struct {
	Yaml interface{} `yaml:"Yaml" json:"Yaml"`
}

// DecodeEvent parses a JSON or YAML encoded event.
//
// Valid JSON is decoded as JSON, with numbers mapped the way the YAML parser
// maps them: integers to int, everything else to float64. Anything else is
// decoded as YAML. Either way a payload written back out re-parses to an
// equal value.
func DecodeEvent(data []byte) (*Event, error) {
	var event Event
	if json.Valid(data) {
		payload, err := decodeJSONPayload(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		event.Yaml = payload
	} else if err := yaml.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

// decodeJSONPayload returns the value of the exact "Yaml" key of a JSON object.
func decodeJSONPayload(data []byte) (interface{}, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	raw, ok := fields["Yaml"]
	if !ok {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var payload interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	return normalizeJSONNumbers(payload), nil
}

func normalizeJSONNumbers(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(v.String(), 10, 0); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]interface{}:
		for key, item := range v {
			v[key] = normalizeJSONNumbers(item)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeJSONNumbers(item)
		}
		return v
	default:
		return v
	}
}

// Validate checks that the event carries a payload.
func (e *Event) Validate() error {
	if e == nil || e.Yaml == nil {
		return ErrMissingPayload
	}
	return nil
}

// PayloadName returns the string form of a payload, used as the file name stem.
func PayloadName(payload interface{}) string {
	switch v := payload.(type) {
	case string:
		return v
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// PayloadFileName returns the file name a payload is written to.
func PayloadFileName(payload interface{}) string {
	return PayloadName(payload) + ".yaml"
}

// EncodePayload writes payload to w as a single YAML document. Non-ASCII
// characters are written as-is.
func EncodePayload(w io.Writer, payload interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	return encoder.Close()
}
