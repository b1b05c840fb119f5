package weights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload is a model's weight set: an ordered tensor list plus an architecture
// descriptor that is carried around untouched.
type Payload struct {
	Weights      []Tensor        `json:"weights"`
	Architecture json.RawMessage `json:"architecture,omitempty"`
}

// DecodePayload parses a JSON weights payload. A payload without a weights
// list is rejected.
func DecodePayload(b []byte) (Payload, error) {
	var p Payload
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return p, errors.New("empty weights payload")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return p, fmt.Errorf("decode weights payload: %w", err)
	}
	if _, ok := fields["weights"]; !ok {
		return p, errors.New("weights payload has no \"weights\" list")
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("decode weights payload: %w", err)
	}
	return p, nil
}

func (p Payload) Encode() ([]byte, error) {
	if p.Weights == nil {
		p.Weights = []Tensor{}
	}
	return json.Marshal(p)
}

// AggregatePayload averages contributor weights into target and keeps the
// target's architecture verbatim.
func AggregatePayload(target Payload, contributors []Payload) (Payload, error) {
	sets := make([][]Tensor, len(contributors))
	for i, c := range contributors {
		sets[i] = c.Weights
	}
	avg, err := Aggregate(target.Weights, sets)
	if err != nil {
		return Payload{}, err
	}
	var arch json.RawMessage
	if target.Architecture != nil {
		arch = append(json.RawMessage(nil), target.Architecture...)
	}
	return Payload{Weights: avg, Architecture: arch}, nil
}
