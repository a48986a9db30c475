package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/okian/pairwise/internal/domain/model"
)

// Codec turns the application state into bytes and back.
type Codec interface {
	Name() string
	Encode(state model.AppState) ([]byte, error)
	Decode(data []byte) (model.AppState, error)
}

// Codec names accepted by CodecByName.
const (
	CodecJSON = "json"
	CodecCBOR = "cbor"
)

// CodecByName returns the codec for name; empty selects JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecCBOR:
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownCodec)
	}
}

// JSONCodec stores state as JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Encode(state model.AppState) ([]byte, error) {
	return json.Marshal(state)
}

func (JSONCodec) Decode(data []byte) (model.AppState, error) {
	var state model.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.AppState{}, err
	}
	return state, nil
}

// CBORCodec stores state as CBOR.
type CBORCodec struct{}

func (CBORCodec) Name() string { return CodecCBOR }

func (CBORCodec) Encode(state model.AppState) ([]byte, error) {
	return cbor.Marshal(state)
}

func (CBORCodec) Decode(data []byte) (model.AppState, error) {
	var state model.AppState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return model.AppState{}, err
	}
	return state, nil
}
