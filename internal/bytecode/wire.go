package bytecode

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"ward/internal/object"
)

// Wire form: CBOR of a plain structure. Only literal constants ever reach
// the pool, so the constant encoding is a small closed set.

const wireVersion = 1

type wireConstant struct {
	Kind  string  `cbor:"kind"`
	Int   int64   `cbor:"int,omitempty"`
	Float float64 `cbor:"float,omitempty"`
	Str   string  `cbor:"str,omitempty"`
	Bool  bool    `cbor:"bool,omitempty"`
}

type wireProgram struct {
	Version      int            `cbor:"version"`
	Instructions []byte         `cbor:"instructions"`
	Constants    []wireConstant `cbor:"constants"`
	Names        []string       `cbor:"names"`
}

// MarshalBinary encodes the program for storage or transport.
func (p *Program) MarshalBinary() ([]byte, error) {
	wire := wireProgram{
		Version:      wireVersion,
		Instructions: p.Instructions,
		Names:        p.Names,
	}
	for _, constant := range p.Constants {
		encoded, err := encodeConstant(constant)
		if err != nil {
			return nil, err
		}
		wire.Constants = append(wire.Constants, encoded)
	}
	out, err := cbor.Marshal(wire)
	if err != nil {
		return nil, errors.Wrap(err, "encoding bytecode program")
	}
	return out, nil
}

// UnmarshalBinary decodes a program previously produced by MarshalBinary.
func (p *Program) UnmarshalBinary(data []byte) error {
	var wire wireProgram
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return errors.Wrap(err, "decoding bytecode program")
	}
	if wire.Version != wireVersion {
		return errors.Errorf("unsupported bytecode version %d", wire.Version)
	}
	p.Instructions = wire.Instructions
	p.Names = wire.Names
	p.Constants = nil
	for _, constant := range wire.Constants {
		decoded, err := decodeConstant(constant)
		if err != nil {
			return err
		}
		p.Constants = append(p.Constants, decoded)
	}
	return nil
}

func encodeConstant(value object.Object) (wireConstant, error) {
	switch v := value.(type) {
	case *object.Integer:
		return wireConstant{Kind: "int", Int: v.Value}, nil
	case *object.Float:
		return wireConstant{Kind: "float", Float: v.Value}, nil
	case *object.String:
		return wireConstant{Kind: "str", Str: v.Value}, nil
	case *object.Boolean:
		return wireConstant{Kind: "bool", Bool: v.Value}, nil
	case *object.None:
		return wireConstant{Kind: "none"}, nil
	}
	return wireConstant{}, errors.Errorf("constant of type %s is not serializable", object.TypeName(value))
}

func decodeConstant(constant wireConstant) (object.Object, error) {
	switch constant.Kind {
	case "int":
		return &object.Integer{Value: constant.Int}, nil
	case "float":
		return &object.Float{Value: constant.Float}, nil
	case "str":
		return &object.String{Value: constant.Str}, nil
	case "bool":
		return object.BooleanFor(constant.Bool), nil
	case "none":
		return object.NONE, nil
	}
	return nil, errors.Errorf("unknown constant kind %q", constant.Kind)
}
