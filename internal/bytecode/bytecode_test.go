package bytecode

import (
	"bytes"
	"testing"

	"ward/internal/object"
	"ward/internal/token"
)

func TestMake(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
		want     []byte
	}{
		{OpConstant, []int{65534}, []byte{byte(OpConstant), 0xFF, 0xFE}},
		{OpCall, []int{3}, []byte{byte(OpCall), 3}},
		{OpPop, nil, []byte{byte(OpPop)}},
		{OpJump, []int{9}, []byte{byte(OpJump), 0, 9}},
	}
	for _, tt := range tests {
		got := Make(tt.op, tt.operands...)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("Make(%d, %v) wrong. got=%v, want=%v", tt.op, tt.operands, got, tt.want)
		}
	}
}

func TestReadOperands(t *testing.T) {
	tests := []struct {
		op        Opcode
		operands  []int
		bytesRead int
	}{
		{OpConstant, []int{65534}, 2},
		{OpBinary, []int{7}, 1},
		{OpIndex, nil, 0},
	}
	for _, tt := range tests {
		ins := Make(tt.op, tt.operands...)
		def, err := Lookup(tt.op)
		if err != nil {
			t.Fatal(err)
		}
		read, n := ReadOperands(def, ins[1:])
		if n != tt.bytesRead {
			t.Errorf("bytes read wrong. got=%d, want=%d", n, tt.bytesRead)
		}
		for i, want := range tt.operands {
			if read[i] != want {
				t.Errorf("operand %d wrong. got=%d, want=%d", i, read[i], want)
			}
		}
	}
}

func TestLookupUnknownOpcode(t *testing.T) {
	if _, err := Lookup(Opcode(255)); err == nil {
		t.Fatal("expected an error for an unknown opcode")
	}
}

func TestInstructionsString(t *testing.T) {
	var ins Instructions
	ins = append(ins, Make(OpConstant, 1)...)
	ins = append(ins, Make(OpConstant, 2)...)
	ins = append(ins, Make(OpBinary, 0)...)
	ins = append(ins, Make(OpPop)...)
	want := "0000 CONSTANT 1\n0003 CONSTANT 2\n0006 BINARY 0\n0009 POP\n"
	if got := ins.String(); got != want {
		t.Errorf("disassembly wrong.\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBinaryOperandRoundTrip(t *testing.T) {
	ops := []token.TokenType{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.DBLSLASH,
		token.PERCENT, token.POWER, token.EQ, token.NEQ, token.LT,
		token.LTE, token.GT, token.GTE, token.AND, token.OR, token.IN,
	}
	for _, op := range ops {
		operand, ok := BinaryOperand(op)
		if !ok {
			t.Fatalf("operator %s not encodable", op)
		}
		back, ok := BinaryOp(operand)
		if !ok || back != op {
			t.Errorf("operator %s did not round-trip. got=%s", op, back)
		}
	}
	if _, ok := BinaryOperand(token.ASSIGN); ok {
		t.Error("assignment should not be a binary operand")
	}
	if _, ok := BinaryOp(200); ok {
		t.Error("out-of-range operand should not decode")
	}
}

func TestUnaryOperandRoundTrip(t *testing.T) {
	for _, op := range []string{"NEGATE", "POSITIVE", "NOT"} {
		operand, ok := UnaryOperand(op)
		if !ok {
			t.Fatalf("operator %s not encodable", op)
		}
		back, ok := UnaryOp(operand)
		if !ok || back != op {
			t.Errorf("operator %s did not round-trip. got=%s", op, back)
		}
	}
}

func TestWireRoundTrip(t *testing.T) {
	program := &Program{
		Instructions: Make(OpConstant, 0),
		Constants: []object.Object{
			&object.Integer{Value: 42},
			&object.Float{Value: 2.5},
			&object.String{Value: "probe"},
			object.TRUE,
			object.NONE,
		},
		Names: []string{"x", "y"},
	}
	raw, err := program.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	var decoded Program
	if err := decoded.UnmarshalBinary(raw); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if !bytes.Equal(decoded.Instructions, program.Instructions) {
		t.Error("instructions changed across the wire")
	}
	if len(decoded.Names) != 2 || decoded.Names[0] != "x" {
		t.Errorf("names wrong. got=%v", decoded.Names)
	}
	if len(decoded.Constants) != len(program.Constants) {
		t.Fatalf("constant count wrong. got=%d", len(decoded.Constants))
	}
	for n, constant := range program.Constants {
		if !object.Equals(decoded.Constants[n], constant) {
			t.Errorf("constant %d wrong. got=%s, want=%s",
				n, decoded.Constants[n].Inspect(), constant.Inspect())
		}
	}
}

func TestWireRejectsUnserializableConstant(t *testing.T) {
	program := &Program{Constants: []object.Object{&object.List{}}}
	if _, err := program.MarshalBinary(); err == nil {
		t.Fatal("expected an error for a list constant")
	}
}

func TestWireRejectsFutureVersion(t *testing.T) {
	program := &Program{Instructions: Make(OpNone)}
	raw, err := program.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var decoded Program
	if err := decoded.UnmarshalBinary(raw); err != nil {
		t.Fatal(err)
	}
	// corrupting the stream must not decode silently
	if err := decoded.UnmarshalBinary([]byte{0xFF, 0x00}); err == nil {
		t.Fatal("expected an error for garbage input")
	}
}
