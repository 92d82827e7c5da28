// Package bytecode defines the instruction stream executed by the VM: a
// flat byte-encoded opcode sequence, a deduplicated constant pool and a
// global name table. A compiled Program is immutable; the VM only reads it.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"ward/internal/object"
	"ward/internal/token"
)

type Opcode byte

const (
	OpConstant Opcode = iota // push constants[operand]
	OpTrue
	OpFalse
	OpNone
	OpPop
	OpBinary // apply binaryOps[operand] to the two top stack values
	OpUnary  // apply unaryOps[operand] to the top stack value
	OpJump
	OpJumpIfFalse
	OpGetGlobal // push globals[names[operand]]
	OpSetGlobal // pop into globals[names[operand]]
	OpList      // collect operand values into a list
	OpTuple
	OpSet
	OpDict  // collect operand key/value pairs into a dict
	OpIndex // pop index, pop container, push container[index]
	OpCall  // pop operand args then the callee, push the result
	OpReturn
)

type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OpConstant:    {"CONSTANT", []int{2}},
	OpTrue:        {"TRUE", nil},
	OpFalse:       {"FALSE", nil},
	OpNone:        {"NONE", nil},
	OpPop:         {"POP", nil},
	OpBinary:      {"BINARY", []int{1}},
	OpUnary:       {"UNARY", []int{1}},
	OpJump:        {"JUMP", []int{2}},
	OpJumpIfFalse: {"JUMP_IF_FALSE", []int{2}},
	OpGetGlobal:   {"GET_GLOBAL", []int{2}},
	OpSetGlobal:   {"SET_GLOBAL", []int{2}},
	OpList:        {"LIST", []int{2}},
	OpTuple:       {"TUPLE", []int{2}},
	OpSet:         {"SET", []int{2}},
	OpDict:        {"DICT", []int{2}},
	OpIndex:       {"INDEX", nil},
	OpCall:        {"CALL", []int{1}},
	OpReturn:      {"RETURN", nil},
}

func Lookup(op Opcode) (*Definition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// binaryOps indexes the binary operators an OpBinary operand can name. The
// VM feeds these straight into object.ApplyBinary, which is what keeps its
// arithmetic identical to the interpreter's.
var binaryOps = []token.TokenType{
	token.PLUS, token.MINUS, token.STAR, token.SLASH, token.DBLSLASH,
	token.PERCENT, token.POWER,
	token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE,
	token.AND, token.OR, token.IN,
}

var unaryOps = []string{"NEGATE", "POSITIVE", "NOT"}

// BinaryOperand returns the OpBinary operand encoding an operator.
func BinaryOperand(op token.TokenType) (byte, bool) {
	for n, candidate := range binaryOps {
		if candidate == op {
			return byte(n), true
		}
	}
	return 0, false
}

// BinaryOp decodes an OpBinary operand.
func BinaryOp(operand byte) (token.TokenType, bool) {
	if int(operand) >= len(binaryOps) {
		return "", false
	}
	return binaryOps[operand], true
}

func UnaryOperand(op string) (byte, bool) {
	for n, candidate := range unaryOps {
		if candidate == op {
			return byte(n), true
		}
	}
	return 0, false
}

func UnaryOp(operand byte) (string, bool) {
	if int(operand) >= len(unaryOps) {
		return "", false
	}
	return unaryOps[operand], true
}

type Instructions []byte

// Make encodes one instruction. Unknown opcodes produce an empty slice.
func Make(op Opcode, operands ...int) Instructions {
	def, ok := definitions[op]
	if !ok {
		return nil
	}
	length := 1
	for _, width := range def.OperandWidths {
		length += width
	}
	out := make(Instructions, length)
	out[0] = byte(op)
	offset := 1
	for n, operand := range operands {
		switch def.OperandWidths[n] {
		case 2:
			binary.BigEndian.PutUint16(out[offset:], uint16(operand))
		case 1:
			out[offset] = byte(operand)
		}
		offset += def.OperandWidths[n]
	}
	return out
}

// ReadOperands decodes the operands following an opcode and reports how
// many bytes they occupied.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0
	for n, width := range def.OperandWidths {
		switch width {
		case 2:
			operands[n] = int(binary.BigEndian.Uint16(ins[offset:]))
		case 1:
			operands[n] = int(ins[offset])
		}
		offset += width
	}
	return operands, offset
}

// String renders the stream one instruction per line, for tests and the
// disassembly flag.
func (ins Instructions) String() string {
	var out bytes.Buffer
	ip := 0
	for ip < len(ins) {
		def, err := Lookup(Opcode(ins[ip]))
		if err != nil {
			fmt.Fprintf(&out, "%04d ERROR: %s\n", ip, err)
			ip++
			continue
		}
		operands, read := ReadOperands(def, ins[ip+1:])
		fmt.Fprintf(&out, "%04d %s", ip, def.Name)
		for _, operand := range operands {
			fmt.Fprintf(&out, " %d", operand)
		}
		out.WriteString("\n")
		ip += 1 + read
	}
	return out.String()
}

// Program is the compiler's output.
type Program struct {
	Instructions Instructions
	Constants    []object.Object
	Names        []string
}

func (p *Program) String() string {
	var out bytes.Buffer
	out.WriteString(p.Instructions.String())
	for n, constant := range p.Constants {
		fmt.Fprintf(&out, "const %d: %s\n", n, constant.Inspect())
	}
	for n, name := range p.Names {
		fmt.Fprintf(&out, "name %d: %s\n", n, name)
	}
	return out.String()
}
