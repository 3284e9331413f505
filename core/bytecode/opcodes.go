package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Opcodes the extractor inspects individually.
const (
	opAconstNull      = 0x01
	opLdc2W           = 0x14
	opIload           = 0x15
	opDload           = 0x18
	opAload           = 0x19
	opIload0          = 0x1a
	opDload3          = 0x29
	opAload0          = 0x2a
	opAload3          = 0x2d
	opIstore          = 0x36
	opDstore          = 0x39
	opAstore          = 0x3a
	opIstore0         = 0x3b
	opDstore3         = 0x4a
	opAstore0         = 0x4b
	opAstore3         = 0x4e
	opIinc            = 0x84
	opIfeq            = 0x99
	opIfAcmpne        = 0xa6
	opTableswitch     = 0xaa
	opLookupswitch    = 0xab
	opGetstatic       = 0xb2
	opPutstatic       = 0xb3
	opGetfield        = 0xb4
	opPutfield        = 0xb5
	opInvokevirtual   = 0xb6
	opInvokespecial   = 0xb7
	opInvokestatic    = 0xb8
	opInvokeinterface = 0xb9
	opInvokedynamic   = 0xba
	opNew             = 0xbb
	opNewarray        = 0xbc
	opAnewarray       = 0xbd
	opAthrow          = 0xbf
	opCheckcast       = 0xc0
	opInstanceof      = 0xc1
	opWide            = 0xc4
	opMultianewarray  = 0xc5
	opIfnull          = 0xc6
	opIfnonnull       = 0xc7
	opJsrW            = 0xc9
)

// opLength holds the fixed encoded length of every opcode up to jsr_w.
// Zero marks the variable-length forms handled in walkInstructions.
var opLength = func() [opJsrW + 1]int {
	var t [opJsrW + 1]int
	for op := range t {
		t[op] = 1
	}
	set := func(n int, ops ...int) {
		for _, op := range ops {
			t[op] = n
		}
	}
	set(2, 0x10, 0x12, 0x15, 0x16, 0x17, 0x18, 0x19, 0x36, 0x37, 0x38, 0x39, 0x3a, 0xa9, opNewarray)
	set(3, 0x11, 0x13, opLdc2W, opIinc, opGetstatic, opPutstatic, opGetfield, opPutfield,
		opInvokevirtual, opInvokespecial, opInvokestatic, opNew, opAnewarray, opCheckcast,
		opInstanceof, opIfnull, opIfnonnull)
	for op := opIfeq; op <= 0xa8; op++ { // conditional branches, goto, jsr
		t[op] = 3
	}
	set(4, opMultianewarray)
	set(5, opInvokeinterface, opInvokedynamic, 0xc8, opJsrW)
	set(0, opTableswitch, opLookupswitch, opWide)
	return t
}()

// instruction is one decoded bytecode instruction.
type instruction struct {
	pc       int
	op       uint8
	wide     bool   // prefixed by wide; op is the modified opcode
	operands []byte // bytes after the opcode (after the modified opcode for wide)
	cases    int    // case labels of a tableswitch or lookupswitch
}

// cpIndex returns the two-byte constant pool index operand.
func (in instruction) cpIndex() uint16 {
	if len(in.operands) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(in.operands)
}

// walkInstructions decodes a code array linearly and calls fn for each instruction.
func walkInstructions(code []byte, fn func(instruction)) error {
	for pc := 0; pc < len(code); {
		op := code[pc]
		if int(op) >= len(opLength) {
			return fmt.Errorf("invalid opcode 0x%02x at pc %d", op, pc)
		}
		in := instruction{pc: pc, op: op}
		var size int
		switch op {
		case opTableswitch, opLookupswitch:
			n, cases, err := switchLength(code, pc, op)
			if err != nil {
				return err
			}
			size, in.cases = n, cases
		case opWide:
			if pc+1 >= len(code) {
				return fmt.Errorf("truncated wide at pc %d", pc)
			}
			in.op, in.wide = code[pc+1], true
			size = 4
			if in.op == opIinc {
				size = 6
			}
			if end := pc + size; end <= len(code) {
				in.operands = code[pc+2 : end]
			}
		default:
			size = opLength[op]
		}
		if pc+size > len(code) {
			return fmt.Errorf("truncated instruction 0x%02x at pc %d", op, pc)
		}
		if !in.wide && in.operands == nil {
			in.operands = code[pc+1 : pc+size]
		}
		fn(in)
		pc += size
	}
	return nil
}

// switchLength returns the encoded size and case count of a switch at pc.
// Padding aligns the operands to a four-byte boundary from the start of the code.
func switchLength(code []byte, pc int, op uint8) (size, cases int, err error) {
	pad := (4 - (pc+1)%4) % 4
	base := pc + 1 + pad
	word := func(i int) (int32, bool) {
		off := base + 4*i
		if off+4 > len(code) {
			return 0, false
		}
		return int32(binary.BigEndian.Uint32(code[off:])), true
	}
	if op == opTableswitch {
		low, ok1 := word(1)
		high, ok2 := word(2)
		if !ok1 || !ok2 || high < low {
			return 0, 0, fmt.Errorf("malformed tableswitch at pc %d", pc)
		}
		cases = int(int64(high) - int64(low) + 1)
		size = 1 + pad + 12 + 4*cases
	} else {
		npairs, ok := word(1)
		if !ok || npairs < 0 {
			return 0, 0, fmt.Errorf("malformed lookupswitch at pc %d", pc)
		}
		cases = int(npairs)
		size = 1 + pad + 8 + 8*cases
	}
	if pc+size > len(code) || size < 0 {
		return 0, 0, fmt.Errorf("truncated switch at pc %d", pc)
	}
	return size, cases, nil
}
