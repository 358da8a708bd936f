package isa

// opcodeTable is the single source of truth for the mnemonic<->integer
// encoding compiler/ir writes into CODE cells and isa.FetchAt reads back;
// kept here (not duplicated in compiler/ir) so the two can never drift.
var opcodeTable = map[string]int64{
	"NOP": 0, "SETI": 1, "SETR": 2, "SETV": 3, "B2VR": 4, "V2BR": 5,
	"ADDI": 6, "ADDR": 7, "SUBI": 8, "SUBR": 9, "XORR": 10, "NOT": 11, "ANDR": 12, "RTRR": 13,
	"IFR": 14, "IFI": 15, "IFTR": 16, "GTI": 17, "LTI": 18,
	"JMPI": 19, "CALL": 20, "RET": 21,
	"SCAN": 22, "PEEK": 23, "POKE": 24, "POKI": 25, "SEEK": 26,
	"PUSH": 27, "POP": 28, "SNTI": 29, "RBIR": 30,
}

var opcodeNames = func() map[int64]string {
	m := make(map[int64]string, len(opcodeTable))
	for name, code := range opcodeTable {
		m[code] = name
	}
	return m
}()

// OpcodeCode returns the numeric encoding for a mnemonic, -1 if unknown.
func OpcodeCode(name string) int64 {
	if v, ok := opcodeTable[name]; ok {
		return v
	}
	return -1
}

// OpcodeName reverses OpcodeCode.
func OpcodeName(code int64) (string, bool) {
	n, ok := opcodeNames[code]
	return n, ok
}

// RegFamilyCode/RegFamilyName encode which register file an operand
// addresses, packed into a single CODE payload alongside the index as
// family*1000+index (written by ir.operandCells, read back by regCell).
func RegFamilyCode(kind string) int {
	switch kind {
	case "DR":
		return 0
	case "PR":
		return 1
	case "FPR":
		return 2
	case "REFPARAM":
		return 3
	case "VALPARAM":
		return 4
	}
	return 9
}

func RegFamilyName(code int) string {
	switch code {
	case 0:
		return "DR"
	case 1:
		return "PR"
	case 2:
		return "FPR"
	case 3:
		return "REFPARAM"
	case 4:
		return "VALPARAM"
	}
	return "ALIAS"
}
