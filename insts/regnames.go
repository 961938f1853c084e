package insts

import "strconv"

// abiNames lists the calling-convention name of each integer register.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name of register r, e.g. "sp" for x2.
// Out-of-range numbers are rendered as "x<n>".
func RegName(r uint8) string {
	if int(r) < len(abiNames) {
		return abiNames[r]
	}
	return "x" + strconv.Itoa(int(r))
}

// RegByName resolves an ABI name ("a0"), its architectural form ("x10")
// or the frame-pointer alias "fp".
func RegByName(name string) (uint8, bool) {
	if name == "fp" {
		return 8, true
	}
	for i, n := range abiNames {
		if n == name {
			return uint8(i), true
		}
	}
	if len(name) >= 2 && name[0] == 'x' {
		n, err := strconv.Atoi(name[1:])
		if err != nil || n < 0 || n > 31 || name[1] == '+' {
			return 0, false
		}
		return uint8(n), true
	}
	return 0, false
}
