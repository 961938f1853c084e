// Package main provides the entry point for RV32Sim.
// RV32Sim is a cycle-stepped RV32I instruction set simulator.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("RV32Sim - RV32I Instruction Set Simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -cache          Model split L1 caches and report CPI")
	fmt.Println("  -cache-config   Path to cache hierarchy JSON file")
	fmt.Println("  -max-insts      Stop after this many instructions")
	fmt.Println("  -v              Trace every executed instruction")
	fmt.Println("")
	fmt.Println("Other tools:")
	fmt.Println("  go run ./cmd/riscv-tests   Run the rv32ui compliance tests")
	fmt.Println("  go run ./cmd/benchmark     Run the microbenchmark harness")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
