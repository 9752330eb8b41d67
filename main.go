// Package main provides the entry point for FemtoRV.
// FemtoRV is a cycle-accurate model of the FemtoRV32 RISC-V core built on
// Akita.
//
// For the full CLI, use: go run ./cmd/femtorv
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("FemtoRV - RV32I(+M) core simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: femtorv [options] <program.elf|program.hex>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to core configuration JSON file")
	fmt.Println("  -hex         Treat the program as a $readmemh image")
	fmt.Println("  -max-cycles  Stop after this many cycles")
	fmt.Println("  -functional  Run on the functional emulator")
	fmt.Println("  -v           Verbose output")
	fmt.Println("  -trace       Log every state transition")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/femtorv' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/femtorv' instead.")
	}
}
