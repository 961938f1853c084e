// Package ecall provides environment call handlers for the RV32I CPU.
//
// Handlers follow the RISC-V Linux calling convention: the call number is
// in a7 and arguments are in a0-a6. The CPU gives handlers a read-only view
// of the hart, so results are reported through the handler itself rather
// than written back to a0.
package ecall

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// RISC-V Linux call numbers understood by the handlers in this package.
const (
	CallWrite uint32 = 64 // write(fd, buf, count)
	CallExit  uint32 = 93 // exit(status)
)

// Register numbers of the call convention.
const (
	regA0 uint8 = 10
	regA1 uint8 = 11
	regA2 uint8 = 12
	regA7 uint8 = 17
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func defaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	return logger
}
