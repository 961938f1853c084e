package ecall

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
)

// Harness errors.
var (
	// ErrTestFailed is returned when a test program reports a failing case.
	ErrTestFailed = errors.New("test failed")
	// ErrNoResult is returned when a test program never reported a result.
	ErrNoResult = errors.New("no result reported")
)

// Status is the outcome reported by a riscv-tests program.
type Status uint8

// Test statuses.
const (
	StatusNone Status = iota
	StatusPassed
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "none"
	}
}

// TestHarness understands the riscv-tests exit protocol. Test programs
// finish with an exit call whose a0 is 0 on success, or (n << 1) | 1 when
// test case n failed. Either way the run is aborted.
type TestHarness struct {
	logger *logrus.Logger

	status     Status
	failedTest uint32
}

// NewTestHarness creates a TestHarness. A nil logger discards diagnostics.
func NewTestHarness(logger *logrus.Logger) *TestHarness {
	if logger == nil {
		logger = discardLogger()
	}
	return &TestHarness{logger: logger}
}

// HandleECall inspects a7 and a0 and records the result.
func (t *TestHarness) HandleECall(h emu.Hart) {
	if h.ReadReg(regA7) != CallExit {
		t.logger.WithFields(logrus.Fields{
			"pc": fmt.Sprintf("0x%08x", h.PC()),
			"a7": h.ReadReg(regA7),
		}).Debug("Ignoring environment call")
		return
	}

	a0 := h.ReadReg(regA0)
	if a0 == 0 {
		t.status = StatusPassed
		t.logger.Info("Test passed")
	} else {
		t.status = StatusFailed
		t.failedTest = a0 >> 1
		t.logger.WithField("test", t.failedTest).Info("Test failed")
	}

	h.Abort()
}

// Status returns the recorded outcome.
func (t *TestHarness) Status() Status {
	return t.status
}

// FailedTest returns the number of the failing test case when the status
// is StatusFailed.
func (t *TestHarness) FailedTest() uint32 {
	return t.failedTest
}

// Err converts the outcome into an error. A program that never reported a
// result is an error too.
func (t *TestHarness) Err() error {
	switch t.status {
	case StatusPassed:
		return nil
	case StatusFailed:
		return fmt.Errorf("%w: case %d", ErrTestFailed, t.failedTest)
	default:
		return ErrNoResult
	}
}
