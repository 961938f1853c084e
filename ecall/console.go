package ecall

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
)

// Console implements write and exit so that simple programs can print
// and terminate.
type Console struct {
	stdout io.Writer
	stderr io.Writer
	logger *logrus.Logger

	exited   bool
	exitCode int32
	written  uint64
	lastErr  error
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithConsoleLogger sets the logger used for diagnostics.
func WithConsoleLogger(logger *logrus.Logger) ConsoleOption {
	return func(c *Console) {
		c.logger = logger
	}
}

// NewConsole creates a Console writing fd 1 to stdout and fd 2 to stderr.
func NewConsole(stdout, stderr io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		stdout: stdout,
		stderr: stderr,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = defaultLogger()
	}

	return c
}

// HandleECall executes the call selected by a7.
func (c *Console) HandleECall(h emu.Hart) {
	switch num := h.ReadReg(regA7); num {
	case CallWrite:
		c.handleWrite(h)
	case CallExit:
		c.handleExit(h)
	default:
		c.logger.WithFields(logrus.Fields{
			"pc": fmt.Sprintf("0x%08x", h.PC()),
			"a7": num,
		}).Warn("Unsupported environment call, ignoring")
	}
}

// Exited reports whether the program called exit.
func (c *Console) Exited() bool {
	return c.exited
}

// ExitCode returns the status passed to exit.
func (c *Console) ExitCode() int32 {
	return c.exitCode
}

// BytesWritten returns the number of bytes written to stdout and stderr.
func (c *Console) BytesWritten() uint64 {
	return c.written
}

// Err returns the last write failure, if any.
func (c *Console) Err() error {
	return c.lastErr
}

func (c *Console) handleExit(h emu.Hart) {
	c.exited = true
	c.exitCode = int32(h.ReadReg(regA0))
	c.logger.WithField("code", c.exitCode).Info("Program exited")
	h.Abort()
}

func (c *Console) handleWrite(h emu.Hart) {
	fd := h.ReadReg(regA0)
	bufPtr := h.ReadReg(regA1)
	count := h.ReadReg(regA2)

	var writer io.Writer
	switch fd {
	case 1:
		writer = c.stdout
	case 2:
		writer = c.stderr
	default:
		c.logger.WithField("fd", fd).Warn("write to unsupported file descriptor")
		return
	}

	if err := checkBuffer(h, bufPtr, count); err != nil {
		c.lastErr = fmt.Errorf("write buffer: %w", err)
		c.logger.WithError(err).Warn("write buffer outside memory")
		return
	}

	buf := make([]byte, count)
	for i := uint32(0); i < count; i++ {
		b, err := h.Read8(bufPtr + i)
		if err != nil {
			c.lastErr = fmt.Errorf("write buffer: %w", err)
			c.logger.WithError(err).Warn("write buffer outside memory")
			return
		}
		buf[i] = b
	}

	n, err := writer.Write(buf)
	c.written += uint64(n)
	if err != nil {
		c.lastErr = fmt.Errorf("write fd %d: %w", fd, err)
	}
}

// checkBuffer verifies that [ptr, ptr+count) lies inside guest memory by
// probing both ends. The window is contiguous, so the bytes in between are
// readable too and count is bounded by the window size.
func checkBuffer(h emu.Hart, ptr, count uint32) error {
	if count == 0 {
		return nil
	}

	last := ptr + count - 1
	if last < ptr {
		return fmt.Errorf("0x%08x+%d wraps the address space: %w", ptr, count, emu.ErrOutOfBounds)
	}

	if _, err := h.Read8(ptr); err != nil {
		return err
	}
	if _, err := h.Read8(last); err != nil {
		return err
	}

	return nil
}
