package util

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
)

// Writer buffers assembly text with instruction-shaped helper methods
// (Ins1/Ins2/Ins3/LoadStore/Label/Directive). No channel plumbing: this is a
// single-threaded, non-suspending compiler, and riscv.Emit simply owns one
// Writer for the text section and one for the data section.
type Writer struct {
	sb strings.Builder
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write writes a format string to the Writer's buffer.
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// WriteString writes a plain string to the Writer's buffer.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Ins1 writes a one-operand instruction, e.g. "j label".
func (w *Writer) Ins1(op, rs1 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s\n", op, rs1))
}

// Ins2 writes a destination/source instruction, e.g. "mv rd, rs1".
func (w *Writer) Ins2(op, rd, rs1 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s\n", op, rd, rs1))
}

// Ins2imm writes a destination/source/immediate instruction, e.g.
// "addi rd, rs1, imm".
func (w *Writer) Ins2imm(op, rd, rs1 string, imm int) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s, %d\n", op, rd, rs1, imm))
}

// Ins3 writes a three-register instruction, e.g. "add rd, rs1, rs2".
func (w *Writer) Ins3(op, rd, rs1, rs2 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s, %s\n", op, rd, rs1, rs2))
}

// LoadStore writes a memory instruction of the form "op reg, offset(pointer)".
func (w *Writer) LoadStore(op, reg string, offset int, pointer string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %d(%s)\n", op, reg, offset, pointer))
}

// Label writes a bare label line.
func (w *Writer) Label(name string) {
	w.sb.WriteString(fmt.Sprintf("%s:\n", name))
}

// Directive writes an assembler directive line, e.g. ".globl name".
func (w *Writer) Directive(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf("\t%s\n", fmt.Sprintf(format, args...)))
}

// String returns the buffered text without clearing it.
func (w *Writer) String() string {
	return w.sb.String()
}

// Flush writes the buffered text to dst and resets the buffer.
func (w *Writer) Flush(dst io.Writer) error {
	bw := bufio.NewWriter(dst)
	if _, err := bw.WriteString(w.sb.String()); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	w.sb.Reset()
	return nil
}

// ReadSource reads source code from a file path. There is no stdin fallback:
// the CLI surface is "compiler <path> [-check]", with <path> always a file
// or directory, never stdin.
func ReadSource(path string) (string, error) {
	b, err := ioutil.ReadFile(path)
	return string(b), err
}
