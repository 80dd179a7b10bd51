package llm

import "fmt"

const diagWindow = 400

// GenerationError means the completion service call or the final schema
// validation failed after the raw-text retry. It carries the head and tail
// of the raw output for diagnostics.
type GenerationError struct {
	Op   string
	Head string
	Tail string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IrreparableOutputError means every repair tier failed to produce parseable
// JSON from the model's raw output.
type IrreparableOutputError struct {
	Head string
	Tail string
	Err  error
}

func (e *IrreparableOutputError) Error() string {
	return fmt.Sprintf("irreparable model output: %v", e.Err)
}

func (e *IrreparableOutputError) Unwrap() error {
	return e.Err
}

func headTail(s string) (string, string) {
	if len(s) <= diagWindow {
		return s, ""
	}
	return s[:diagWindow], s[len(s)-diagWindow:]
}

func newGenerationError(op, raw string, err error) *GenerationError {
	head, tail := headTail(raw)
	return &GenerationError{Op: op, Head: head, Tail: tail, Err: err}
}

func newIrreparableError(raw string, err error) *IrreparableOutputError {
	head, tail := headTail(raw)
	return &IrreparableOutputError{Head: head, Tail: tail, Err: err}
}
