package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success writes data as a JSON envelope, or calls text to render it for humans.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	if text == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return text(f.Writer)
}

// Error writes a failure. In text mode cobra already prints the error, so only JSON is written.
func (f *OutputFormatter) Error(err error) error {
	if f.Format != "json" {
		return err
	}
	if encErr := json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: err.Error()}); encErr != nil {
		return encErr
	}
	return err
}
