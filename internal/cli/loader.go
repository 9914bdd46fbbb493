package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/extract/internal/compiler"
	"github.com/roach88/extract/internal/ir"
)

// LoadError represents an error that occurred while loading an IR file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadModule reads one IR module from path. Every failure is a *LoadError.
func LoadModule(path string) (*ir.Module, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("IR file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing IR file: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}
	}

	m, err := compiler.Load(path)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	return m, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, path string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", path, err),
	}
}

// Error code constants - unified across all CLI commands.
// Validation codes (E1xx) come from the compiler package.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeUnsupported      = "E002" // Unsupported input extension
	ErrCodeDecodeFailed     = "E003" // JSON/YAML decode or IR shape error
	ErrCodeLoadFailed       = "E004" // CUE load failed
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeUnknownTarget    = "E006" // Target not registered
	ErrCodeWriteFailed      = "E007" // Emission or file write error
	ErrCodeLedger           = "E008" // Session ledger error
	ErrCodeBatchConfig      = "E009" // Invalid batch file
	ErrCodeNondeterministic = "E010" // Output differs from the ledger for the same input
	ErrCodeStale            = "E011" // Generated file differs from a fresh render
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "input":
		return ErrCodeUnsupported
	case "cue":
		return ErrCodeLoadFailed
	case "":
		return ErrCodeGeneric
	default:
		return ErrCodeDecodeFailed
	}
}
