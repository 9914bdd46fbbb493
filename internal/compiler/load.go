package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/extract/internal/ir"
)

// Supported input formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCUE  = "cue"
)

// FormatFor returns the input format implied by a file extension.
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &CompileError{
			Field:   "input",
			Message: fmt.Sprintf("unsupported input extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path)),
		}
	}
}

// Load reads one IR module from path, choosing the decoder by extension.
func Load(path string) (*ir.Module, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, format, path)
}

// Decode parses data in the given format. filename is used for positions
// in error messages only.
func Decode(data []byte, format, filename string) (*ir.Module, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatYAML:
		return DecodeYAML(data)
	case FormatCUE:
		ctx := cuecontext.New()
		v := ctx.CompileBytes(data, cue.Filename(filename))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		return CompileModule(v)
	default:
		return nil, &CompileError{Field: "input", Message: fmt.Sprintf("unknown format %q", format)}
	}
}

// DecodeJSON parses the JSON wire form of a module.
func DecodeJSON(data []byte) (*ir.Module, error) {
	m, err := ir.Parse(data)
	if err != nil {
		return nil, convertDecodeError(err)
	}
	return m, nil
}

// DecodeYAML parses a module written in YAML. The document has the same
// shape as the JSON form.
func DecodeYAML(data []byte) (*ir.Module, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	if doc == nil {
		return nil, &CompileError{Field: "yaml", Message: "empty document"}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &CompileError{Field: "yaml", Message: fmt.Sprintf("converting to JSON: %v", err)}
	}
	return DecodeJSON(raw)
}

// CompileModule extracts the module from a CUE value. The value must hold a
// concrete "module" field shaped like the JSON form:
//
//	module: {
//		name: "shapes"
//		decls: [{kind: "enum", name: "Color", values: ["Red", "Green"]}]
//	}
func CompileModule(v cue.Value) (*ir.Module, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modVal := v.LookupPath(cue.ParsePath("module"))
	if !modVal.Exists() {
		return nil, &CompileError{
			Field:   "module",
			Message: "module is required",
			Pos:     v.Pos(),
		}
	}
	if err := modVal.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	raw, err := modVal.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	m, err := DecodeJSON(raw)
	if err != nil {
		var compileErr *CompileError
		if errors.As(err, &compileErr) && !compileErr.Pos.IsValid() {
			compileErr.Pos = modVal.Pos()
		}
		return nil, err
	}
	return m, nil
}

// CompileError represents a load error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// convertDecodeError turns IR and encoding/json errors into CompileErrors.
func convertDecodeError(err error) error {
	var decodeErr *ir.DecodeError
	if errors.As(err, &decodeErr) {
		field := decodeErr.Path
		if field == "" {
			field = "module"
		}
		return &CompileError{Field: field, Message: decodeErr.Message}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &CompileError{
			Field:   "json",
			Message: fmt.Sprintf("offset %d: %v", syntaxErr.Offset, syntaxErr),
		}
	}
	return &CompileError{Field: "json", Message: err.Error()}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return &CompileError{Field: "cue", Message: firstErr.Error()}
}
