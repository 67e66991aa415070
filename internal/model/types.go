package model

import (
	"fmt"
	"strings"
)

// Encoding selects the character encoding of the produced CSV file.
//
// The zero value is EncodingUTF8, so an Encoding embedded in an options
// struct defaults to UTF-8 without explicit initialization.
type Encoding int

const (
	// EncodingUTF8 produces UTF-8 output. This is the default.
	EncodingUTF8 Encoding = iota

	// EncodingShiftJIS produces Shift-JIS output, used for spreadsheets
	// consumed by Japanese legacy tooling (Excel on Windows in particular).
	EncodingShiftJIS
)

// Office CSV filter token charset codes. The headless converter's CSV
// export filter identifies character sets by number, not by name; these
// two are the only ones this tool exposes.
const (
	filterCodeUTF8     = 76
	filterCodeShiftJIS = 64
)

// encodingAliases is the fixed table of accepted --encoding values.
// Both the short form and the canonical IANA-style form of each encoding
// are accepted and map to the same variant.
var encodingAliases = map[string]Encoding{
	"utf8":      EncodingUTF8,
	"UTF-8":     EncodingUTF8,
	"sjis":      EncodingShiftJIS,
	"Shift-JIS": EncodingShiftJIS,
}

// ParseEncoding maps an --encoding flag value to an Encoding.
//
// Only the four fixed aliases (utf8, UTF-8, sjis, Shift-JIS) are accepted;
// anything else is an error rather than a silent fallback to the default.
// Matching is exact, not case-folded, mirroring the original alias table.
func ParseEncoding(s string) (Encoding, error) {
	enc, ok := encodingAliases[s]
	if !ok {
		return EncodingUTF8, fmt.Errorf(
			"unknown encoding %q (valid: utf8, UTF-8, sjis, Shift-JIS)", s)
	}
	return enc, nil
}

// String returns the canonical name of the encoding.
func (e Encoding) String() string {
	if e == EncodingShiftJIS {
		return "Shift-JIS"
	}
	return "UTF-8"
}

// FilterCode returns the numeric charset code the office CSV export filter
// uses for this encoding.
func (e Encoding) FilterCode() int {
	if e == EncodingShiftJIS {
		return filterCodeShiftJIS
	}
	return filterCodeUTF8
}

// Engine selects which conversion backend performs the spreadsheet-to-CSV
// work.
type Engine string

const (
	// EngineAuto picks EngineOffice when an office binary is discoverable
	// on this machine and falls back to EngineNative otherwise.
	EngineAuto Engine = "auto"

	// EngineOffice invokes a locally installed office suite binary
	// (soffice/libreoffice) in headless mode.
	EngineOffice Engine = "office"

	// EngineNative converts in-process using spreadsheet-reading libraries,
	// with no external binary involved.
	EngineNative Engine = "native"

	// EngineDocker runs the office suite binary inside a container via the
	// Docker daemon, for hosts without a local office installation.
	EngineDocker Engine = "docker"
)

// IsValid reports whether the Engine value is one of the defined backends.
func (e Engine) IsValid() bool {
	switch e {
	case EngineAuto, EngineOffice, EngineNative, EngineDocker:
		return true
	default:
		return false
	}
}

// String returns the engine name as used on the command line.
func (e Engine) String() string {
	return string(e)
}

// ParseEngine converts an --engine flag value to an Engine.
// Matching is case-insensitive. An empty string means EngineAuto.
func ParseEngine(s string) (Engine, error) {
	if s == "" {
		return EngineAuto, nil
	}
	engine := Engine(strings.ToLower(s))
	if !engine.IsValid() {
		return "", fmt.Errorf(
			"unknown engine %q (valid: auto, office, native, docker)", s)
	}
	return engine, nil
}

// ErrorKind classifies CLI failures. Every kind maps to process exit code 1;
// the kind exists so messages and tests can distinguish failure causes, not
// to vary the exit status.
type ErrorKind int

const (
	// KindGeneral is an unclassified failure.
	KindGeneral ErrorKind = iota

	// KindUsage is a malformed command line that warrants printing usage
	// (no positional arguments, unknown flag).
	KindUsage

	// KindArgument is an argument-level error with a specific message
	// (too many positional arguments, bad flag value).
	KindArgument

	// KindResolution is a path-resolution failure, typically a source file
	// that does not exist.
	KindResolution

	// KindExternalTool is a converter failure: the office binary or
	// container exited non-zero, or produced no output file.
	KindExternalTool

	// KindRelocation is a failure moving the converted file to its
	// destination, typically a missing destination parent directory.
	KindRelocation

	// KindConfig is a configuration file that exists but cannot be parsed.
	KindConfig
)

// CLIError is the error type returned by CLI operations. It carries the
// failure classification and wraps the underlying cause.
type CLIError struct {
	// Kind classifies the failure for message handling.
	Kind ErrorKind

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given kind and message.
func NewCLIError(kind ErrorKind, message string) *CLIError {
	return &CLIError{Kind: kind, Message: message}
}

// WrapCLIError creates a CLIError that wraps an existing error.
func WrapCLIError(kind ErrorKind, message string, err error) *CLIError {
	return &CLIError{Kind: kind, Message: message, Err: err}
}

// ConvertRequest describes one conversion handed to an engine. The engine
// writes its output file into OutDir and the orchestrator relocates it;
// engines never touch the final destination.
type ConvertRequest struct {
	// SourcePath is the absolute, resolved path of the spreadsheet file.
	SourcePath string

	// OutDir is the scoped temporary directory the engine must write
	// <source-base>.csv into.
	OutDir string

	// Encoding is the requested output encoding.
	Encoding Encoding
}
