package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseEncoding verifies the fixed alias table: both aliases of each
// encoding map to the same variant, and anything else is rejected rather
// than silently defaulted.
func TestParseEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected Encoding
		hasError bool
	}{
		{"utf8", EncodingUTF8, false},
		{"UTF-8", EncodingUTF8, false},
		{"sjis", EncodingShiftJIS, false},
		{"Shift-JIS", EncodingShiftJIS, false},
		{"UTF8", EncodingUTF8, true},      // aliases are exact, not fuzzy
		{"shift-jis", EncodingUTF8, true}, // no case folding
		{"latin1", EncodingUTF8, true},    // unknown encoding
		{"", EncodingUTF8, true},          // empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseEncoding(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestEncoding_AliasesAgree pins the property that the short and canonical
// alias of each encoding select the identical filter code.
func TestEncoding_AliasesAgree(t *testing.T) {
	sjis, err := ParseEncoding("sjis")
	require.NoError(t, err)
	shiftJIS, err := ParseEncoding("Shift-JIS")
	require.NoError(t, err)
	assert.Equal(t, sjis.FilterCode(), shiftJIS.FilterCode())

	utf8, err := ParseEncoding("utf8")
	require.NoError(t, err)
	utf8Canonical, err := ParseEncoding("UTF-8")
	require.NoError(t, err)
	assert.Equal(t, utf8.FilterCode(), utf8Canonical.FilterCode())
}

// TestEncoding_FilterCode pins the numeric charset codes the office CSV
// filter expects: 76 for UTF-8, 64 for Shift-JIS.
func TestEncoding_FilterCode(t *testing.T) {
	assert.Equal(t, 76, EncodingUTF8.FilterCode())
	assert.Equal(t, 64, EncodingShiftJIS.FilterCode())
}

// TestEncoding_Default verifies the zero value is UTF-8, so an unset
// options struct converts to UTF-8.
func TestEncoding_Default(t *testing.T) {
	var enc Encoding
	assert.Equal(t, EncodingUTF8, enc)
	assert.Equal(t, "UTF-8", enc.String())
	assert.Equal(t, "Shift-JIS", EncodingShiftJIS.String())
}

// TestParseEngine verifies engine parsing, including the empty-means-auto
// behavior used when neither flag nor config names an engine.
func TestParseEngine(t *testing.T) {
	tests := []struct {
		input    string
		expected Engine
		hasError bool
	}{
		{"", EngineAuto, false},
		{"auto", EngineAuto, false},
		{"office", EngineOffice, false},
		{"native", EngineNative, false},
		{"docker", EngineDocker, false},
		{"OFFICE", EngineOffice, false}, // case insensitive
		{"soffice", "", true},
		{"libre", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseEngine(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestEngine_IsValid checks that only defined engines pass validation.
func TestEngine_IsValid(t *testing.T) {
	assert.True(t, EngineAuto.IsValid())
	assert.True(t, EngineOffice.IsValid())
	assert.True(t, EngineNative.IsValid())
	assert.True(t, EngineDocker.IsValid())
	assert.False(t, Engine("invalid").IsValid())
	assert.False(t, Engine("").IsValid())
}

// TestCLIError verifies message formatting and error unwrapping.
func TestCLIError(t *testing.T) {
	plain := NewCLIError(KindUsage, "missing SOURCE argument")
	assert.Equal(t, "missing SOURCE argument", plain.Error())
	assert.Nil(t, plain.Unwrap())

	cause := errors.New("no such file")
	wrapped := WrapCLIError(KindResolution, "source file not found: a.xlsx", cause)
	assert.Equal(t, "source file not found: a.xlsx: no such file", wrapped.Error())
	assert.True(t, errors.Is(wrapped, cause))

	var cliErr *CLIError
	require.True(t, errors.As(error(wrapped), &cliErr))
	assert.Equal(t, KindResolution, cliErr.Kind)
}
