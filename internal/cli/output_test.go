package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	err := f.Print(map[string]string{"query": "SELECT * FROM `t` WHERE a < ?"}, func(io.Writer) error {
		t.Fatal("text output used in json format")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"query\": \"SELECT * FROM `t` WHERE a < ?\"\n}\n", buf.String())
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	err := f.Print(nil, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "202401")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "202401\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "plain", err: errors.New("boom"), want: ExitCommandError},
		{name: "failure", err: NewExitError(ExitFailure, "missing"), want: ExitFailure},
		{name: "wrapped", err: fmt.Errorf("run: %w", WrapExitError(ExitFailure, "validate", errors.New("x"))), want: ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("connection refused")
	err := WrapExitError(ExitCommandError, "open database", inner)
	assert.Equal(t, "open database: connection refused", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "3 monthly tables missing", NewExitError(ExitFailure, "3 monthly tables missing").Error())
}
