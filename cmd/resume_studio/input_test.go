package main

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptLine(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"line", "ada@example.com\n", "ada@example.com", false},
		{"trims", "  spaced  \n", "spaced", false},
		{"partial at EOF", "no-newline", "no-newline", false},
		{"empty input", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w bytes.Buffer
			got, err := promptLine(bufio.NewReader(strings.NewReader(tt.in)), &w, "Email: ")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Email: ", w.String())
		})
	}
}

func TestPromptPassword_Terminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	origRead, origTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTerm })
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("hunter22"), nil }

	var out bytes.Buffer
	got, err := promptPassword(r, bufio.NewReader(r), &out)
	require.NoError(t, err)
	assert.Equal(t, "hunter22", got)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	_, err = promptPassword(r, bufio.NewReader(r), &out)
	assert.ErrorContains(t, err, "failed to read password")
}

func TestPromptPassword_PipedInput(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("secret1\n")

	got, err := promptPassword(in, bufio.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, "secret1", got)
}
