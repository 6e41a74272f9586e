package prompter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	out := &bytes.Buffer{}
	p := New(strings.NewReader("2\n"), out)

	idx, err := p.Select("Pick an account", []string{"monalisa", "hubot"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "1. monalisa")
	assert.Contains(t, out.String(), "2. hubot")
}

func TestSelectRetriesOnInvalidInput(t *testing.T) {
	out := &bytes.Buffer{}
	p := New(strings.NewReader("nope\n5\n1\n"), out)

	idx, err := p.Select("Pick one", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Contains(t, out.String(), `invalid choice "nope"`)
}

func TestInputDefault(t *testing.T) {
	p := New(strings.NewReader("\n"), &bytes.Buffer{})

	v, err := p.Input("Hostname", "github.com")
	require.NoError(t, err)
	assert.Equal(t, "github.com", v)
}

func TestInputValue(t *testing.T) {
	p := New(strings.NewReader("ghe.example.com\n"), &bytes.Buffer{})

	v, err := p.Input("Hostname", "github.com")
	require.NoError(t, err)
	assert.Equal(t, "ghe.example.com", v)
}

func TestConfirm(t *testing.T) {
	cases := []struct {
		input        string
		defaultValue bool
		want         bool
	}{
		{"y\n", false, true},
		{"no\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
	}
	for _, tc := range cases {
		p := New(strings.NewReader(tc.input), &bytes.Buffer{})
		got, err := p.Confirm("Continue?", tc.defaultValue)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestConfirmInvalid(t *testing.T) {
	p := New(strings.NewReader("maybe\n"), &bytes.Buffer{})

	_, err := p.Confirm("Continue?", false)
	assert.Error(t, err)
}
