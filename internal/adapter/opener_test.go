package adapter

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpener_Configured(t *testing.T) {
	o := NewOpener("feh", []string{"--scale-down"}, NullLogger())

	var gotName string
	var gotArgs []string
	o.start = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	require.NoError(t, o.Open("https://cdn.example/x.jpg"))
	assert.Equal(t, "feh", gotName)
	assert.Equal(t, []string{"--scale-down", "https://cdn.example/x.jpg"}, gotArgs)

	// Configured args are not mutated across calls
	require.NoError(t, o.Open("https://cdn.example/y.jpg"))
	assert.Equal(t, []string{"--scale-down", "https://cdn.example/y.jpg"}, gotArgs)
}

func TestOpener_SystemDefault(t *testing.T) {
	o := NewOpener("", nil, NullLogger())
	name, args := o.commandFor("https://cdn.example/x.jpg")

	switch runtime.GOOS {
	case "darwin":
		assert.Equal(t, "open", name)
	case "windows":
		assert.Equal(t, "cmd", name)
	default:
		assert.Equal(t, "xdg-open", name)
	}
	assert.Equal(t, "https://cdn.example/x.jpg", args[len(args)-1])
}

func TestOpener_EmptyURL(t *testing.T) {
	o := NewOpener("feh", nil, NullLogger())
	o.start = func(string, ...string) error {
		t.Fatal("no command should start")
		return nil
	}
	assert.Error(t, o.Open(""))
}
