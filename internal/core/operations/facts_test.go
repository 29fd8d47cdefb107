package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionOutput(t *testing.T) {
	out := "Hostname: edge-router-1\n" +
		"Model: mx480\n" +
		"Junos: 21.4R3.15\n" +
		"Serial Number: JN12AB34CD\n" +
		"some unrelated line\n"

	facts := ParseVersionOutput(out)
	assert.Equal(t, "edge-router-1", facts["hostname"])
	assert.Equal(t, "mx480", facts["model"])
	assert.Equal(t, "21.4R3.15", facts["version"])
	assert.Equal(t, "JN12AB34CD", facts["serial_number"])
}

func TestParseVersionOutputAcceptsVersionKey(t *testing.T) {
	facts := ParseVersionOutput("Version: 7.4.2\n")
	assert.Equal(t, "7.4.2", facts["version"])
}

func TestParseVersionOutputEmpty(t *testing.T) {
	assert.Empty(t, ParseVersionOutput("nothing useful here"))
}

func TestDeviceFactsRun(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["show version"] = "Hostname: lab-fw\nModel: srx300\nJunos: 22.2R1\n"

	op := &DeviceFacts{}
	out, err := op.Run(context.Background(), sess, nil, &recordSink{})
	require.NoError(t, err)
	assert.Equal(t, "lab-fw", out["hostname"])
	assert.Equal(t, "srx300", out["model"])
}

func TestDeviceFactsRejectsGarbageOutput(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["show version"] = "% unknown command"

	op := &DeviceFacts{}
	_, err := op.Run(context.Background(), sess, nil, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10.0.0.1")
}
