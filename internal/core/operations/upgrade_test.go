package operations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/netfleet/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "junos-21.4R3.15.tgz")
	require.NoError(t, os.WriteFile(path, []byte("not a real image"), 0o644))
	return path
}

func TestCodeUpgradeRequiresParameters(t *testing.T) {
	op := &CodeUpgrade{}

	_, err := op.Run(context.Background(), newFakeSession("10.0.0.1"), nil, &recordSink{})
	assert.ErrorIs(t, err, ErrImageRequired)

	_, err = op.Run(context.Background(), newFakeSession("10.0.0.1"),
		domain.JSONB{"image": "/tmp/image.tgz"}, &recordSink{})
	assert.ErrorIs(t, err, ErrVersionRequired)
}

func TestCodeUpgradeSkipsWhenAlreadyOnVersion(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["show version"] = "Junos: 21.4R3.15\n"

	op := &CodeUpgrade{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{
		"image":   "/does/not/exist.tgz",
		"version": "21.4R3.15",
	}, &recordSink{})
	require.NoError(t, err)
	assert.Equal(t, true, out["skipped"])
	assert.Empty(t, sess.uploads, "no upload when the device already runs the version")
}

func TestCodeUpgradeUploadsAndInstalls(t *testing.T) {
	image := writeImage(t)
	sess := newFakeSession("10.0.0.1")
	sess.script["show version"] = "Junos: 20.1R1\n"
	sess.script["file checksum sha256"] = "deadbeef  /var/tmp/" + filepath.Base(image) + "\n"

	op := &CodeUpgrade{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{
		"image":   image,
		"version": "21.4R3.15",
	}, &recordSink{})
	require.NoError(t, err)

	remote := "/var/tmp/" + filepath.Base(image)
	assert.Equal(t, []string{remote}, sess.uploads)
	assert.Equal(t, "20.1R1", out["previous_version"])
	assert.Equal(t, "21.4R3.15", out["target_version"])
	assert.Equal(t, false, out["rebooted"])
	assert.True(t, sess.ran("request system software add "+remote+" no-copy"))
	assert.False(t, sess.ran("request system reboot"))
}

func TestCodeUpgradeRebootsOnRequest(t *testing.T) {
	image := writeImage(t)
	sess := newFakeSession("10.0.0.1")
	sess.script["show version"] = "Junos: 20.1R1\n"
	sess.script["file checksum sha256"] = "deadbeef\n"

	op := &CodeUpgrade{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{
		"image":   image,
		"version": "21.4R3.15",
		"reboot":  true,
	}, &recordSink{})
	require.NoError(t, err)
	assert.Equal(t, true, out["rebooted"])
	assert.True(t, sess.ran("request system reboot"))
}

func TestCodeUpgradeFailsOnMissingImage(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["show version"] = "Junos: 20.1R1\n"

	op := &CodeUpgrade{}
	_, err := op.Run(context.Background(), sess, domain.JSONB{
		"image":   "/does/not/exist.tgz",
		"version": "21.4R3.15",
	}, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open image")
}
