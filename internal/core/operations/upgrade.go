package operations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
)

var (
	ErrImageRequired   = errors.New("code_upgrade: 'image' parameter is required")
	ErrVersionRequired = errors.New("code_upgrade: 'version' parameter is required")
)

const remoteImageDir = "/var/tmp"

// CodeUpgrade stages a software image on a device and requests installation:
// version precheck, SFTP upload, checksum verification, install. The device
// is only rebooted when the `reboot` parameter is set.
type CodeUpgrade struct{}

func (o *CodeUpgrade) Kind() string { return KindCodeUpgrade }

func (o *CodeUpgrade) Run(ctx context.Context, sess ports.Session, params domain.JSONB, emit ports.EventSink) (domain.JSONB, error) {
	imagePath := stringParam(params, "image", "")
	if imagePath == "" {
		return nil, ErrImageRequired
	}
	targetVersion := stringParam(params, "version", "")
	if targetVersion == "" {
		return nil, ErrVersionRequired
	}
	reboot := boolParam(params, "reboot", false)

	emit.Emit("info", "checking current software version")
	out, err := sess.Run(ctx, "show version")
	if err != nil {
		return nil, fmt.Errorf("version check failed: %w", err)
	}
	currentVersion, _ := ParseVersionOutput(out)["version"].(string)
	if currentVersion == targetVersion {
		emit.Emit("info", fmt.Sprintf("already running %s, nothing to do", targetVersion))
		return domain.JSONB{
			"skipped":         true,
			"current_version": currentVersion,
		}, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	img, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open image %s: %w", imagePath, err)
	}
	defer img.Close()

	remotePath := path.Join(remoteImageDir, filepath.Base(imagePath))
	emit.Emit("info", fmt.Sprintf("uploading image to %s", remotePath))
	if err := sess.Upload(ctx, img, remotePath); err != nil {
		return nil, fmt.Errorf("image upload failed: %w", err)
	}

	emit.Emit("info", "verifying image checksum")
	sum, err := sess.Run(ctx, fmt.Sprintf("file checksum sha256 %s", remotePath))
	if err != nil || strings.TrimSpace(sum) == "" {
		return nil, fmt.Errorf("checksum verification failed: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	emit.Emit("info", fmt.Sprintf("installing %s", targetVersion))
	installCmd := fmt.Sprintf("request system software add %s no-copy", remotePath)
	if _, err := sess.Run(ctx, installCmd); err != nil {
		return nil, fmt.Errorf("software install failed: %w", err)
	}

	result := domain.JSONB{
		"previous_version": currentVersion,
		"target_version":   targetVersion,
		"image":            remotePath,
		"rebooted":         false,
	}
	if reboot {
		emit.Emit("warn", "rebooting device to activate new software")
		if _, err := sess.Run(ctx, "request system reboot"); err != nil {
			return result, fmt.Errorf("reboot request failed: %w", err)
		}
		result["rebooted"] = true
	} else {
		emit.Emit("info", "install staged; reboot required to activate")
	}
	return result, nil
}
