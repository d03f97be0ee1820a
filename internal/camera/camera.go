// Package camera triggers a still-image capture on a remote host over SSH
// and copies the result back with scp. Both steps run with a bounded
// connection timeout so an unreachable device never hangs a handler.
package camera

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	connectTimeout = "ConnectTimeout=10"
	stepTimeout    = 60 * time.Second
)

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Adapter captures images from a single remote camera host.
type Adapter struct {
	user      string
	host      string
	remoteDir string
	localDir  string
	runner    Runner
	log       *slog.Logger
	now       func() time.Time
}

// New creates an Adapter that shells out to ssh and scp.
func New(user, host, remoteDir, localDir string, log *slog.Logger) *Adapter {
	return &Adapter{
		user:      user,
		host:      host,
		remoteDir: remoteDir,
		localDir:  localDir,
		runner:    execRunner{},
		log:       log,
		now:       time.Now,
	}
}

// Capture triggers a capture on the remote host and retrieves the file.
// It returns the local path of the image. The retrieval step is skipped
// when the capture step fails. Paths on both ends are namespaced by the
// current date and time so repeated captures never collide.
func (a *Adapter) Capture(ctx context.Context) (string, error) {
	now := a.now()
	day := now.Format("2006_01_02")
	file := "image_" + now.Format("15_04_05") + ".jpg"

	localDir := filepath.Join(a.localDir, day)
	if err := os.MkdirAll(localDir, 0o750); err != nil {
		return "", fmt.Errorf("create local directory: %w", err)
	}

	remoteDir := path.Join(a.remoteDir, day)
	remoteFile := path.Join(remoteDir, file)
	target := a.user + "@" + a.host

	a.log.Debug("capturing image", "host", a.host, "remote_file", remoteFile)

	captureCmd := fmt.Sprintf("mkdir -p %s && libcamera-still -n -o %s", remoteDir, remoteFile)
	out, err := a.run(ctx, "ssh", "-o", connectTimeout, "-o", "BatchMode=yes", target, captureCmd)
	if err != nil {
		return "", fmt.Errorf("capture on %s: %w%s", a.host, err, outputSuffix(out))
	}

	localFile := filepath.Join(localDir, file)
	out, err = a.run(ctx, "scp", "-o", connectTimeout, "-o", "BatchMode=yes", target+":"+remoteFile, localFile)
	if err != nil {
		return "", fmt.Errorf("retrieve %s: %w%s", remoteFile, err, outputSuffix(out))
	}

	return localFile, nil
}

func (a *Adapter) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	return a.runner.Run(ctx, name, args...)
}

func outputSuffix(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	return ": " + s
}
