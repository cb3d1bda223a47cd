package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

const (
	serverBinary       = "vidgrab-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

type serverState int

const (
	serverDown serverState = iota
	serverStarting
	serverReady
)

// probeServer asks /ready. A server that answers 503, or a held instance
// lock with no answer at all, is still starting.
func probeServer(base, lockFile string) serverState {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(strings.TrimRight(base, "/") + "/ready")
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return serverReady
		}
		return serverStarting
	}
	if lockHeld(lockFile) {
		return serverStarting
	}
	return serverDown
}

// lockHeld reports whether another process holds the server's instance lock
func lockHeld(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return false
	}
	if locked {
		lock.Unlock()
		return false
	}
	return true
}

// localConfig reads the same config the server would, falling back to defaults
func localConfig() *domain.Config {
	config, err := app.LoadConfig(configFile)
	if err == nil {
		return config
	}
	config = domain.DefaultConfig()
	config.Server.LockFile = os.ExpandEnv(config.Server.LockFile)
	config.Logging.LogsDir = os.ExpandEnv(config.Logging.LogsDir)
	return config
}

// serverLogLocation is where to look when the daemon fails to come up;
// its stdout is discarded, so console logging points at the log directory
func serverLogLocation(config *domain.Config) string {
	switch config.Logging.OutputPath {
	case "", "stdout", "stderr":
		return config.Logging.LogsDir
	default:
		return config.Logging.OutputPath
	}
}

func launchServer() error {
	path, err := exec.LookPath(serverBinary)
	if self, selfErr := os.Executable(); selfErr == nil {
		sibling := filepath.Join(filepath.Dir(self), serverBinary)
		if _, statErr := os.Stat(sibling); statErr == nil {
			path, err = sibling, nil
		}
	}
	if err != nil {
		return fmt.Errorf("%s not found next to the CLI or in PATH", serverBinary)
	}

	args := []string{"-server-mode"}
	if configFile != "" {
		args = append(args, "-config", configFile)
	}
	cmd := exec.Command(path, args...)
	setSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", path, err)
	}
	go cmd.Wait()
	return nil
}

// ensureServerRunning starts the server unless it is ready or already booting,
// then waits for /ready
func ensureServerRunning() error {
	config := localConfig()
	lockFile := config.Server.LockFile

	switch probeServer(serverURL, lockFile) {
	case serverReady:
		return nil
	case serverStarting:
		fmt.Println(dimLabel("Server is starting, waiting..."))
	default:
		fmt.Println(dimLabel("Server not running, starting..."))
		if err := launchServer(); err != nil {
			return err
		}
	}

	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if probeServer(serverURL, lockFile) == serverReady {
			fmt.Println(okLabel("Server ready"))
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server not ready after %v, see logs in %s", serverStartTimeout, serverLogLocation(config))
}
