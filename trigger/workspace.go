package trigger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// workspacePath returns the per-invocation workspace directory under root.
func workspacePath(root, invocationID string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("workspace root cannot be empty")
	}
	if invocationID == "" || invocationID == "." || invocationID == ".." ||
		strings.ContainsAny(invocationID, `/\`) {
		return "", fmt.Errorf("invalid invocation id %q", invocationID)
	}
	return filepath.Join(root, invocationID), nil
}

// resetWorkspace removes path if it exists and makes sure its parent does.
func resetWorkspace(path string) error {
	if _, err := os.Lstat(path); err == nil {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove stale workspace %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access workspace %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create workspace root: %w", err)
	}
	return nil
}

// writePayloadFile creates or truncates name inside dir and writes the payload to it.
func writePayloadFile(dir, name string, write func(*os.File) error) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("payload file name %q is not a plain file name", name)
	}
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open payload file: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close payload file: %w", err)
	}
	return path, nil
}
