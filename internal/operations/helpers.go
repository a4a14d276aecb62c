package operations

import (
	"fmt"
	"os"
)

func EnsureDirectoryExist(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dirPath, err)
	}
	return nil
}
