package report

import (
	"fmt"
	"os"
	"path/filepath"

	"trapcam/internal/domain"
)

// VerifyArtifacts checks that every chart file exists in dir.
func VerifyArtifacts(dir string) error {
	for _, name := range Artifacts {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() || info.Size() == 0 {
			return fmt.Errorf("%w: %s was not produced", domain.ErrMissingArtifact, name)
		}
	}
	return nil
}
