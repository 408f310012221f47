package media

import (
	"context"
	"fmt"
	"os/exec"
)

// Aria2 downloads a resolved source into a directory with aria2c.
type Aria2 struct {
	Bin string
}

func (a *Aria2) Fetch(ctx context.Context, sourceURL, destDir, destName string) error {
	cmd := exec.CommandContext(ctx, a.Bin,
		"--allow-overwrite=true",
		"--auto-file-renaming=false",
		"--console-log-level=warn",
		"-d", destDir,
		"-o", destName,
		sourceURL,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("aria2c: %w\n%s", err, string(out))
	}
	return nil
}
