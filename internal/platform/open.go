package platform

import (
	"fmt"
	"os"

	"github.com/skratchdot/open-golang/open"
)

// openDir hands a path to the desktop's default handler.
var openDir = open.Run

// OpenFolder shows dir in the OS file manager.
func OpenFolder(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("folder is not accessible: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	if err := openDir(dir); err != nil {
		return fmt.Errorf("failed to open %q: %w", dir, err)
	}
	return nil
}
