//go:build !windows

package window

import (
	"fmt"
	"image"
	"runtime"
)

func listWindows() ([]Info, error) {
	return nil, fmt.Errorf("window enumeration is not supported on %s", runtime.GOOS)
}

func windowBounds(id uint64) (image.Rectangle, bool) {
	return image.Rectangle{}, false
}
