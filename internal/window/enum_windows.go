//go:build windows

package window

import (
	"image"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsIconic                 = user32.NewProc("IsIconic")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")

	procOpenProcess                = kernel32.NewProc("OpenProcess")
	procCloseHandle                = kernel32.NewProc("CloseHandle")
	procQueryFullProcessImageNameW = kernel32.NewProc("QueryFullProcessImageNameW")
)

const processQueryLimitedInformation = 0x1000

type winRect struct {
	Left, Top, Right, Bottom int32
}

func listWindows() ([]Info, error) {
	var windows []Info

	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
			return 1
		}
		if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
			return 1
		}

		title := windowTitle(hwnd)
		if title == "" {
			return 1
		}

		var rect winRect
		if ok, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rect))); ok == 0 {
			return 1
		}
		width := int(rect.Right - rect.Left)
		height := int(rect.Bottom - rect.Top)
		if width <= 0 || height <= 0 {
			return 1
		}

		windows = append(windows, Info{
			ID:        uint64(hwnd),
			OwnerName: ownerName(hwnd),
			Title:     title,
			X:         int(rect.Left),
			Y:         int(rect.Top),
			Width:     width,
			Height:    height,
		})
		return 1
	})

	if ret, _, err := procEnumWindows.Call(cb, 0); ret == 0 {
		return nil, err
	}
	return windows, nil
}

func windowTitle(hwnd uintptr) string {
	buf := make([]uint16, 256)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}

func ownerName(hwnd uintptr) string {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return ""
	}

	handle, _, _ := procOpenProcess.Call(processQueryLimitedInformation, 0, uintptr(pid))
	if handle == 0 {
		return ""
	}
	defer procCloseHandle.Call(handle)

	buf := make([]uint16, syscall.MAX_PATH)
	size := uint32(len(buf))
	if ok, _, _ := procQueryFullProcessImageNameW.Call(
		handle, 0,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	); ok == 0 {
		return ""
	}

	exe := filepath.Base(syscall.UTF16ToString(buf[:size]))
	return strings.TrimSuffix(exe, filepath.Ext(exe))
}

func windowBounds(id uint64) (image.Rectangle, bool) {
	hwnd := uintptr(id)
	if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
		return image.Rectangle{}, false
	}
	var rect winRect
	if ok, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rect))); ok == 0 {
		return image.Rectangle{}, false
	}
	r := image.Rect(int(rect.Left), int(rect.Top), int(rect.Right), int(rect.Bottom))
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return image.Rectangle{}, false
	}
	return r, true
}
