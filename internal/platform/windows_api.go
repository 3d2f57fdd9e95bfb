//go:build windows

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
)

// WindowsAPI samples the foreground window through user32 and the process image name
type WindowsAPI struct{}

// NewForegroundAPI returns the Win32 foreground window lookup
func NewForegroundAPI() ForegroundAPI {
	return &WindowsAPI{}
}

func (w *WindowsAPI) Supported() bool {
	return procGetForegroundWindow.Find() == nil
}

func (w *WindowsAPI) CurrentApp() (*AppInfo, bool) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return nil, false
	}

	var processID uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&processID)))
	if processID == 0 {
		return nil, false
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, processID)
	if err != nil {
		return nil, false
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return nil, false
	}

	info := AppInfoFromPath(windows.UTF16ToString(buf[:size]))
	return info, info != nil
}
