package hook

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104

	wmLButtonDown = 0x0201
	wmRButtonDown = 0x0204
	wmMButtonDown = 0x0207
	wmXButtonDown = 0x020B
)

type point struct {
	x, y int32
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

// run installs low-level keyboard and mouse hooks and pumps messages on
// a locked OS thread. Low-level hooks are serviced inside GetMessageW,
// so the loop body never dispatches anything. Cancellation is delivered
// by posting WM_QUIT to the pump thread.
func (l *Listener) run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	user32 := windows.NewLazySystemDLL("user32.dll")
	kernel32 := windows.NewLazySystemDLL("kernel32.dll")
	setWindowsHookEx := user32.NewProc("SetWindowsHookExW")
	callNextHookEx := user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx := user32.NewProc("UnhookWindowsHookEx")
	getMessage := user32.NewProc("GetMessageW")
	postThreadMessage := user32.NewProc("PostThreadMessageW")
	getCurrentThreadID := kernel32.NewProc("GetCurrentThreadId")

	keyboardProc := windows.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
		if int32(nCode) >= 0 && (wParam == wmKeyDown || wParam == wmSysKeyDown) {
			if l.cb.OnKeyPress != nil {
				l.cb.OnKeyPress()
			}
		}
		ret, _, _ := callNextHookEx.Call(0, nCode, wParam, lParam)
		return ret
	})
	mouseProc := windows.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
		if int32(nCode) >= 0 {
			switch wParam {
			case wmLButtonDown, wmRButtonDown, wmMButtonDown, wmXButtonDown:
				if l.cb.OnMouseClick != nil {
					l.cb.OnMouseClick()
				}
			}
		}
		ret, _, _ := callNextHookEx.Call(0, nCode, wParam, lParam)
		return ret
	})

	kbHook, _, err := setWindowsHookEx.Call(whKeyboardLL, keyboardProc, 0, 0)
	if kbHook == 0 {
		return fmt.Errorf("install keyboard hook: %w", err)
	}
	defer unhookWindowsHookEx.Call(kbHook)

	mouseHook, _, err := setWindowsHookEx.Call(whMouseLL, mouseProc, 0, 0)
	if mouseHook == 0 {
		return fmt.Errorf("install mouse hook: %w", err)
	}
	defer unhookWindowsHookEx.Call(mouseHook)

	tid, _, _ := getCurrentThreadID.Call()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_, _, _ = postThreadMessage.Call(tid, wmQuit, 0, 0)
		case <-stop:
		}
	}()

	var m msg
	for {
		ret, _, callErr := getMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(ret) {
		case 0: // WM_QUIT
			return ctx.Err()
		case -1:
			return fmt.Errorf("hook message loop: %w", callErr)
		}
	}
}
