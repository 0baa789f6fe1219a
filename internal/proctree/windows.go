//go:build windows

package proctree

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const (
	processTerminate        = 0x0001
	processQueryInformation = 0x0400
)

type systemOps struct{}

func (systemOps) Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	handle, err := openProcess(processQueryInformation, uint32(pid))
	if err != nil {
		return false
	}
	_ = closeHandle(handle)
	return true
}

// Descendants is intentionally empty on Windows: Kill takes the whole tree
// down via taskkill, so the container's responsibility is narrower here.
func (systemOps) Descendants(int) []int { return nil }

func (systemOps) ListBySignature(signature string) []int {
	if signature == "" {
		return nil
	}
	out, err := exec.Command("wmic", "process", "where",
		"commandline like '%"+signature+"%'", "get", "processid").Output()
	if err != nil {
		return nil
	}
	self := os.Getpid()
	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && pid != self {
			pids = append(pids, pid)
		}
	}
	return pids
}

func (systemOps) Terminate(pid int) error {
	// No graceful signal on Windows; terminate just this pid.
	return terminateByHandle(pid)
}

func (systemOps) Kill(pid int) error {
	// taskkill /T fells the whole tree, covering the missing descendant walk.
	if err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run(); err == nil {
		return nil
	}
	return terminateByHandle(pid)
}

func terminateByHandle(pid int) error {
	handle, err := openProcess(processTerminate, uint32(pid))
	if err != nil {
		// Unopenable pids are usually already gone; report success.
		return nil
	}
	defer func() { _ = closeHandle(handle) }()
	ret, _, callErr := procTerminateProcess.Call(uintptr(handle), uintptr(1))
	if ret == 0 {
		return callErr
	}
	return nil
}

func openProcess(access uint32, pid uint32) (syscall.Handle, error) {
	ret, _, err := procOpenProcess.Call(uintptr(access), uintptr(0), uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(handle syscall.Handle) error {
	ret, _, err := procCloseHandle.Call(uintptr(handle))
	if ret == 0 {
		return err
	}
	return nil
}

