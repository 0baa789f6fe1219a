//go:build !windows

package proctree

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

type systemOps struct{}

func (systemOps) Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM and friends mean the pid is occupied; only ESRCH proves absence.
	return !errors.Is(err, syscall.ESRCH)
}

func (systemOps) Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

func (systemOps) Kill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}

func (systemOps) Descendants(pid int) []int {
	children := childMap()
	if len(children) == 0 {
		return nil
	}
	// Iterative BFS with a visited set; a healthy process table is a tree,
	// but a recycled ppid must not loop us forever.
	var out []int
	visited := map[int]bool{pid: true}
	queue := []int{pid}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

func (systemOps) ListBySignature(signature string) []int {
	if signature == "" {
		return nil
	}
	out, err := exec.Command("ps", "-axo", "pid=,command=").Output()
	if err != nil {
		// ps exiting non-zero (nothing to list, tool missing) means no matches.
		return nil
	}
	self := os.Getpid()
	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pidStr, cmdline, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(pidStr))
		if err != nil || pid == self {
			continue
		}
		if strings.Contains(cmdline, signature) {
			pids = append(pids, pid)
		}
	}
	return pids
}

// childMap builds ppid -> child pids from one ps snapshot.
func childMap() map[int][]int {
	out, err := exec.Command("ps", "-axo", "pid=,ppid=").Output()
	if err != nil {
		return nil
	}
	children := make(map[int][]int)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err1 := strconv.Atoi(fields[0])
		ppid, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			continue
		}
		children[ppid] = append(children[ppid], pid)
	}
	return children
}
