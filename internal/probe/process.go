package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"schnooty-agent/internal/shared"
)

// ProcessDriver matches running processes by executable name and applies
// count/RAM constraints. Grounded on
// original_source/src/monitoring/monitor_impl/process_monitor.rs.
//
// Process enumeration reads /proc directly (Linux); this mirrors the
// original's reliance on a system process table and keeps the driver
// dependency-free, matching the corpus (no third-party process-listing
// library appears anywhere in the retrieved examples).
type ProcessDriver struct{}

func NewProcessDriver() *ProcessDriver {
	return &ProcessDriver{}
}

type processInfo struct {
	pid    int
	cmd    string
	ramKB  int64
}

func (d *ProcessDriver) Probe(ctx context.Context, m shared.Monitor) shared.MonitorStatus {
	b := NewStatusBuilder(m.Name, shared.KindProcess)

	executableName, _ := m.Body["executableName"].(string)
	isPathAbsolute, _ := m.Body["isPathAbsolute"].(bool)
	minimumCount := intOf(m.Body["minimumCount"], 0)
	maximumCount := intOf(m.Body["maximumCount"], -1)
	maxRAMInstance := int64(intOf(m.Body["maximumRamIndividual"], -1))
	maxRAMTotal := int64(intOf(m.Body["maximumRamTotal"], -1))

	if executableName == "" {
		b.Logf("missing required executableName in monitor body")
		return b.Build(shared.StatusDown, "executableName required", "monitor body missing executableName",
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	b.Logf("scanning processes for %q (absolute=%t)", executableName, isPathAbsolute)

	procs, err := listProcesses()
	if err != nil {
		b.Logf("failed to list processes: %v", err)
		return b.Build(shared.StatusDown, "Expected to be able to start monitor",
			fmt.Sprintf("Starting monitor failed: %v", err), fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	var matches []processInfo
	for _, p := range procs {
		if matchesExecutable(p.cmd, executableName, isPathAbsolute) {
			matches = append(matches, p)
		}
	}

	totalCount := len(matches)
	b.Logf("matched %d process(es)", totalCount)

	var totalRAM int64
	for _, p := range matches {
		ramBytes := p.ramKB * 1024
		totalRAM += ramBytes
		if maxRAMInstance >= 0 && ramBytes > maxRAMInstance {
			b.Logf("process %d exceeds per-instance RAM limit: %d > %d bytes", p.pid, ramBytes, maxRAMInstance)
			return b.Build(shared.StatusDown, "no process over the per-instance RAM limit",
				fmt.Sprintf("process %d used %d bytes, limit %d", p.pid, ramBytes, maxRAMInstance),
				fmt.Sprintf("Monitor of type %s", m.Kind))
		}
	}

	if maxRAMTotal >= 0 && totalRAM > maxRAMTotal {
		b.Logf("total RAM %d exceeds limit %d", totalRAM, maxRAMTotal)
		return b.Build(shared.StatusDown, "total RAM under limit",
			fmt.Sprintf("total RAM %d bytes exceeds limit %d bytes", totalRAM, maxRAMTotal),
			fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	if totalCount < minimumCount {
		b.Logf("process count %d below minimum %d", totalCount, minimumCount)
		return b.Build(shared.StatusDown, fmt.Sprintf("at least %d matching process(es)", minimumCount),
			fmt.Sprintf("found %d matching process(es)", totalCount), fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	if maximumCount >= 0 && totalCount > maximumCount {
		b.Logf("process count %d exceeds maximum %d", totalCount, maximumCount)
		return b.Build(shared.StatusDown, fmt.Sprintf("at most %d matching process(es)", maximumCount),
			fmt.Sprintf("found %d matching process(es)", totalCount), fmt.Sprintf("Monitor of type %s", m.Kind))
	}

	b.Logf("all constraints satisfied")
	return b.Build(shared.StatusOK, "process constraints satisfied",
		fmt.Sprintf("found %d matching process(es)", totalCount), fmt.Sprintf("Monitor of type %s", m.Kind))
}

func matchesExecutable(cmd, executableName string, isPathAbsolute bool) bool {
	if isPathAbsolute {
		return cmd == executableName
	}
	return filepath.Base(cmd) == strings.TrimSpace(executableName)
}

func intOf(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

func listProcesses() ([]processInfo, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("reading /proc: %w", err)
	}

	var procs []processInfo
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}

		cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
		if err != nil || len(cmdline) == 0 {
			continue
		}
		argv0 := strings.SplitN(string(cmdline), "\x00", 2)[0]

		ramKB := readRSSKB(pid)

		procs = append(procs, processInfo{pid: pid, cmd: argv0, ramKB: ramKB})
	}

	return procs, nil
}

func readRSSKB(pid int) int64 {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "VmRSS:") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				kb, _ := strconv.ParseInt(fields[1], 10, 64)
				return kb
			}
		}
	}
	return 0
}
