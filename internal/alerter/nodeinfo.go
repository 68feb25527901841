package alerter

import (
	"fmt"
	"os"
	"runtime"

	"schnooty-agent/internal/shared"
)

// CurrentNodeInfo builds the host summary attached to every alert
// payload. Grounded on original_source's get_node_info (num_cpus +
// sysinfo::System + hostname::get); stdlib runtime.NumCPU() substitutes
// for num_cpus since no third-party CPU/host-info library (e.g.
// shirou/gopsutil) appears anywhere in the retrieved corpus. No separate
// physical core count is read: the "physical cores" figure repeats the
// logical count from runtime.NumCPU().
func CurrentNodeInfo() shared.NodeInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	logical := runtime.NumCPU()

	used, total := memoryUsageKB()
	var pct float64
	if total > 0 {
		pct = float64(used) / float64(total) * 100
	}

	return shared.NodeInfo{
		Hostname: hostname,
		Platform: runtime.GOOS,
		CPU:      fmt.Sprintf("%d logical cores, %d physical cores", logical, logical),
		RAM:      fmt.Sprintf("%d KB used of %d KB total (%.2f %%)", used, total, pct),
	}
}
