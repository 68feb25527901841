package alerter

import (
	"os"
	"strconv"
	"strings"
)

// memoryUsageKB reads /proc/meminfo for a used/total KB snapshot. Returns
// (0, 0) when unavailable (non-Linux), in which case the RAM string in
// CurrentNodeInfo degrades to "0 KB used of 0 KB total (0.00 %)" rather
// than failing the alert dispatch.
func memoryUsageKB() (used, total int64) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, 0
	}

	var totalKB, availableKB int64
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, _ = strconv.ParseInt(fields[1], 10, 64)
		case "MemAvailable:":
			availableKB, _ = strconv.ParseInt(fields[1], 10, 64)
		}
	}

	return totalKB - availableKB, totalKB
}
