// Package hoststats periodically samples host CPU and memory usage,
// logging it at DEBUG level, in the style of the driver CLI's resource
// readout panel.
package hoststats

import (
	"context"
	"time"

	psutil "github.com/shirou/gopsutil/v3/cpu"
	psmem "github.com/shirou/gopsutil/v3/mem"

	"simalign/internal/logging"
)

// Run samples host resource usage every period until ctx is cancelled,
// logging each sample at DEBUG. A zero or negative period disables
// sampling entirely; callers gate this on the -host-metrics flag.
func Run(ctx context.Context, period time.Duration, log *logging.Logger) {
	if period <= 0 || log == nil {
		return
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample(log)
		}
	}
}

func sample(log *logging.Logger) {
	cpuPercent, err := psutil.Percent(0, false)
	if err != nil || len(cpuPercent) == 0 {
		log.Warn("hoststats: cpu sample failed: %v", err)
		return
	}
	memInfo, err := psmem.VirtualMemory()
	if err != nil {
		log.Warn("hoststats: memory sample failed: %v", err)
		return
	}
	log.Debug("host stats: cpu=%.1f%% mem=%.1f%% mem_used=%d MiB", cpuPercent[0], memInfo.UsedPercent, memInfo.Used/(1024*1024))
}
