// Package metrics collects runtime and chain measurements and ships
// them to InfluxDB when reporting is enabled.
package metrics

import (
	"os"
	"runtime"
	"strings"
	"time"
)

// Enabled is checked by the constructor functions for all of the
// standard metrics. If it is true, the metric returned is a stub.
//
// This global kill-switch helps quantify the observer effect and makes
// for less cluttered pprof profiles.
var Enabled = false

// enablerFlags is the CLI flag names to use to enable metrics collections.
var enablerFlags = []string{"metrics"}

func init() {
	for _, arg := range os.Args {
		flag := strings.TrimLeft(arg, "-")
		for _, enabler := range enablerFlags {
			if !Enabled && flag == enabler {
				Enabled = true
			}
		}
	}
}

// CollectProcessMetrics periodically collects various metrics about the
// running process.
func CollectProcessMetrics(refresh time.Duration) {
	// Short circuit if the metrics system is disabled
	if !Enabled {
		return
	}
	refreshFreq := int64(refresh / time.Second)

	// Define the various metrics to collect
	var (
		cpuSysLoad    = GetOrRegisterGauge("system/cpu/sysload", DefaultRegistry)
		cpuSysWait    = GetOrRegisterGauge("system/cpu/syswait", DefaultRegistry)
		cpuProcLoad   = GetOrRegisterGauge("system/cpu/procload", DefaultRegistry)
		cpuGoroutines = GetOrRegisterGauge("system/cpu/goroutines", DefaultRegistry)

		memAllocs = GetOrRegisterCounter("system/memory/allocs", DefaultRegistry)
		memFrees  = GetOrRegisterCounter("system/memory/frees", DefaultRegistry)
		memHeld   = GetOrRegisterGauge("system/memory/held", DefaultRegistry)
		memUsed   = GetOrRegisterGauge("system/memory/used", DefaultRegistry)
		memPauses = GetOrRegisterCounter("system/memory/pauses", DefaultRegistry)
	)
	var (
		prevCPU, curCPU CPUStats
		prevMem, curMem runtime.MemStats
	)
	// Iterate loading the different stats and updating the meters
	for ; ; time.Sleep(refresh) {
		ReadCPUStats(&curCPU)
		cpuSysLoad.Update((curCPU.GlobalTime - prevCPU.GlobalTime) / refreshFreq)
		cpuSysWait.Update((curCPU.GlobalWait - prevCPU.GlobalWait) / refreshFreq)
		cpuProcLoad.Update((curCPU.LocalTime - prevCPU.LocalTime) / refreshFreq)
		cpuGoroutines.Update(int64(runtime.NumGoroutine()))
		prevCPU = curCPU

		runtime.ReadMemStats(&curMem)
		memAllocs.Inc(int64(curMem.Mallocs - prevMem.Mallocs))
		memFrees.Inc(int64(curMem.Frees - prevMem.Frees))
		memPauses.Inc(int64(curMem.PauseTotalNs - prevMem.PauseTotalNs))
		memHeld.Update(int64(curMem.HeapSys - curMem.HeapReleased))
		memUsed.Update(int64(curMem.Alloc))
		prevMem = curMem
	}
}
