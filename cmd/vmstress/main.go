package main

import (
	"fmt"
	"os"

	"github.com/Noamshabat1/Operating-Systems/utils"
	"github.com/Noamshabat1/Operating-Systems/virtualmemory"
)

// VMStressConfig holds the driver parameters.
type VMStressConfig struct {
	Pages         int    `json:"pages"`
	AccessDelayMs int    `json:"access_delay_ms"`
	SwapDelayMs   int    `json:"swap_delay_ms"`
	LogLevel      string `json:"log_level"`
}

// main sweeps writes across the virtual address space, far more pages
// than frames, then verifies every value survived its evictions.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <config_file>\n", os.Args[0])
		os.Exit(1)
	}

	config := utils.LoadConfig[VMStressConfig](os.Args[1])
	if config.Pages < 1 {
		config.Pages = 100
	}
	utils.InitLogger(config.LogLevel, "vmstress")

	pm := virtualmemory.NewSimulatedMemory()
	pm.SetDelays(config.AccessDelayMs, config.SwapDelayMs)
	manager := virtualmemory.NewManager(pm)
	manager.Initialize()

	stride := (1 << virtualmemory.VirtualAddressWidth) / config.Pages
	if stride < virtualmemory.PageSize {
		stride = virtualmemory.PageSize
	}

	utils.InfoLog.Info("Sweep starting", "pages", config.Pages, "stride", stride)

	for i := 0; i < config.Pages; i++ {
		va := uint64(i * stride)
		if manager.Write(va, virtualmemory.Word(i+1)) != 1 {
			utils.ErrorLog.Error("Write failed", "va", va)
			os.Exit(1)
		}
	}

	mismatches := 0
	for i := 0; i < config.Pages; i++ {
		va := uint64(i * stride)
		var value virtualmemory.Word
		if manager.Read(va, &value) != 1 {
			utils.ErrorLog.Error("Read failed", "va", va)
			os.Exit(1)
		}
		if value != virtualmemory.Word(i+1) {
			mismatches++
			utils.ErrorLog.Error("Value mismatch", "va", va, "got", value, "want", i+1)
		}
	}

	metrics := pm.Metrics()
	utils.InfoLog.Info("Sweep finished",
		"pages", config.Pages,
		"mismatches", mismatches,
		"reads", metrics.Reads,
		"writes", metrics.Writes,
		"restores", metrics.Restores,
		"evicts", metrics.Evicts)

	if mismatches > 0 {
		os.Exit(1)
	}
	fmt.Printf("verified %d pages, %d evictions\n", config.Pages, metrics.Evicts)
}
