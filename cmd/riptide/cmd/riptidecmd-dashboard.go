// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"
	"github.com/wavetermdev/riptide/pkg/app"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

const BytesPerGB = 1073741824
const dashboardSampleInterval = 1 * time.Second

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "live cpu and memory dashboard",
	RunE:  runDashboardCmd,
}

func init() {
	demoCmd.AddCommand(dashboardCmd)
}

type dashboardSample struct {
	CpuAll   float64
	PerCore  []float64
	MemUsed  float64
	MemTotal float64
}

func collectDashboardSample() dashboardSample {
	var sample dashboardSample
	if percentArr, err := cpu.Percent(0, false); err == nil && len(percentArr) > 0 {
		sample.CpuAll = percentArr[0]
	}
	if percentArr, err := cpu.Percent(0, true); err == nil {
		sample.PerCore = percentArr
	}
	if memData, err := mem.VirtualMemory(); err == nil {
		sample.MemUsed = float64(memData.Used) / BytesPerGB
		sample.MemTotal = float64(memData.Total) / BytesPerGB
	}
	return sample
}

func dashboardView(sample dashboardSample) *vdom.Elem {
	coreItems := make([]string, 0, len(sample.PerCore))
	for idx, pct := range sample.PerCore {
		coreItems = append(coreItems, fmt.Sprintf("core %-2d %5.1f%%", idx, pct))
	}
	memPercent := 0
	if sample.MemTotal > 0 {
		memPercent = int(sample.MemUsed / sample.MemTotal * 100)
	}
	return vdom.E("box",
		vdom.P("border", true),
		vdom.P("title", "riptide dashboard"),
		vdom.E("gauge",
			vdom.P("top", "1"), vdom.P("left", "2"), vdom.P("width", "60%"), vdom.P("height", "3"),
			vdom.P("percent", int(sample.CpuAll)),
			vdom.P("label", fmt.Sprintf("cpu %5.1f%%", sample.CpuAll)),
		),
		vdom.E("gauge",
			vdom.P("top", "4"), vdom.P("left", "2"), vdom.P("width", "60%"), vdom.P("height", "3"),
			vdom.P("percent", memPercent),
			vdom.P("label", fmt.Sprintf("mem %.1f / %.1f GB", sample.MemUsed, sample.MemTotal)),
		),
		vdom.E("list",
			vdom.P("top", "7"), vdom.P("left", "2"), vdom.P("width", "60%"), vdom.P("height", "40%"),
			vdom.P("border", true),
			vdom.P("title", "cores"),
			vdom.P("items", coreItems),
		),
	)
}

func dashboardSetup(a *app.App) (func(), error) {
	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(dashboardSampleInterval)
		defer ticker.Stop()
		for {
			sample := collectDashboardSample()
			// each tick installs a render closure over its own
			// immutable sample, so the sampler never shares state
			// with the loop
			a.Render(func() *vdom.Elem {
				return dashboardView(sample)
			})
			select {
			case <-ticker.C:
			case <-stopCh:
				return
			}
		}
	}()
	return func() { close(stopCh) }, nil
}

func runDashboardCmd(cmd *cobra.Command, args []string) error {
	return runApp(app.AppOpts{Devtools: demoDevtools}, dashboardSetup)
}
