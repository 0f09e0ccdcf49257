/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/davidxarnold/vantage/pkg/resolve"
)

const ctlC = "<C-c>"

// newLiveCmd provides the auto-refreshing terminal view.
func newLiveCmd(vc *VantageConfig) *cobra.Command {
	var refreshInterval time.Duration

	cmd := &cobra.Command{
		Use:           "live",
		Short:         "Live view of the cluster's cloud resources.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterContext, err := vc.ClusterContext()
			if err != nil {
				return err
			}

			resolver, err := vc.NewResolver()
			if err != nil {
				return err
			}

			return runLive(resolver, clusterContext, refreshInterval)
		},
	}

	cmd.Flags().DurationVar(
		&refreshInterval, "refresh-interval", 30*time.Second,
		"Interval between automatic refreshes")
	_ = viper.BindPFlag("refresh-interval", cmd.Flags().Lookup("refresh-interval"))

	return cmd
}

// liveView holds the termui widgets for the live display.
type liveView struct {
	status    *widgets.Paragraph
	menuBar   *widgets.Paragraph
	instances *widgets.Table
	subnets   *widgets.Table
	bindings  *widgets.Table
}

func runLive(resolver *resolve.Resolver, clusterContext string, refreshInterval time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize termui: %w", err)
	}
	defer ui.Close()

	view := &liveView{
		status:    widgets.NewParagraph(),
		menuBar:   widgets.NewParagraph(),
		instances: widgets.NewTable(),
		subnets:   widgets.NewTable(),
		bindings:  widgets.NewTable(),
	}
	view.status.Title = "Resolution"
	view.status.BorderStyle = ui.NewStyle(ui.ColorCyan)
	view.menuBar.Border = false
	view.menuBar.Text = "[r](fg:cyan) refresh  [R](fg:cyan) retry with cleared credentials  [x](fg:cyan) restart  [q](fg:cyan) quit"
	for _, tbl := range []*widgets.Table{view.instances, view.subnets, view.bindings} {
		tbl.TextStyle = ui.NewStyle(ui.ColorWhite)
		tbl.BorderStyle = ui.NewStyle(ui.ColorCyan)
		tbl.RowSeparator = false
		tbl.FillRow = true
	}
	view.instances.Title = "Compute Instances"
	view.subnets.Title = "Subnets"
	view.bindings.Title = "Workload Identity Bindings"

	ctx := context.Background()
	updates := make(chan struct{}, 1)
	notify := func() {
		select {
		case updates <- struct{}{}:
		default:
			// Update already pending.
		}
	}

	kick := func(retry bool) {
		go func() {
			if retry {
				resolver.RetryWithClearedCredentials(ctx, clusterContext)
			} else {
				resolver.Refresh(ctx, clusterContext)
			}
			notify()
		}()
	}

	kick(false)
	view.draw(resolver.State())

	uiEvents := ui.PollEvents()
	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()
	// Redraw periodically so intermediate pipeline phases are visible.
	renderTicker := time.NewTicker(time.Second)
	defer renderTicker.Stop()

	for {
		select {
		case e := <-uiEvents:
			switch e.ID {
			case "q", ctlC:
				return nil
			case "r":
				kick(false)
			case "R":
				kick(true)
			case "x":
				if err := restartProcess(); err != nil {
					log.Errorf("Failed to restart: %v", err)
				}
			case "<Resize>":
				view.draw(resolver.State())
			}

		case <-refreshTicker.C:
			kick(false)

		case <-renderTicker.C:
			view.draw(resolver.State())

		case <-updates:
			view.draw(resolver.State())
		}
	}
}

func (v *liveView) draw(s resolve.State) {
	termWidth, termHeight := ui.TerminalDimensions()

	v.status.Text = statusText(s)
	v.status.SetRect(0, 0, termWidth, 7)
	v.menuBar.SetRect(0, termHeight-1, termWidth, termHeight)

	v.instances.Rows = instanceRows(s)
	v.subnets.Rows = subnetRows(s)
	v.bindings.Rows = bindingRows(s)

	// Stack the three tables over the space between status and menu.
	top, bottom := 7, termHeight-1
	third := (bottom - top) / 3
	v.instances.SetRect(0, top, termWidth, top+third)
	v.subnets.SetRect(0, top+third, termWidth, top+2*third)
	v.bindings.SetRect(0, top+2*third, termWidth, bottom)

	ui.Render(v.status, v.instances, v.subnets, v.bindings, v.menuBar)
}

// statusText summarizes the pipeline state, including remediation hints and
// the tried candidate list on identity failures.
func statusText(s resolve.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Context: %s   Phase: ", s.ClusterContext)
	switch s.Phase {
	case resolve.PhaseReady:
		fmt.Fprintf(&b, "[%s](fg:green)", s.Phase)
	case resolve.PhaseError, resolve.PhaseUnauthenticated:
		fmt.Fprintf(&b, "[%s](fg:red)", s.Phase)
	default:
		fmt.Fprintf(&b, "[%s](fg:yellow)", s.Phase)
	}
	if s.Region != "" {
		fmt.Fprintf(&b, "   Region: %s", s.Region)
	}
	if s.Identity != nil && s.Identity.Cluster != nil {
		c := s.Identity.Cluster
		fmt.Fprintf(&b, "\nCluster: %s (v%s, %s)", c.Name, c.Version, c.Status)
	}
	if s.Vpc != nil {
		fmt.Fprintf(&b, "\nVPC: %s %s", s.Vpc.ID, s.Vpc.Cidr)
	}

	if s.Err != nil {
		fmt.Fprintf(&b, "\n[%v](fg:red)", s.Err)
		if tried := triedCandidates(s.Err); tried != nil {
			fmt.Fprintf(&b, "\nTried: %s", strings.Join(tried, ", "))
		}
		if s.Remediable() {
			b.WriteString("\nCredentials expired or invalid: press R to retry, x to restart.")
		}
	}

	if !s.LastUpdate.IsZero() {
		fmt.Fprintf(&b, "\nLast update: %s", s.LastUpdate.Format("15:04:05"))
	}
	return b.String()
}

func instanceRows(s resolve.State) [][]string {
	if msg := s.CategoryErrors[resolve.CategoryInstances]; msg != "" {
		return [][]string{{"unavailable: " + msg}}
	}
	rows := [][]string{{"Instance", "Name", "Type", "State", "Private IP", "Node"}}
	for _, inst := range s.Instances {
		rows = append(rows, []string{inst.ID, inst.Name, inst.Type, inst.State, inst.PrivateIP, inst.MappedNode})
	}
	return rows
}

func subnetRows(s resolve.State) [][]string {
	if msg := s.CategoryErrors[resolve.CategorySubnets]; msg != "" {
		return [][]string{{"unavailable: " + msg}}
	}
	rows := [][]string{{"Subnet", "CIDR", "Zone", "Free IPs"}}
	for _, sn := range s.Subnets {
		rows = append(rows, []string{sn.ID, sn.Cidr, sn.Zone, fmt.Sprintf("%d", sn.AvailableIPs)})
	}
	return rows
}

func bindingRows(s resolve.State) [][]string {
	if msg := s.CategoryErrors[resolve.CategoryBindings]; msg != "" {
		return [][]string{{"unavailable: " + msg}}
	}
	rows := [][]string{{"Namespace", "Service Account", "Role"}}
	for _, b := range s.Bindings {
		rows = append(rows, []string{b.Namespace, b.ServiceAccount, b.RoleArn})
	}
	return rows
}
