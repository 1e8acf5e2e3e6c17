// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"github.com/wavetermdev/riptide/pkg/app"
	"github.com/wavetermdev/riptide/pkg/util/utilfn"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

const (
	cmdpaneMaxLines = 500
	cmdpaneTermRows = 24
	cmdpaneTermCols = 80
)

var cmdpaneCmd = &cobra.Command{
	Use:   "cmdpane [command] [args...]",
	Short: "stream a command's output into a live pane",
	RunE:  runCmdpaneCmd,
}

func init() {
	demoCmd.AddCommand(cmdpaneCmd)
}

// cmdpaneModel buffers output lines. The pty reader goroutine appends while
// the view runs on the app loop, so the buffer is the one shared thing.
type cmdpaneModel struct {
	app     *app.App
	cmdline string

	lock   sync.Mutex
	lines  []string
	exited bool
}

func (m *cmdpaneModel) appendLine(line string) {
	m.lock.Lock()
	m.lines = append(m.lines, line)
	if len(m.lines) > cmdpaneMaxLines {
		m.lines = m.lines[len(m.lines)-cmdpaneMaxLines:]
	}
	m.lock.Unlock()
	m.app.Refresh()
}

func (m *cmdpaneModel) markExited() {
	m.lock.Lock()
	m.exited = true
	m.lock.Unlock()
	m.app.Refresh()
}

func (m *cmdpaneModel) view() *vdom.Elem {
	m.lock.Lock()
	lines := append([]string(nil), m.lines...)
	exited := m.exited
	m.lock.Unlock()
	_, rows := m.app.Screen().Size()
	viewRows := rows - 4
	if viewRows < 3 {
		viewRows = 3
	}
	if len(lines) > viewRows {
		lines = lines[len(lines)-viewRows:]
	}
	title := fmt.Sprintf("cmdpane: %s", m.cmdline)
	if exited {
		title = title + " [process exited]"
	}
	return vdom.E("box",
		vdom.P("border", true),
		vdom.P("title", title),
		vdom.E("text",
			vdom.P("top", "1"), vdom.P("left", "2"),
			vdom.P("width", "95%"), vdom.P("height", fmt.Sprintf("%d", viewRows)),
			vdom.P("content", strings.Join(lines, "\n")),
		),
	)
}

func startPaneCmd(args []string) (*exec.Cmd, *os.File, error) {
	if len(args) == 0 {
		args = []string{"sh", "-c", "while true; do date; sleep 1; done"}
	}
	ecmd := exec.Command(args[0], args[1:]...)
	ecmd.Env = os.Environ()
	cmdPty, cmdTty, err := pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening new pty: %w", err)
	}
	pty.Setsize(cmdPty, &pty.Winsize{Rows: cmdpaneTermRows, Cols: cmdpaneTermCols})
	ecmd.Stdin = cmdTty
	ecmd.Stdout = cmdTty
	ecmd.Stderr = cmdTty
	ecmd.SysProcAttr = &syscall.SysProcAttr{}
	ecmd.SysProcAttr.Setsid = true
	ecmd.SysProcAttr.Setctty = true
	err = ecmd.Start()
	cmdTty.Close()
	if err != nil {
		cmdPty.Close()
		return nil, nil, err
	}
	return ecmd, cmdPty.(*os.File), nil
}

func runCmdpaneCmd(cmd *cobra.Command, args []string) error {
	return runApp(app.AppOpts{Devtools: demoDevtools}, func(a *app.App) (func(), error) {
		ecmd, cmdPty, err := startPaneCmd(args)
		if err != nil {
			return nil, err
		}
		model := &cmdpaneModel{app: a, cmdline: strings.Join(ecmd.Args, " ")}
		go func() {
			// ignore error (/dev/ptmx has read error when process is done)
			utilfn.StreamToLines(cmdPty, func(line []byte) {
				model.appendLine(string(line))
			})
			model.markExited()
		}()
		a.Render(model.view)
		cleanupFn := func() {
			ecmd.Process.Kill()
			cmdPty.Close()
			ecmd.Wait()
		}
		return cleanupFn, nil
	})
}
