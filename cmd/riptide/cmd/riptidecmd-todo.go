// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/riptide/pkg/app"
	"github.com/wavetermdev/riptide/pkg/fuzzy"
	"github.com/wavetermdev/riptide/pkg/twidget"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "todo list with fuzzy filtering (type to filter, enter toggles)",
	RunE:  runTodoCmd,
}

func init() {
	demoCmd.AddCommand(todoCmd)
}

type todoItem struct {
	text string
	done bool
}

// todoModel is loop-owned state: handlers and the view both run on the app
// loop, so no locking is needed.
type todoModel struct {
	app   *app.App
	items []todoItem
	query string
	// visible maps the filtered list position back to the items index; it
	// is rebuilt by every view pass, so press events always resolve
	// against the list the user is looking at
	visible []int
}

func makeTodoModel(a *app.App) *todoModel {
	return &todoModel{
		app: a,
		items: []todoItem{
			{text: "water the plants"},
			{text: "fix the leaking faucet"},
			{text: "write trip report"},
			{text: "renew passport"},
			{text: "plan the team offsite"},
			{text: "review pull requests"},
			{text: "back up the photo library"},
			{text: "clean the garage"},
		},
	}
}

func trimLastRune(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}

func (m *todoModel) handleKey(event twidget.Event) {
	key := event.Key
	switch {
	case key == "Backspace":
		m.query = trimLastRune(m.query)
	case key == "Esc":
		m.query = ""
	case utf8.RuneCountInString(key) == 1:
		m.query += key
	default:
		return
	}
	m.app.Refresh()
}

func (m *todoModel) handlePress(event twidget.Event) {
	if event.Index < 0 || event.Index >= len(m.visible) {
		return
	}
	itemIdx := m.visible[event.Index]
	m.items[itemIdx].done = !m.items[itemIdx].done
	m.app.Refresh()
}

func (m *todoModel) view() *vdom.Elem {
	texts := make([]string, len(m.items))
	for idx, item := range m.items {
		texts[idx] = item.text
	}
	matches := fuzzy.MatchList(m.query, texts)
	m.visible = m.visible[:0]
	listItems := make([]string, 0, len(matches))
	for _, match := range matches {
		m.visible = append(m.visible, match.Index)
		marker := "[ ]"
		if m.items[match.Index].done {
			marker = "[x]"
		}
		listItems = append(listItems, fmt.Sprintf("%s %s", marker, match.Text))
	}
	title := "todo"
	if m.query != "" {
		title = fmt.Sprintf("todo (filter: %s)", m.query)
	}
	return vdom.E("box",
		vdom.P("border", true),
		vdom.P("title", "riptide todo"),
		vdom.E("list",
			vdom.P("top", "1"), vdom.P("left", "2"), vdom.P("width", "70%"), vdom.P("height", "70%"),
			vdom.P("border", true),
			vdom.P("title", title),
			vdom.P("items", listItems),
			vdom.P("selectedstyle", map[string]any{"reverse": true}),
			vdom.P("onKey", m.handleKey),
			vdom.P("onPress", m.handlePress),
		),
		vdom.E("text",
			vdom.P("top", "90%"), vdom.P("left", "2"),
			vdom.P("content", "type to filter / backspace deletes / esc clears / enter toggles"),
		),
	)
}

func runTodoCmd(cmd *cobra.Command, args []string) error {
	return runApp(app.AppOpts{Devtools: demoDevtools}, func(a *app.App) (func(), error) {
		model := makeTodoModel(a)
		a.Render(model.view)
		return nil, nil
	})
}
