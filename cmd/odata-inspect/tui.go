// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AntiGuideAkquinet/odata.net/internal/writertest"
)

var (
	hookStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// traceModel is a scrollable list of the hook calls one writer run produced.
type traceModel struct {
	events  []writertest.Event
	cursor  int
	height  int
}

func newTraceModel(events []writertest.Event) traceModel {
	return traceModel{events: events, height: 20}
}

func (m traceModel) Init() tea.Cmd { return nil }

func (m traceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "down", "j":
			if m.cursor < len(m.events)-1 {
				m.cursor++
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		}
	}
	return m, nil
}

func (m traceModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "odata-inspect: %d hook calls\n\n", len(m.events))
	for i, e := range m.events {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%3d  %-36s", i, e.Name)
		b.WriteString(prefix + hookStyle.Render(line) + detailStyle.Render(detail(e)))
		b.WriteByte('\n')
	}
	b.WriteString(helpStyle.Render("↑/↓ to move, q to quit"))
	return b.String()
}

func detail(e writertest.Event) string {
	var parts []string
	if e.Type != "" {
		parts = append(parts, "type="+e.Type)
	}
	if e.Link != "" {
		parts = append(parts, "link="+e.Link)
	}
	if e.URL != "" {
		parts = append(parts, "url="+e.URL)
	}
	return strings.Join(parts, " ")
}
