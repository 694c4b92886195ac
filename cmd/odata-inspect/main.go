// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command odata-inspect replays a fixed demo call script against a real
// writer.Writer and shows the resulting hook-call trace: a scrolling
// bubbletea view when stdout is a terminal, a plain line-per-event dump
// otherwise.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/AntiGuideAkquinet/odata.net/internal/writertest"
)

func main() {
	rec := &writertest.Recorder{}
	if err := runDemoScript(context.Background(), rec); err != nil {
		fmt.Fprintln(os.Stderr, "odata-inspect: script failed:", err)
		os.Exit(1)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		for i, e := range rec.Events {
			fmt.Printf("%3d  %-36s type=%-10s link=%-10s url=%s\n", i, e.Name, e.Type, e.Link, e.URL)
		}
		return
	}

	p := tea.NewProgram(newTraceModel(rec.Events))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "odata-inspect: tui failed:", err)
		os.Exit(1)
	}
}
