package main

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"frost/internal/diag"
	"frost/internal/schema"
	"frost/internal/session"
	"frost/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Relint files as they change",
	Long:  `Watch the given files or directories and relint a file whenever it is modified, showing live per-file results. Press q to stop`,
	RunE:  runWatch,
}

const watchPollInterval = 500 * time.Millisecond

func runWatch(cmd *cobra.Command, args []string) error {
	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	files, err := collectInputs(args)
	if err != nil {
		return err
	}

	ws := session.New(schema.NewRegistry(inv.snapshot), inv.config)
	events := make(chan ui.Event, 16)
	done := make(chan struct{})
	go watchLoop(ws, files, events, done)

	p := tea.NewProgram(ui.NewWatchModel("frost watch", files, events))
	_, err = p.Run()
	close(done)
	return err
}

// watchLoop seeds an initial lint of every file and then polls mod
// times, relinting what changed. It stops when done closes.
func watchLoop(ws *session.Workspace, files []string, events chan<- ui.Event, done <-chan struct{}) {
	send := func(ev ui.Event) bool {
		select {
		case events <- ev:
			return true
		case <-done:
			return false
		}
	}

	relint := func(path string) bool {
		if !send(ui.Event{Path: path, Status: ui.StatusLinting}) {
			return false
		}
		if err := ws.OpenFile(path); err != nil {
			return send(ui.Event{Path: path, Status: ui.StatusFailed})
		}
		ds, err := ws.Lint(context.Background(), path)
		if err != nil {
			return send(ui.Event{Path: path, Status: ui.StatusFailed})
		}
		if rev, ok := ws.Revision(path); ok && rev.ParseErr != nil {
			return send(ui.Event{Path: path, Status: ui.StatusFailed})
		}

		errs, warns := 0, 0
		for _, d := range ds {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
		status := ui.StatusClean
		if errs+warns > 0 {
			status = ui.StatusIssues
		}
		return send(ui.Event{Path: path, Status: status, Errors: errs, Warnings: warns})
	}

	modTimes := make(map[string]time.Time)
	for _, path := range files {
		if info, err := os.Stat(path); err == nil {
			modTimes[path] = info.ModTime()
		}
		if !relint(path) {
			return
		}
	}

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for _, path := range files {
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if info.ModTime() != modTimes[path] {
					modTimes[path] = info.ModTime()
					if !relint(path) {
						return
					}
				}
			}
		}
	}
}
