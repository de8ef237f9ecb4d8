// Package ui implements the interactive progress view for sync runs.
//
// The bubbletea [Model] consumes the engine's progress channel and renders a
// spinner, a download progress bar, and the final run summary. Keyboard input
// is limited to cancelling the run and quitting; all actual work happens in
// the engine goroutine feeding the channels.
package ui
