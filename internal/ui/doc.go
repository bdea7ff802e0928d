// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for feed playback:
//  1. [LoginView] : Collect credentials and establish a session
//  2. [FeedView] : Render the current track with a live frequency visualizer
//  3. [QueueView] : Browse every fetched track and jump the playhead
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Playback state is polled on a short tick rather than pushed, keeping the
// engine free of any UI dependency. Mouse wheel and drag events are resolved
// to navigation intents by [gesture.Navigator] so the terminal behaves like
// the touch surface it stands in for.
//
// Keyboard navigation uses vim-style bindings (j/k, space, m, r, tab, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
