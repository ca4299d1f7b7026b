// Package ui implements an interactive terminal map surface using bubbletea's Elm architecture.
//
// The TUI is a set of views over the shared marker store:
//  1. [MarkerListView] : Browse markers with their category colour, address, rating and open state
//  2. [InputView] : Ask a question, paste text to extract from, search one place or name a list to save
//  3. [ConfirmClearView] : Confirm removing every marker
//  4. [ProgressView] : Monitor a pipeline run as it resolves places
//  5. [ResultView] : Added places and the consolidated "could not find" notice
//  6. [ListsView] : Load or delete saved lists
//  7. [ViewportView] : The centre and zoom a map would use to frame the markers
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the Pipeline, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
