// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for browsing music providers:
//  1. [SearchView] : Type a keyword and pick a source with tab
//  2. [ResultsView] : Browse the normalized search results
//  3. [DetailView] : Read lyrics, playback metadata and hot comments, save to the library
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Lyrics, extra metadata and comments are requested as separate commands so each section renders as soon as it arrives.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, o, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
