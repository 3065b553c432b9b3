// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two tabs:
//  1. [AccountsTab] : username and password fields; enter adds the account to the encrypted store.
//     The pool is listed alongside with each account's login state.
//  2. [PlaylistsTab] : account, name, description, playlist id and track URI fields with
//     create (ctrl+o), add song (ctrl+t) and play (ctrl+y) actions.
//
// Every action goes through a [Dispatcher] and runs off the event loop; the result arrives later as a
// [Msg] and is appended to the status log. Creating a playlist fills in the playlist id field.
// The password field is cleared as soon as the request is dispatched.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// Contextual help is displayed via charmbracelet/bubbles/help.
package ui
