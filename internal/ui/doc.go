// Package ui renders checklists, accounts and progress for the terminal.
//
// Output is styled with lipgloss. Styles degrade to plain text when the output is not a terminal,
// so the same renderers are used for piped output and tests.
package ui
