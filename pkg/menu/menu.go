// Package menu holds the native menu tree and maps menu item ids to front-end
// script.
package menu

import (
	"fmt"
	"runtime"
	"sync"
)

// Item is a leaf of the menu tree. A zero ID marks a separator.
type Item struct {
	ID       string `json:"id,omitempty"`
	Label    string `json:"label,omitempty"`
	Shortcut string `json:"shortcut,omitempty"`
	Quit     bool   `json:"quit,omitempty"`
}

// IsSeparator reports whether the item is a separator line.
func (i Item) IsSeparator() bool {
	return i.ID == ""
}

// Menu is a top-level menu.
type Menu struct {
	Label string `json:"label"`
	Items []Item `json:"items"`
}

// Menu item ids.
const (
	IDAbout = "about"
	IDQuit  = "quit"

	IDNew    = "new"
	IDOpen   = "open"
	IDSave   = "save"
	IDSaveAs = "save_as"
	IDExit   = "exit"

	IDUndo      = "undo"
	IDRedo      = "redo"
	IDCut       = "cut"
	IDCopy      = "copy"
	IDPaste     = "paste"
	IDSelectAll = "select_all"
	IDFind      = "find"
	IDReplace   = "replace"

	IDFontSettings  = "font_settings"
	IDTheme         = "theme"
	IDWhitespace    = "whitespace"
	IDTypewriter    = "typewriter"
	IDLineHighlight = "line_highlight"

	IDLanguage   = "language"
	IDExtensions = "extensions"
)

// AppName labels the macOS application menu.
const AppName = "Sert"

var scripts = map[string]string{
	IDQuit: "exitApp()",

	IDNew:    "newFile()",
	IDOpen:   "openFile()",
	IDSave:   "saveFile()",
	IDSaveAs: "saveAsFile()",
	IDExit:   "exitApp()",

	IDUndo:      "undo()",
	IDRedo:      "redo()",
	IDCut:       "cut()",
	IDCopy:      "copy()",
	IDPaste:     "paste()",
	IDSelectAll: "selectAll()",
	IDFind:      "showSearchDialog()",
	IDReplace:   "showReplaceDialog()",

	IDFontSettings:  "showFontSettingsDialog()",
	IDTheme:         "showThemeDialog()",
	IDWhitespace:    "toggleWhitespaceVisualization()",
	IDTypewriter:    "toggleTypewriterMode()",
	IDLineHighlight: "toggleLineHighlight()",

	IDLanguage:   "showLanguageSettingsDialog()",
	IDExtensions: "showExtensionSettingsDialog()",
}

// Script returns the front-end script bound to id.
func Script(id string) (string, bool) {
	s, ok := scripts[id]
	return s, ok
}

// Wrap guards script so a missing front-end hook is reported on the console
// instead of throwing.
func Wrap(id, script string) string {
	return fmt.Sprintf("try { %s; } catch (e) { console.error('Menu action %s failed:', e); }", script, id)
}

var separator = Item{}

// Build assembles the menu tree for goos.
func Build(goos string) []Menu {
	var menus []Menu

	if goos == "darwin" {
		menus = append(menus, Menu{
			Label: AppName,
			Items: []Item{
				{ID: IDAbout, Label: "About " + AppName},
				separator,
				{ID: IDQuit, Label: "Quit " + AppName, Shortcut: "CmdOrCtrl+Q", Quit: true},
			},
		})
	}

	file := Menu{
		Label: "File",
		Items: []Item{
			{ID: IDNew, Label: "New", Shortcut: "CmdOrCtrl+N"},
			{ID: IDOpen, Label: "Open...", Shortcut: "CmdOrCtrl+O"},
			separator,
			{ID: IDSave, Label: "Save", Shortcut: "CmdOrCtrl+S"},
			{ID: IDSaveAs, Label: "Save As...", Shortcut: "CmdOrCtrl+Shift+S"},
		},
	}
	if goos != "darwin" {
		file.Items = append(file.Items, separator, Item{ID: IDExit, Label: "Exit", Quit: true})
	}

	menus = append(menus,
		file,
		Menu{
			Label: "Edit",
			Items: []Item{
				{ID: IDUndo, Label: "Undo", Shortcut: "CmdOrCtrl+Z"},
				{ID: IDRedo, Label: "Redo", Shortcut: "CmdOrCtrl+Y"},
				separator,
				{ID: IDCut, Label: "Cut", Shortcut: "CmdOrCtrl+X"},
				{ID: IDCopy, Label: "Copy", Shortcut: "CmdOrCtrl+C"},
				{ID: IDPaste, Label: "Paste", Shortcut: "CmdOrCtrl+V"},
				{ID: IDSelectAll, Label: "Select All", Shortcut: "CmdOrCtrl+A"},
				separator,
				{ID: IDFind, Label: "Find...", Shortcut: "CmdOrCtrl+F"},
				{ID: IDReplace, Label: "Replace...", Shortcut: "CmdOrCtrl+H"},
			},
		},
		Menu{
			Label: "View",
			Items: []Item{
				{ID: IDFontSettings, Label: "Font Settings..."},
				{ID: IDTheme, Label: "Theme..."},
				separator,
				{ID: IDWhitespace, Label: "Show Whitespace"},
				{ID: IDTypewriter, Label: "Typewriter Mode"},
				{ID: IDLineHighlight, Label: "Highlight Current Line"},
			},
		},
		Menu{
			Label: "Settings",
			Items: []Item{
				{ID: IDLanguage, Label: "Language..."},
				{ID: IDExtensions, Label: "Extensions..."},
			},
		},
	)
	return menus
}

var (
	defaultOnce sync.Once
	defaultTree []Menu
)

// Default returns the tree for the running OS. It is assembled on first use
// and shared afterwards; callers must not modify it.
func Default() []Menu {
	defaultOnce.Do(func() {
		defaultTree = Build(runtime.GOOS)
	})
	return defaultTree
}
