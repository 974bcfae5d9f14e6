package menu

import "fyne.io/fyne/v2"

func toFyneMenu(m Menu, action func(id string)) *fyne.Menu {
	items := make([]*fyne.MenuItem, 0, len(m.Items))
	for _, it := range m.Items {
		if it.IsSeparator() {
			items = append(items, fyne.NewMenuItemSeparator())
			continue
		}
		id := it.ID
		mi := fyne.NewMenuItem(it.Label, func() { action(id) })
		mi.IsQuit = it.Quit
		items = append(items, mi)
	}
	return fyne.NewMenu(m.Label, items...)
}

// MainMenu renders menus as a window main menu.
func MainMenu(menus []Menu, action func(id string)) *fyne.MainMenu {
	top := make([]*fyne.Menu, 0, len(menus))
	for _, m := range menus {
		top = append(top, toFyneMenu(m, action))
	}
	return fyne.NewMainMenu(top...)
}

// TrayMenu renders menus as one system tray menu with a submenu per top-level
// menu.
func TrayMenu(menus []Menu, action func(id string)) *fyne.Menu {
	items := make([]*fyne.MenuItem, 0, len(menus))
	for _, m := range menus {
		sub := toFyneMenu(m, action)
		mi := fyne.NewMenuItem(m.Label, nil)
		mi.ChildMenu = sub
		items = append(items, mi)
	}
	return fyne.NewMenu(AppName, items...)
}
