package commands

import (
	"fmt"

	"github.com/sert-editor/sert/pkg/logging"
)

func registerApp(r *Registry, d Deps) {
	log := d.Logger

	r.RegisterCommand("exit_app", func(c *Context) error {
		log.NoticeCat(logging.CatApp, "Exit requested by window %q", c.Window)
		d.Exit(0)
		return nil
	})

	r.RegisterCommand("read_clipboard", func(c *Context) error {
		if d.Clipboard == nil {
			return unavailable("clipboard", nil)
		}
		text, err := d.Clipboard.ReadText(c)
		if err != nil {
			return fmt.Errorf("Clipboard read failed: %v", err)
		}
		c.SetResult(text)
		return nil
	})

	r.RegisterCommand("write_clipboard", func(c *Context) error {
		text, err := c.Arg("text")
		if err != nil {
			return err
		}
		if d.Clipboard == nil {
			return unavailable("clipboard", nil)
		}
		log.DebugCat(logging.CatClipboard, "Writing %d characters to clipboard", len(text))
		if err := d.Clipboard.WriteText(c, text); err != nil {
			return fmt.Errorf("Clipboard write failed: %v", err)
		}
		return nil
	})

	r.RegisterCommand("handle_file_drop", func(c *Context) error {
		path, err := c.Arg("path")
		if err != nil {
			return err
		}
		if d.Router == nil {
			return unavailable("drop routing", nil)
		}
		decision, err := d.Router.Route(c, c.Window, path)
		if err != nil {
			return fmt.Errorf("Failed to open dropped file '%s': %v", path, err)
		}
		c.SetResult(decision)
		return nil
	})

	r.RegisterCommand("menu_click", func(c *Context) error {
		id, err := c.Arg("id")
		if err != nil {
			return err
		}
		if d.Menu == nil {
			return unavailable("menu", nil)
		}
		d.Menu.Dispatch(c, id)
		return nil
	})

	r.RegisterCommand("get_menu", func(c *Context) error {
		c.SetResult(d.Menus)
		return nil
	})

	r.RegisterCommand("get_startup_file", func(c *Context) error {
		c.SetResult(d.StartupFile)
		return nil
	})

	r.RegisterCommand("app_data_dir", func(c *Context) error {
		c.SetResult(d.AppDataDir)
		return nil
	})
}
