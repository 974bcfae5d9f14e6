package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/sert-editor/sert/pkg/logging"
	"github.com/sert-editor/sert/pkg/picker"
	"github.com/sert-editor/sert/pkg/store"
)

func registerFiles(r *Registry, d Deps) {
	log := d.Logger

	r.RegisterCommand("read_file", func(c *Context) error {
		path, err := c.Arg("path")
		if err != nil {
			return err
		}
		log.DebugCat(logging.CatIO, "Reading file: %s", path)
		data, err := os.ReadFile(path)
		if err != nil {
			msg := fmt.Errorf("Failed to read file '%s': %v", path, err)
			log.WarnCat(logging.CatIO, "%v", msg)
			return msg
		}
		c.SetResult(string(data))
		return nil
	})

	r.RegisterCommand("write_file", func(c *Context) error {
		path, err := c.Arg("path")
		if err != nil {
			return err
		}
		content, err := c.Arg("content")
		if err != nil {
			return err
		}
		log.DebugCat(logging.CatIO, "Writing file: %s (%d bytes)", path, len(content))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			msg := fmt.Errorf("Failed to write file '%s': %v", path, err)
			log.WarnCat(logging.CatIO, "%v", msg)
			return msg
		}
		return nil
	})

	r.RegisterCommand("open_folder", func(c *Context) error {
		path, err := c.Arg("path")
		if err != nil {
			return err
		}
		if d.Opener == nil {
			return unavailable("folder opening", nil)
		}
		if err := d.Opener.OpenFolder(c, path); err != nil {
			return fmt.Errorf("Failed to open folder '%s': %v", path, err)
		}
		return nil
	})

	pick := func(name string, show func(Picker, picker.Options) (string, error)) {
		r.RegisterCommand(name, func(c *Context) error {
			if d.Picker == nil {
				return unavailable("file dialog", nil)
			}
			var opts picker.Options
			var err error
			if opts.Title, err = c.OptionalArg("title"); err != nil {
				return err
			}
			if opts.StartDir, err = c.OptionalArg("start_dir"); err != nil {
				return err
			}
			path, err := show(d.Picker, opts)
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}
			c.SetResult(path)
			return nil
		})
	}
	pick("pick_open_file", Picker.OpenFile)
	pick("pick_save_file", Picker.SaveFile)
	pick("pick_folder", Picker.Folder)

	r.RegisterCommand("watch_file", func(c *Context) error {
		path, err := c.Arg("path")
		if err != nil {
			return err
		}
		if d.Watcher == nil {
			return unavailable("file watching", nil)
		}
		return d.Watcher.Watch(path)
	})

	r.RegisterCommand("unwatch_file", func(c *Context) error {
		path, err := c.Arg("path")
		if err != nil {
			return err
		}
		if d.Watcher == nil {
			return unavailable("file watching", nil)
		}
		return d.Watcher.Unwatch(path)
	})

	r.RegisterCommand("list_recent_files", func(c *Context) error {
		if d.Store == nil {
			return unavailable("recent files", nil)
		}
		files, err := d.Store.RecentFiles()
		if err != nil {
			return err
		}
		c.SetResult(files)
		return nil
	})

	r.RegisterCommand("add_recent_file", func(c *Context) error {
		path, err := c.Arg("path")
		if err != nil {
			return err
		}
		if d.Store == nil {
			return unavailable("recent files", nil)
		}
		files, err := d.Store.AddRecentFile(path)
		if err != nil {
			return err
		}
		c.SetResult(files)
		return nil
	})

	r.RegisterCommand("clear_recent_files", func(c *Context) error {
		if d.Store == nil {
			return unavailable("recent files", nil)
		}
		return d.Store.ClearRecentFiles()
	})

	r.RegisterCommand("get_preferences", func(c *Context) error {
		if d.Store == nil {
			return unavailable("preferences", nil)
		}
		all, err := d.Store.Preferences()
		if err != nil {
			return err
		}
		c.SetResult(all)
		return nil
	})

	r.RegisterCommand("get_preference", func(c *Context) error {
		key, err := c.Arg("key")
		if err != nil {
			return err
		}
		if d.Store == nil {
			return unavailable("preferences", nil)
		}
		value, err := d.Store.GetPreference(key)
		if errors.Is(err, store.ErrNotFound) {
			c.SetResult(nil)
			return nil
		}
		if err != nil {
			return err
		}
		c.SetResult(value)
		return nil
	})

	r.RegisterCommand("set_preference", func(c *Context) error {
		key, err := c.Arg("key")
		if err != nil {
			return err
		}
		value, err := c.Raw("value")
		if err != nil {
			return err
		}
		if d.Store == nil {
			return unavailable("preferences", nil)
		}
		return d.Store.SetPreference(key, value)
	})
}
