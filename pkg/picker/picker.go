// Package picker shows native file and folder dialogs.
package picker

import (
	"errors"

	"github.com/sqweek/dialog"
)

// Options tunes a dialog. Empty fields use the platform defaults.
type Options struct {
	Title    string `json:"title"`
	StartDir string `json:"start_dir"`
}

// Dialogs opens native dialogs through sqweek/dialog.
type Dialogs struct{}

// New returns the native dialog picker.
func New() Dialogs {
	return Dialogs{}
}

func (Dialogs) fileBuilder(o Options, fallbackTitle string) *dialog.FileBuilder {
	b := dialog.File().Title(titleOr(o.Title, fallbackTitle))
	if o.StartDir != "" {
		b = b.SetStartDir(o.StartDir)
	}
	return b
}

// OpenFile asks for an existing file. Cancelling yields "".
func (d Dialogs) OpenFile(o Options) (string, error) {
	return cancelled(d.fileBuilder(o, "Open").Load())
}

// SaveFile asks for a destination file. Cancelling yields "".
func (d Dialogs) SaveFile(o Options) (string, error) {
	return cancelled(d.fileBuilder(o, "Save As").Save())
}

// Folder asks for a directory. Cancelling yields "".
func (Dialogs) Folder(o Options) (string, error) {
	b := dialog.Directory().Title(titleOr(o.Title, "Select Folder"))
	if o.StartDir != "" {
		b = b.SetStartDir(o.StartDir)
	}
	return cancelled(b.Browse())
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}

func cancelled(path string, err error) (string, error) {
	if errors.Is(err, dialog.ErrCancelled) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
