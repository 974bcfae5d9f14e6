package clipboard

import (
	"context"

	"fyne.io/fyne/v2"
)

// Toolkit uses the GUI toolkit's clipboard. fyne requires clipboard access on
// its main goroutine, so every call is marshalled there.
type Toolkit struct {
	cb fyne.Clipboard
	do func(func())
}

// NewToolkit wraps a fyne clipboard, typically fyne.App.Clipboard().
func NewToolkit(cb fyne.Clipboard) *Toolkit {
	return &Toolkit{cb: cb, do: fyne.DoAndWait}
}

// NewToolkitWith lets callers supply the main-goroutine trampoline.
func NewToolkitWith(cb fyne.Clipboard, do func(func())) *Toolkit {
	if do == nil {
		do = fyne.DoAndWait
	}
	return &Toolkit{cb: cb, do: do}
}

func (t *Toolkit) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var text string
	t.do(func() {
		text = t.cb.Content()
	})
	return text, nil
}

func (t *Toolkit) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.do(func() {
		t.cb.SetContent(text)
	})
	return nil
}
