//go:build gui

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metcalfc/cardr/internal/card"
	"github.com/metcalfc/cardr/internal/session"
	"github.com/metcalfc/cardr/internal/watch"
)

const emptyText = "No document loaded.\nPress O to open a file."

// cardView renders session notifications into fyne widgets. Callbacks run
// on the fyne event loop.
type cardView struct {
	body    *fyne.Container
	text    *widget.Label
	counter *widget.Label
	arrow   string
}

func newCardView() *cardView {
	text := widget.NewLabel(emptyText)
	text.Wrapping = fyne.TextWrapWord
	text.Alignment = fyne.TextAlignCenter
	text.TextStyle.Bold = true

	counter := widget.NewLabel("Card 0 / 0")
	counter.Alignment = fyne.TextAlignCenter

	return &cardView{
		body:    container.NewStack(text),
		text:    text,
		counter: counter,
	}
}

func (v *cardView) OnFullRender(c card.Card) {
	v.arrow = ""
	v.show(c)
}

func (v *cardView) OnTransition(t session.Transition) {
	v.arrow = "→ "
	if t.Direction == session.Backward {
		v.arrow = "← "
	}
	v.show(t.Card)
}

func (v *cardView) OnCounterUpdate(text string) {
	v.counter.SetText(v.arrow + "Card " + text)
}

func (v *cardView) show(c card.Card) {
	switch c.Kind {
	case card.KindImage:
		img := canvas.NewImageFromReader(bytes.NewReader(c.Image.Data), c.Image.Name)
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(200, 200))
		v.body.Objects = []fyne.CanvasObject{img}
	case card.KindText:
		v.text.SetText(c.Text)
		v.body.Objects = []fyne.CanvasObject{v.text}
	default:
		v.text.SetText(emptyText)
		v.body.Objects = []fyne.CanvasObject{v.text}
	}
	v.body.Refresh()
}

// digitsOnly keeps the jump entry numeric; the key that opens it can
// otherwise land in the field.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func run(cmd *cobra.Command, opts options, args []string) error {
	ctx := cmd.Context()

	fa := fyneapp.New()
	w := fa.NewWindow("cardr")

	view := newCardView()
	a, err := openApp(ctx, opts, args, view, true)
	if err != nil {
		return err
	}
	defer a.close()
	sess := a.session

	setTitle := func() {
		if a.deck.Title != "" {
			w.SetTitle("cardr - " + a.deck.Title)
			return
		}
		w.SetTitle("cardr")
	}
	setTitle()

	controlsLabel := widget.NewLabel("→/SPACE: next  ←: previous  G: go to  T: contents  O: open  R: reset  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	jumpEntry := widget.NewEntry()
	jumpEntry.SetPlaceHolder("Card number, then Enter")
	jumpEntry.OnChanged = func(s string) {
		if d := digitsOnly(s); d != s {
			jumpEntry.SetText(d)
		}
	}
	jumpEntry.OnSubmitted = func(s string) {
		if !sess.JumpToInput(s) {
			a.logger.Debug("ignored jump", zap.String("input", s))
		}
		jumpEntry.SetText("")
		w.Canvas().Unfocus()
	}

	tocList := widget.NewList(
		func() int { return len(a.deck.TOC) },
		func() fyne.CanvasObject {
			return container.NewVBox(
				widget.NewLabel("Title"),
				widget.NewLabel("Preview"),
			)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			entry := a.deck.TOC[id]
			vbox := obj.(*fyne.Container)
			titleLabel := vbox.Objects[0].(*widget.Label)
			previewLabel := vbox.Objects[1].(*widget.Label)

			indent := strings.Repeat("  ", entry.Level)
			titleLabel.SetText(indent + entry.Title)
			titleLabel.TextStyle.Bold = true
			previewLabel.SetText(indent + entry.Preview)
		},
	)

	tocContainer := container.NewBorder(
		widget.NewLabel("Table of Contents"),
		widget.NewLabel("Click to jump • T to close"),
		nil, nil,
		tocList,
	)
	tocContainer.Hide()

	readingContent := container.NewBorder(
		view.counter,
		container.NewVBox(jumpEntry, controlsLabel),
		nil, nil,
		container.NewPadded(view.body),
	)

	tocPanel := container.NewHSplit(tocContainer, readingContent)
	tocPanel.Offset = 0.33

	toggleTOC := func(visible bool) {
		if visible && len(a.deck.TOC) > 0 && sess.Len() > 0 {
			tocContainer.Show()
		} else {
			tocContainer.Hide()
		}
		tocPanel.Refresh()
	}

	tocList.OnSelected = func(id widget.ListItemID) {
		if id < len(a.deck.TOC) {
			sess.JumpTo(a.deck.TOC[id].Card + 1)
			tocList.UnselectAll()
			toggleTOC(false)
		}
	}

	// documentChanged refreshes the chrome that depends on the deck.
	documentChanged := func() {
		setTitle()
		tocList.Refresh()
		toggleTOC(tocContainer.Visible())
	}

	openFile := func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				a.logger.Error("open dialog error", zap.Error(err))
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()

			go func() {
				d, err := a.read(ctx, path)
				fyne.Do(func() {
					if err != nil {
						dialog.ShowError(fmt.Errorf("failed to read file '%s': %w", path, err), w)
						return
					}
					a.open(path, d)
					documentChanged()
				})
			}()
		}, w)
	}

	reloadSource := func() {
		if a.source == "" {
			return
		}
		src := a.source
		go func() {
			d, err := a.read(ctx, src)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if a.source != src {
					return
				}
				a.deck = d
				sess.Load(d.Cards)
				documentChanged()
			})
		}()
	}

	if opts.watch && a.source != "" {
		watcher, err := watch.New(a.source, watch.DefaultDebounce, a.logger)
		if err != nil {
			return fmt.Errorf("failed to watch '%s': %w", a.source, err)
		}
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watcher.Run(watchCtx)
		go func() {
			for {
				select {
				case <-watchCtx.Done():
					return
				case <-watcher.Changes():
					fyne.Do(reloadSource)
				}
			}
		}()
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyRight, fyne.KeySpace, fyne.KeyPageDown, fyne.KeyL:
			sess.Next()

		case fyne.KeyLeft, fyne.KeyPageUp, fyne.KeyH:
			sess.Previous()

		case fyne.KeyHome:
			sess.JumpTo(1)

		case fyne.KeyEnd:
			sess.JumpTo(sess.Len())

		case fyne.KeyG:
			if sess.Len() > 0 {
				w.Canvas().Focus(jumpEntry)
			}

		case fyne.KeyT:
			toggleTOC(!tocContainer.Visible())

		case fyne.KeyR:
			sess.Reset()
			a.logger.Info("session reset")

		case fyne.KeyReturn, fyne.KeyEnter:
			if sess.Len() == 0 {
				reloadSource()
			}

		case fyne.KeyO:
			openFile()

		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())

		case fyne.KeyQ, fyne.KeyEscape:
			fa.Quit()
		}
	})

	w.Resize(fyne.NewSize(800, 600))
	w.SetContent(tocPanel)
	w.ShowAndRun()
	return nil
}

func main() {
	root := newRootCmd("cardr", "Cardr - page through documents one card at a time (desktop window)", run)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
