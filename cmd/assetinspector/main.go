// Command assetinspector is a small read-only devkit GUI: point it at a
// resource database file and it lists the file's chunk/sprite/audio-clip
// tables and how many chunks are currently resident (always zero here,
// since the inspector never runs the loader — it only opens the database
// header and tables). It watches the opened file's directory and refreshes
// the listing whenever the file's size changes, so a rebuilt database shows
// up without restarting the tool. This is a display convenience only, not
// hot-reload of a running engine: there is no running engine here.
//
// Grounded on the teacher's cmd/corelx_devkit (Fyne app/window/list-driven
// devkit tooling) and internal/devkit (backend/snapshot separation, here
// reduced to "open database, report tables").
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fynecontainer "fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fsnotify/fsnotify"

	"nitrocore/internal/allocator"
	"nitrocore/internal/platform/fileplatform"
	"nitrocore/internal/resources"
)

// inspectorState holds the currently opened database and the widgets that
// display it. It's rebuilt from scratch on every (re)open rather than
// mutated in place, since a rebuilt .rdb file may have entirely different
// table sizes.
type inspectorState struct {
	path    string
	summary *widget.Label
	clips   *widget.List
	sprites *widget.List

	clipNames   []string
	spriteNames []string
}

func main() {
	a := app.New()
	w := a.NewWindow("Asset Inspector")
	w.Resize(fyne.NewSize(480, 520))

	state := &inspectorState{
		summary: widget.NewLabel("No database opened."),
	}
	state.clips = widget.NewList(
		func() int { return len(state.clipNames) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(state.clipNames[i]) },
	)
	state.sprites = widget.NewList(
		func() int { return len(state.spriteNames) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(state.spriteNames[i]) },
	)

	openBtn := widget.NewButton("Open database…", func() {
		d := dialog.NewFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			defer uc.Close()
			path := uc.URI().Path()
			if openErr := state.open(path); openErr != nil {
				dialog.ShowError(openErr, w)
				return
			}
			go watchForRebuild(path, func() {
				state.open(path)
			})
		}, w)
		d.Show()
	})

	w.SetContent(fynecontainer.NewBorder(
		fynecontainer.NewVBox(openBtn, state.summary),
		nil, nil, nil,
		fynecontainer.NewHSplit(
			fynecontainer.NewVBox(widget.NewLabel("Audio clips"), state.clips),
			fynecontainer.NewVBox(widget.NewLabel("Sprites"), state.sprites),
		),
	))

	if len(os.Args) > 1 {
		if err := state.open(os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "error opening %s: %v\n", os.Args[1], err)
		} else {
			go watchForRebuild(os.Args[1], func() { state.open(os.Args[1]) })
		}
	}

	w.ShowAndRun()
}

// open reads the database at path and refreshes every widget in state. It
// never touches the loader or any platform other than fileplatform, since
// the inspector only ever needs the header and the four fixed tables.
func (s *inspectorState) open(path string) error {
	p := fileplatform.New()
	file, ok := p.OpenFile(path)
	if !ok {
		return fmt.Errorf("could not open %s", path)
	}

	persistent := allocator.New(8<<20, nil, "assetinspector.persistent")
	scratch := allocator.New(4<<20, nil, "assetinspector.scratch")

	db, ok := resources.OpenDatabase(p, persistent, scratch, file, resources.ResidentBudget{})
	if !ok {
		return fmt.Errorf("%s is not a valid resource database (bad magic, header, or I/O error)", path)
	}

	s.path = path
	s.clipNames = db.AudioClipNames()
	s.spriteNames = db.SpriteNames()

	chunkSize := db.ChunkSize()
	spriteW, spriteH := db.SpriteChunkDims()
	s.summary.SetText(fmt.Sprintf(
		"%s\nchunks: %d (%d bytes each)  texture chunks: %d (%dx%d)\naudio clips: %d  sprites: %d\nresident: %d audio / %d sprite",
		filepath.Base(path), db.NumChunks(), chunkSize, db.NumTextureChunks(), spriteW, spriteH,
		db.NumAudioClips(), db.NumSprites(), db.ResidentAudioCount(), db.ResidentSpriteCount(),
	))
	s.clips.Refresh()
	s.sprites.Refresh()
	return nil
}

// watchForRebuild watches path's directory and calls onChange whenever
// path's size changes (a rebuild that replaces the file wholesale, or one
// that appends/truncates in place, either way resizes it). It is a display
// convenience, not hot-reload of engine state: nothing here touches a
// running Database or Loader.
func watchForRebuild(path string, onChange func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return
	}

	lastSize := fileSize(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if size := fileSize(path); size != lastSize {
				lastSize = size
				onChange()
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}
