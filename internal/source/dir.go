package source

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
	"github.com/fsnotify/fsnotify"
)

// DefaultFrameInterval is how long each image of a directory stays on screen.
const DefaultFrameInterval = time.Second

// DirOptions configures a directory source.
type DirOptions struct {
	// Dir is the directory whose images are replayed in name order.
	Dir string
	// FrameInterval is how long each image is shown. Zero freezes on the first image.
	FrameInterval time.Duration
	// Loop restarts from the first image after the last one; otherwise the
	// last image stays on screen.
	Loop bool
	// Watch picks up images added to, rewritten in or removed from Dir.
	Watch bool

	Now    func() time.Time
	Logger *slog.Logger
}

// Dir replays the images of a directory as a camera feed. Images are decoded
// lazily, one at a time, when the play position reaches them.
type Dir struct {
	opts DirOptions

	mu          sync.Mutex
	files       []string
	playing     bool
	stopped     bool
	origin      time.Time
	offset      time.Duration
	current     *frame.Frame
	currentPath string
	seq         uint64
	width       int
	height      int

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewDir scans opts.Dir and returns a paused source. Without Watch an empty
// directory is an error.
func NewDir(opts DirOptions) (*Dir, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FrameInterval < 0 {
		opts.FrameInterval = 0
	}

	fi, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, &FrameError{Op: "open", Path: opts.Dir, Err: err}
	}
	if !fi.IsDir() {
		return nil, &FrameError{Op: "open", Path: opts.Dir, Err: fmt.Errorf("not a directory")}
	}

	files, err := ListImages(opts.Dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 && !opts.Watch {
		return nil, &FrameError{Op: "open", Path: opts.Dir, Err: ErrNoImages}
	}

	d := &Dir{opts: opts, files: files}
	if len(files) > 0 {
		if w, h, err := ProbeDimensions(files[0]); err == nil {
			d.width, d.height = w, h
		} else {
			opts.Logger.Warn("Could not probe first image", "path", files[0], "error", err)
		}
	}
	return d, nil
}

// Start implements Source.
func (d *Dir) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrStopped
	}
	if d.playing {
		return nil
	}
	if d.opts.Watch && d.watcher == nil {
		if err := d.startWatcherLocked(); err != nil {
			return err
		}
	}
	d.playing = true
	d.origin = d.opts.Now()
	return nil
}

// Pause implements Source. The play position is kept.
func (d *Dir) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		d.offset += d.opts.Now().Sub(d.origin)
		d.playing = false
	}
	return nil
}

// Stop implements Source.
func (d *Dir) Stop() error {
	d.mu.Lock()
	d.playing = false
	d.stopped = true
	w := d.watcher
	d.watcher = nil
	d.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	d.wg.Wait()
	return err
}

// Dimensions implements Source.
func (d *Dir) Dimensions() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Files returns a copy of the current playlist.
func (d *Dir) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files...)
}

// LatestFrame implements Source.
func (d *Dir) LatestFrame() (*frame.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.playing || len(d.files) == 0 {
		return nil, false
	}

	now := d.opts.Now()
	path := d.files[d.indexLocked(now)]
	if d.current != nil && path == d.currentPath {
		return d.current, true
	}

	img, err := LoadImage(path)
	if err != nil {
		// A file being written or a corrupt file is a skipped tick, not an error.
		d.opts.Logger.Debug("Skipping unreadable image", "path", path, "error", err)
		return nil, false
	}
	d.seq++
	d.current = frame.FromImage(img, d.seq, now)
	d.currentPath = path
	d.width, d.height = d.current.Width, d.current.Height
	return d.current, true
}

func (d *Dir) indexLocked(now time.Time) int {
	n := len(d.files)
	if d.opts.FrameInterval == 0 {
		return 0
	}
	elapsed := d.offset + now.Sub(d.origin)
	idx := int(elapsed / d.opts.FrameInterval)
	if d.opts.Loop {
		return idx % n
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func (d *Dir) startWatcherLocked() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new file change watcher: %w", err)
	}
	if err := w.Add(d.opts.Dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", d.opts.Dir, err)
	}
	d.watcher = w

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				d.handleEvent(ev)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				d.opts.Logger.Warn("Directory watcher error", "dir", d.opts.Dir, "error", err)
			}
		}
	}()
	return nil
}

func (d *Dir) handleEvent(ev fsnotify.Event) {
	if !IsSupportedImage(ev.Name) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		d.removeLocked(ev.Name)
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		d.addLocked(ev.Name)
		if ev.Name == d.currentPath {
			// Rewritten in place: reload on the next poll.
			d.current = nil
		}
	}
}

func (d *Dir) addLocked(path string) {
	i := sort.SearchStrings(d.files, path)
	if i < len(d.files) && d.files[i] == path {
		return
	}
	d.files = append(d.files, "")
	copy(d.files[i+1:], d.files[i:])
	d.files[i] = path
	if d.width == 0 || d.height == 0 {
		if w, h, err := ProbeDimensions(path); err == nil {
			d.width, d.height = w, h
		}
	}
	d.opts.Logger.Debug("Image added to feed", "path", path, "count", len(d.files))
}

func (d *Dir) removeLocked(path string) {
	i := sort.SearchStrings(d.files, path)
	if i >= len(d.files) || d.files[i] != path {
		return
	}
	d.files = append(d.files[:i], d.files[i+1:]...)
	if path == d.currentPath {
		d.current = nil
		d.currentPath = ""
	}
	d.opts.Logger.Debug("Image removed from feed", "path", path, "count", len(d.files))
}
