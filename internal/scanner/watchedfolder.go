package scanner

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/integrations"
)

var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true,
}

var seasonEpisodeRe = regexp.MustCompile(`(?i)S(\d{1,3})E(\d{1,4})`)
var yearRe = regexp.MustCompile(`\((\d{4})\)`)

// WatchedFolderSource implements LibrarySource over a local directory tree,
// parsing season/episode/year from filenames the way
// original_source/backend/standalone/scanner.py's parser does, since a bare
// folder carries no external metadata. Low-latency rescans are driven by
// fsnotify, debounced the way lsilvatti-bakasub's internal/core/watcher
// debounces write-in-progress events before firing a callback.
type WatchedFolderSource struct {
	name string
	root string

	watcher     *fsnotify.Watcher
	debounceMu  sync.Mutex
	debounce    map[string]*time.Timer
	onChange    func()
	log         zerolog.Logger
}

func NewWatchedFolderSource(name, root string, log zerolog.Logger) *WatchedFolderSource {
	return &WatchedFolderSource{
		name:     name,
		root:     root,
		debounce: make(map[string]*time.Timer),
		log:      log.With().Str("component", "watched_folder").Str("source", name).Logger(),
	}
}

func (w *WatchedFolderSource) Name() string { return w.name }

// Root returns the folder path this source watches, for API listing.
func (w *WatchedFolderSource) Root() string { return w.root }

// ListItems walks the folder tree, parsing one synthetic LibraryItem per
// video file found; the video's own path is both its entity id and file
// path since there is no external library database to key against.
func (w *WatchedFolderSource) ListItems(ctx context.Context) ([]integrations.LibraryItem, error) {
	var items []integrations.LibraryItem
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than abort the whole walk
		}
		if d.IsDir() || !videoExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		items = append(items, parseFilenameItem(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// parseFilenameItem builds a LibraryItem purely from a video path's name.
func parseFilenameItem(path string) integrations.LibraryItem {
	base := filepath.Base(path)
	item := integrations.LibraryItem{
		EntityID: path,
		FilePath: path,
		HasFile:  true,
	}

	if m := seasonEpisodeRe.FindStringSubmatch(base); m != nil {
		item.Season, _ = strconv.Atoi(m[1])
		item.Episode, _ = strconv.Atoi(m[2])
		item.Title = strings.TrimSpace(base[:strings.Index(base, m[0])])
	} else {
		item.Title = strings.TrimSuffix(base, filepath.Ext(base))
		if m := yearRe.FindStringSubmatch(base); m != nil {
			item.Year, _ = strconv.Atoi(m[1])
			item.Title = strings.TrimSpace(item.Title[:strings.Index(item.Title, m[0])])
		}
	}
	item.Title = strings.Trim(strings.NewReplacer(".", " ", "_", " ").Replace(item.Title), " -.")
	return item
}

// Watch begins an fsnotify-driven low-latency rescan trigger: onChange fires
// once the debounce interval has passed with no further event for the same
// file (each changed file has its own timer), so a caller
// can re-run the scan loop for just this source without waiting for the
// next scheduled tick.
func (w *WatchedFolderSource) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	w.onChange = onChange

	if err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	}); err != nil {
		fw.Close()
		return err
	}

	go w.eventLoop(ctx, debounce)
	return nil
}

func (w *WatchedFolderSource) eventLoop(ctx context.Context, debounce time.Duration) {
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if !videoExtensions[ext] {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) == 0 {
				continue
			}
			w.scheduleDebounced(event.Name, debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *WatchedFolderSource) scheduleDebounced(path string, debounce time.Duration) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if t, exists := w.debounce[path]; exists {
		t.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		if w.onChange != nil {
			w.onChange()
		}
	})
}

func (w *WatchedFolderSource) StopWatch() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}
