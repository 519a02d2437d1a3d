// ABOUTME: Registry mapping file extensions to demuxer constructors
// ABOUTME: Opens files by extension and sniffs Ogg payloads
package container

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// OpenFunc builds a demuxer over a seekable source
type OpenFunc func(src io.ReadSeeker) (Demuxer, error)

// Registry for demuxers by file extension (".wav", ".opus", ...)
type Registry struct {
	mu      sync.RWMutex
	formats map[string]OpenFunc
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]OpenFunc),
	}
}

// Register adds or replaces the constructor for ext
func (r *Registry) Register(ext string, open OpenFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[normalizeExt(ext)] = open
}

// Get returns the constructor for ext
func (r *Registry) Get(ext string) (OpenFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	open, ok := r.formats[normalizeExt(ext)]
	return open, ok
}

// Open opens path with the demuxer registered for its extension.
// The returned demuxer owns the file.
func (r *Registry) Open(path string) (Demuxer, error) {
	open, ok := r.Get(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	demuxer, err := open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return demuxer, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry with every built-in format
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		r.Register(".opus", openOggOpus)
		r.Register(".ogg", openOgg)
		r.Register(".oga", openOgg)
		r.Register(".wav", openWAV)
		r.Register(".mp3", openMP3)
		r.Register(".flac", openFLAC)
		r.Register(".aiff", openAIFF)
		r.Register(".aif", openAIFF)
		defaultRegistry = r
	})
	return defaultRegistry
}

// Open opens path using the default registry
func Open(path string) (Demuxer, error) {
	return DefaultRegistry().Open(path)
}

// openOgg picks Opus or Vorbis from the identification header on the first page
func openOgg(src io.ReadSeeker) (Demuxer, error) {
	head := make([]byte, 128)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read ogg header: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}

	switch {
	case bytes.Contains(head[:n], []byte("OpusHead")):
		return openOggOpus(src)
	case bytes.Contains(head[:n], []byte("\x01vorbis")):
		return openVorbis(src)
	default:
		return nil, fmt.Errorf("ogg stream is neither opus nor vorbis: %w", ErrUnsupportedFormat)
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
