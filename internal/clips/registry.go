package clips

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"video-editor-mcp/internal/domain"
)

// Scheme prefixes managed clip references, e.g. clip://3f1c...
const Scheme = "clip://"

// ErrUnknownClip is returned when a reference does not resolve.
var ErrUnknownClip = errors.New("unknown clip reference")

type clip struct {
	path      string
	source    string
	createdAt time.Time
}

// Registry tracks intermediate render outputs so multi-step edits can
// chain without naming every step. Files live in a private directory and
// are removed on Close.
type Registry struct {
	mu    sync.Mutex
	dir   string
	clips map[string]clip
	now   func() time.Time
}

// New creates a registry rooted in a fresh directory under baseDir (the
// OS temp dir when empty).
func New(baseDir string) (*Registry, error) {
	dir, err := os.MkdirTemp(baseDir, "video-editor-clips-*")
	if err != nil {
		return nil, fmt.Errorf("create clip directory: %w", err)
	}
	return &Registry{
		dir:   dir,
		clips: make(map[string]clip),
		now:   time.Now,
	}, nil
}

// Allocate reserves a managed output file for an operation and returns
// its reference and filesystem path. The file itself is written by the
// render; Discard releases the reservation if the render fails.
func (r *Registry) Allocate(source, ext string) (ref, path string) {
	id := uuid.NewString()
	path = filepath.Join(r.dir, id+ext)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clips[id] = clip{
		path:      path,
		source:    source,
		createdAt: r.now().UTC(),
	}
	return Scheme + id, path
}

// Resolve maps a clip reference to its file path. Plain filesystem paths
// pass through unchanged.
func (r *Registry) Resolve(pathOrRef string) (string, error) {
	if !strings.HasPrefix(pathOrRef, Scheme) {
		return pathOrRef, nil
	}

	id := strings.TrimPrefix(pathOrRef, Scheme)
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clips[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownClip, pathOrRef)
	}
	return c.path, nil
}

// Discard removes one managed clip and its file.
func (r *Registry) Discard(ref string) error {
	id := strings.TrimPrefix(ref, Scheme)

	r.mu.Lock()
	c, ok := r.clips[id]
	if ok {
		delete(r.clips, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClip, ref)
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove clip file: %w", err)
	}
	return nil
}

// List returns all managed clips, oldest first.
func (r *Registry) List() []domain.ClipInfo {
	r.mu.Lock()
	refs := make([]string, 0, len(r.clips))
	snapshot := make(map[string]clip, len(r.clips))
	for id, c := range r.clips {
		refs = append(refs, id)
		snapshot[id] = c
	}
	r.mu.Unlock()

	sort.Slice(refs, func(i, j int) bool {
		return snapshot[refs[i]].createdAt.Before(snapshot[refs[j]].createdAt)
	})

	out := make([]domain.ClipInfo, 0, len(refs))
	for _, id := range refs {
		c := snapshot[id]
		info := domain.ClipInfo{
			Ref:       Scheme + id,
			Path:      c.path,
			Source:    c.source,
			CreatedAt: c.createdAt,
		}
		if st, err := os.Stat(c.path); err == nil {
			info.SizeBytes = st.Size()
			info.Size = humanize.Bytes(uint64(st.Size()))
		}
		out = append(out, info)
	}
	return out
}

// Dir returns the registry's private directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Close removes the clip directory and all managed files.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.clips = make(map[string]clip)
	r.mu.Unlock()
	return os.RemoveAll(r.dir)
}
