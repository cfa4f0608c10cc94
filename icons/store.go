package icons

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const DefaultSize = 72

var extensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp"}

// Store resolves icon names against an asset directory, falling back to
// rendered tiles. Images are scaled to the current key size and cached.
type Store struct {
	dir   string
	size  atomic.Int64
	cache *lru.Cache[string, image.Image]
}

func NewStore(dir string, size, cacheSize int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if cacheSize <= 0 {
		cacheSize = 2 * len(All)
	}
	cache, err := lru.New[string, image.Image](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("icon cache: %w", err)
	}
	s := &Store{dir: dir, cache: cache}
	s.size.Store(int64(size))
	return s, nil
}

func (s *Store) Size() int {
	return int(s.size.Load())
}

// Resize changes the key size and drops every cached image.
func (s *Store) Resize(size int) {
	if size <= 0 || int64(size) == s.size.Load() {
		return
	}
	s.size.Store(int64(size))
	s.cache.Purge()
}

func (s *Store) Icon(name string) (image.Image, error) {
	if name == "" {
		return nil, errors.New("empty icon name")
	}
	if img, ok := s.cache.Get(name); ok {
		return img, nil
	}
	size := s.Size()
	img, err := s.load(name)
	if err != nil {
		return nil, err
	}
	if img == nil {
		img = Render(name, size)
	} else {
		img = Scale(img, size)
	}
	s.cache.Add(name, img)
	return img, nil
}

// load returns nil without error when no asset exists for name.
func (s *Store) load(name string) (image.Image, error) {
	if s.dir == "" {
		return nil, nil
	}
	for _, ext := range extensions {
		path := filepath.Join(s.dir, name+ext)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open icon %s: %w", path, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode icon %s: %w", path, err)
		}
		return img, nil
	}
	return nil, nil
}
