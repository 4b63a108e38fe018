// Content bundles: a zip the user uploads as the "content" document,
// holding text plus the images it references. The bundle is read in
// place; nothing is extracted to disk.

package uploads

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// IsBundle reports whether a filename looks like a content bundle.
func IsBundle(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".zip"
}

// BundleFiles lists the regular files inside a bundle, sorted by the
// archive's own order, skipping directory entries and hidden files.
func BundleFiles(ctx context.Context, path string) ([]string, error) {
	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}

	var names []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(filepath.Base(p), ".") {
			return nil
		}
		names = append(names, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk bundle: %w", err)
	}
	return names, nil
}

// ReadBundleFile returns the contents of one file inside a bundle.
func ReadBundleFile(ctx context.Context, path, name string) ([]byte, error) {
	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in bundle: %w", name, err)
	}
	defer f.Close()

	return io.ReadAll(f)
}
