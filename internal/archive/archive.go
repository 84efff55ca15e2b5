// Package archive extracts detection result archives and discovers the
// per-category items they contain.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/logger"
)

// assetSubdirs are probed in order; the first existing one supplies the
// per-item images.
var assetSubdirs = []string{"detect", "frames"}

// metadataFileNames are probed in order for the optional top-level run
// metadata file.
var metadataFileNames = []string{"metadata.json", "original_data.json"}

// imageExtensions are the asset file types paired with detection results.
var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// Item is one detection result paired with its optional source image.
type Item struct {
	Category   domain.Category
	SourceFile string
	AssetFile  string
}

// Layout is the discovered shape of an extracted archive.
type Layout struct {
	Root        string
	Items       []Item
	RunMetadata map[string]any
}

// ExtractZip unpacks the archive at zipPath into destDir. Entry paths
// escaping destDir are rejected.
func ExtractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: open archive %s: %v", domain.ErrArchiveInvalid, zipPath, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := extractEntry(file, destDir); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(file *zip.File, destDir string) error {
	target := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("%w: entry path escapes archive root: %s", domain.ErrArchiveInvalid, file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create entry dir: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return fmt.Errorf("create extracted file %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write extracted file %s: %w", target, err)
	}

	return nil
}

// Discover walks an extracted archive root and returns its layout.
// Category directories come from the closed category set; detection
// results are the `json/*.json` files of each category in filename
// order, paired with a same-stem image from the first existing asset
// subdir. An archive with no category directory at all is invalid.
func Discover(root string) (*Layout, error) {
	layout := &Layout{Root: root}

	found := false
	for _, category := range domain.Categories {
		categoryDir := filepath.Join(root, string(category))
		info, err := os.Stat(categoryDir)
		if err != nil || !info.IsDir() {
			continue
		}
		found = true

		items, err := discoverCategory(category, categoryDir)
		if err != nil {
			return nil, err
		}
		layout.Items = append(layout.Items, items...)
	}

	if !found {
		return nil, fmt.Errorf("%w: no category directories under %s", domain.ErrArchiveInvalid, root)
	}

	layout.RunMetadata = readRunMetadata(root)

	return layout, nil
}

func discoverCategory(category domain.Category, dir string) ([]Item, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "json", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list detection results for %s: %w", category, err)
	}
	sort.Strings(matches)

	assetDir := firstExistingDir(dir, assetSubdirs)

	items := make([]Item, 0, len(matches))
	for _, sourceFile := range matches {
		items = append(items, Item{
			Category:   category,
			SourceFile: sourceFile,
			AssetFile:  findAsset(assetDir, sourceFile),
		})
	}

	logger.Debug("Category %s: %d detection results (assets from %s)", category, len(items), assetDir)

	return items, nil
}

// firstExistingDir returns the first subdir of dir that exists, or "".
func firstExistingDir(dir string, names []string) string {
	for _, name := range names {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

// findAsset returns the image in assetDir sharing sourceFile's stem, or
// "" when none exists.
func findAsset(assetDir, sourceFile string) string {
	if assetDir == "" {
		return ""
	}

	stem := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	for _, ext := range imageExtensions {
		candidate := filepath.Join(assetDir, stem+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// readRunMetadata loads the optional top-level run metadata file.
// Missing or malformed metadata is not an error; the run proceeds
// without it.
func readRunMetadata(root string) map[string]any {
	for _, name := range metadataFileNames {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}

		var metadata map[string]any
		if err := json.Unmarshal(data, &metadata); err != nil {
			logger.Warn("Run metadata %s is malformed: %v", name, err)
			continue
		}
		return metadata
	}
	return nil
}

// LoadVisionResult parses one detection result file.
func LoadVisionResult(path string) (*domain.VisionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read detection result: %w", err)
	}

	var result domain.VisionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: parse detection result %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}

	return &result, nil
}
