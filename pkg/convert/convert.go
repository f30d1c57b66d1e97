// Package convert rewrites crawled images into plain JPEG while preserving
// the identity naming contract: a converted file keeps its {GUID}_{NN} key
// and only swaps the extension.
package convert

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/karrick/godirwalk"
	"golang.org/x/image/tiff"
	"k8s.io/klog/v2"

	"github.com/agrovision/cropscout/pkg/risk"
)

// Options control a conversion pass.
type Options struct {
	// Quality is the JPEG quality, defaulting to 95.
	Quality int
	// KeepOriginal leaves the source file in place after conversion.
	KeepOriginal bool
	// Rename also renames files that do not match the canonical naming
	// pattern, re-deriving their identity from the directory context.
	Rename bool
	// Recursive descends into subdirectories.
	Recursive bool
}

var convertExts = map[string]bool{
	".webp": true, ".avif": true, ".tif": true, ".tiff": true,
}

// decode reads an image trying the standard decoders first, then the webp,
// avif and tiff codecs.
func decode(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := avif.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := tiff.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("unsupported or corrupt image: %s", path)
}

// File converts one image to JPEG next to the original and returns the new
// path. The original is removed unless Options.KeepOriginal is set.
func File(path string, opts Options) (string, error) {
	q := opts.Quality
	if q == 0 {
		q = 95
	}

	img, err := decode(path)
	if err != nil {
		return "", err
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
	if err := imaging.Save(img, out, imaging.JPEGQuality(q)); err != nil {
		return "", fmt.Errorf("save %s: %w", out, err)
	}

	if !opts.KeepOriginal {
		if err := os.Remove(path); err != nil {
			klog.Warningf("unable to remove %s: %v", path, err)
		}
	}

	klog.Infof("converted %s -> %s", path, out)
	return out, nil
}

// Dir converts every convertible image under root. Per-file failures are
// logged and skipped; the pass continues.
func Dir(root string, opts Options) error {
	var converted, renamed int

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if !opts.Recursive && path != root {
					return godirwalk.SkipThis
				}
				return nil
			}
			if strings.HasPrefix(filepath.Base(path), ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(path))
			if convertExts[ext] {
				out, err := File(path, opts)
				if err != nil {
					klog.Errorf("convert %s: %v", path, err)
					return nil
				}
				converted++
				path = out
			} else if ext != ".jpg" && ext != ".jpeg" {
				return nil
			}

			if opts.Rename {
				np, err := Rename(path)
				if err != nil {
					klog.Errorf("rename %s: %v", path, err)
					return nil
				}
				if np != path {
					renamed++
				}
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	klog.Infof("converted %d images, renamed %d", converted, renamed)
	return nil
}

// Rename moves a stray file onto the canonical naming pattern, deriving its
// identity from the directory context. Files that already conform are
// returned unchanged.
func Rename(path string) (string, error) {
	if _, ok := risk.ParseImageName(path); ok {
		return path, nil
	}

	dir := filepath.Dir(path)
	riskType, crop, slug := contextFromPath(dir)
	id := risk.Derive(riskType, crop, slug)

	seq, err := nextSeq(dir)
	if err != nil {
		return "", err
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		ext = "jpg"
	}

	np := filepath.Join(dir, risk.ImageName(riskType, crop, id, seq, ext))
	if err := os.Rename(path, np); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}

	klog.Infof("renamed %s -> %s", filepath.Base(path), filepath.Base(np))
	return np, nil
}

var riskTypes = map[string]bool{"diseases": true, "pests": true, "weeds": true}

// contextFromPath recovers (risk_type, crop, risk_name) from a directory
// layout of {risk_type}/{crop}/{risk_name}, degrading to "unknown" segments.
func contextFromPath(dir string) (string, string, string) {
	riskType, crop, slug := risk.Unknown, risk.Unknown, risk.Unknown

	parts := strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/")
	for i, p := range parts {
		if !riskTypes[strings.ToLower(p)] {
			continue
		}
		riskType = strings.ToLower(p)
		if i+1 < len(parts) {
			crop = strings.ToLower(parts[i+1])
		}
		if i+2 < len(parts) {
			slug = strings.ToLower(parts[i+2])
		}
		break
	}

	return riskType, crop, slug
}

// nextSeq returns one past the highest sequence number already used in dir.
func nextSeq(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	max := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if p, ok := risk.ParseImageName(e.Name()); ok && p.Seq > max {
			max = p.Seq
		}
	}
	return max + 1, nil
}
