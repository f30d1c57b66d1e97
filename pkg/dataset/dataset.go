// Package dataset turns the crawled image inventory into a YOLO-style
// training dataset: one class per risk directory, a train/val/test split,
// and one whole-image label file per image.
package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	// webp is in imageExts but has no stdlib decoder
	_ "github.com/chai2010/webp"
)

var splits = []string{"train", "val", "test"}

var riskTypes = []string{"diseases", "pests"}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// Config controls one dataset build.
type Config struct {
	// SrcDir is the image inventory root ({risk_type}/{crop}/{risk_name}).
	SrcDir string
	// OutDir receives the dataset tree.
	OutDir string

	// Split ratios; they must sum to 1. Defaults are 0.7/0.15/0.15.
	TrainRatio float64
	ValRatio   float64
	TestRatio  float64

	// MaxEdge resizes the long image edge down to this many pixels on copy;
	// zero copies images untouched.
	MaxEdge int
	// MinDim rejects images whose smaller dimension is below this.
	MinDim int

	// Seed fixes the shuffle for reproducible splits.
	Seed int64
}

func (c *Config) defaults() {
	if c.TrainRatio == 0 && c.ValRatio == 0 && c.TestRatio == 0 {
		c.TrainRatio, c.ValRatio, c.TestRatio = 0.7, 0.15, 0.15
	}
}

func (c *Config) validate() error {
	sum := c.TrainRatio + c.ValRatio + c.TestRatio
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("split ratios must sum to 1, got %.3f", sum)
	}
	return nil
}

// Classes collects class names from the inventory layout, one
// {risk_type}_{crop}_{risk_name} class per leaf directory, sorted for a
// stable index assignment.
func Classes(srcDir string) ([]string, error) {
	var classes []string

	for _, rt := range riskTypes {
		root := filepath.Join(srcDir, rt)
		if _, err := os.Stat(root); err != nil {
			continue
		}

		crops, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", root, err)
		}
		for _, crop := range crops {
			if !crop.IsDir() {
				continue
			}
			risks, err := os.ReadDir(filepath.Join(root, crop.Name()))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", crop.Name(), err)
			}
			for _, r := range risks {
				if r.IsDir() {
					classes = append(classes, fmt.Sprintf("%s_%s_%s", rt, crop.Name(), r.Name()))
				}
			}
		}
	}

	sort.Strings(classes)
	klog.Infof("collected %d classes", len(classes))
	return classes, nil
}

// SaveClasses writes the class list to classes.txt under dir.
func SaveClasses(dir string, classes []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "classes.txt"), []byte(strings.Join(classes, "\n")+"\n"), 0o644)
}

// classDir resolves a class name back to its inventory directory.
func classDir(srcDir, class string) (string, bool) {
	parts := strings.SplitN(class, "_", 3)
	if len(parts) < 3 {
		return "", false
	}
	return filepath.Join(srcDir, parts[0], parts[1], parts[2]), true
}

// classImages lists the image files belonging to one class.
func classImages(dir string) ([]string, error) {
	var imgs []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || strings.HasPrefix(filepath.Base(path), ".") {
				return nil
			}
			if imageExts[strings.ToLower(filepath.Ext(path))] {
				imgs = append(imgs, path)
			}
			return nil
		},
	})
	return imgs, err
}

// Build creates the dataset tree: split directories, copied (optionally
// resized) images, YOLO labels, classes.txt and data.yaml.
func Build(cfg Config) error {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	classes, err := Classes(cfg.SrcDir)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		return fmt.Errorf("no classes found under %s", cfg.SrcDir)
	}

	for _, split := range splits {
		for _, sub := range []string{"images", "labels"} {
			if err := os.MkdirAll(filepath.Join(cfg.OutDir, split, sub), 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}
		}
	}

	if err := SaveClasses(cfg.OutDir, classes); err != nil {
		return err
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Warningf("exiftool unavailable, skipping dimension checks: %v", err)
		et = nil
	} else {
		defer et.Close()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	total := 0

	for idx, class := range classes {
		dir, ok := classDir(cfg.SrcDir, class)
		if !ok {
			klog.Warningf("malformed class name %q, skipping", class)
			continue
		}

		imgs, err := classImages(dir)
		if err != nil {
			klog.Errorf("listing %s: %v", dir, err)
			continue
		}
		if len(imgs) == 0 {
			klog.Warningf("no images for class %s", class)
			continue
		}

		rng.Shuffle(len(imgs), func(i, j int) { imgs[i], imgs[j] = imgs[j], imgs[i] })

		nTrain := int(float64(len(imgs)) * cfg.TrainRatio)
		nVal := int(float64(len(imgs)) * cfg.ValRatio)

		for i, img := range imgs {
			split := "test"
			switch {
			case i < nTrain:
				split = "train"
			case i < nTrain+nVal:
				split = "val"
			}
			if err := placeImage(cfg, et, img, split, idx); err != nil {
				klog.Errorf("placing %s: %v", img, err)
				continue
			}
			total++
		}
	}

	if err := writeDataYAML(cfg.OutDir, classes); err != nil {
		return err
	}

	klog.Infof("dataset built with %d images across %d classes", total, len(classes))
	return nil
}

// placeImage copies one image into its split and writes its label. Each
// crawled image is assumed to show a single centered subject covering most
// of the frame.
func placeImage(cfg Config, et *exiftool.Exiftool, img, split string, classIdx int) error {
	if et != nil && !dimensionsOK(et, img, cfg.MinDim) {
		return fmt.Errorf("dimensions below %dpx or unreadable", cfg.MinDim)
	}

	dst := filepath.Join(cfg.OutDir, split, "images", filepath.Base(img))
	if cfg.MaxEdge > 0 {
		// resized output is re-encoded, so the name must say jpg
		dst = strings.TrimSuffix(dst, filepath.Ext(dst)) + ".jpg"
		if err := resizeInto(img, dst, cfg.MaxEdge); err != nil {
			return err
		}
	} else if err := copy.Copy(img, dst); err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(img), filepath.Ext(img))
	label := fmt.Sprintf("%d 0.5 0.5 0.8 0.8\n", classIdx)
	lp := filepath.Join(cfg.OutDir, split, "labels", stem+".txt")
	if err := os.WriteFile(lp, []byte(label), 0o644); err != nil {
		return fmt.Errorf("label: %w", err)
	}
	return nil
}

func dimensionsOK(et *exiftool.Exiftool, path string, min int) bool {
	fis := et.ExtractMetadata(path)
	if len(fis) == 0 || fis[0].Err != nil {
		return false
	}
	w, werr := fis[0].GetInt("ImageWidth")
	h, herr := fis[0].GetInt("ImageHeight")
	if werr != nil || herr != nil || w == 0 || h == 0 {
		return false
	}
	return int(w) >= min && int(h) >= min
}

// resizeInto scales the long edge down to maxEdge and writes a JPEG.
func resizeInto(src, dst string, maxEdge int) error {
	img, err := imgio.Open(src)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	b := img.Bounds()
	x, y := b.Dx(), b.Dy()
	if x > maxEdge || y > maxEdge {
		if x >= y {
			y = y * maxEdge / x
			x = maxEdge
		} else {
			x = x * maxEdge / y
			y = maxEdge
		}
		img = transform.Resize(img, x, y, transform.Lanczos)
	}

	if err := imgio.Save(dst, img, imgio.JPEGEncoder(90)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func writeDataYAML(outDir string, classes []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\n", outDir)
	fmt.Fprintf(&b, "train: %s\n", filepath.Join(outDir, "train", "images"))
	fmt.Fprintf(&b, "val: %s\n", filepath.Join(outDir, "val", "images"))
	fmt.Fprintf(&b, "test: %s\n", filepath.Join(outDir, "test", "images"))
	fmt.Fprintf(&b, "nc: %d\n", len(classes))
	fmt.Fprintf(&b, "names: [%s]\n", strings.Join(classes, ", "))

	return os.WriteFile(filepath.Join(outDir, "data.yaml"), []byte(b.String()), 0o644)
}
