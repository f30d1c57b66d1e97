// convert rewrites webp/avif/tiff images in the inventory to JPEG and
// optionally renames stray files onto the canonical naming pattern.
package main

import (
	"flag"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/agrovision/cropscout/pkg/convert"
)

var (
	dir         = flag.String("dir", filepath.Join("download", "images"), "directory to process")
	quality     = flag.Int("quality", 95, "JPEG quality")
	rename      = flag.Bool("rename", false, "rename files onto the {risk_type}_{crop}_{GUID}_{NN} pattern")
	keep        = flag.Bool("keep", false, "keep originals after conversion")
	noRecursive = flag.Bool("no-recursive", false, "do not descend into subdirectories")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	opts := convert.Options{
		Quality:      *quality,
		KeepOriginal: *keep,
		Rename:       *rename,
		Recursive:    !*noRecursive,
	}

	klog.Infof("processing %s", *dir)
	if err := convert.Dir(*dir, opts); err != nil {
		klog.Exitf("convert failed: %v", err)
	}
}
