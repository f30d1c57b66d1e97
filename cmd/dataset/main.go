// dataset prepares a YOLO-style training dataset from the crawled image
// inventory.
package main

import (
	"flag"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/agrovision/cropscout/pkg/dataset"
)

var (
	srcDir     = flag.String("src", filepath.Join("download", "images"), "image inventory root")
	outDir     = flag.String("out", "dataset", "output dataset directory")
	trainRatio = flag.Float64("train", 0.7, "train split ratio")
	valRatio   = flag.Float64("val", 0.15, "validation split ratio")
	testRatio  = flag.Float64("test", 0.15, "test split ratio")
	maxEdge    = flag.Int("max-edge", 0, "resize long image edge to this many pixels (0 = keep original size)")
	minDim     = flag.Int("min-dim", 64, "reject images smaller than this in either dimension")
	seed       = flag.Int64("seed", 42, "shuffle seed for reproducible splits")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	cfg := dataset.Config{
		SrcDir:     *srcDir,
		OutDir:     *outDir,
		TrainRatio: *trainRatio,
		ValRatio:   *valRatio,
		TestRatio:  *testRatio,
		MaxEdge:    *maxEdge,
		MinDim:     *minDim,
		Seed:       *seed,
	}

	if err := dataset.Build(cfg); err != nil {
		klog.Exitf("dataset build failed: %v", err)
	}
}
