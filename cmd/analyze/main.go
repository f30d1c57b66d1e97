// analyze runs Gemini risk identification over a directory of crop images,
// writing one JSON assessment per image.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/agrovision/cropscout/pkg/analyze"
)

var (
	dir    = flag.String("dir", "", "directory of images to analyze")
	model  = flag.String("model", analyze.DefaultModel, "Gemini model to use")
	apiKey = flag.String("key", "", "Gemini API key (default: GEMINI_API_KEY from environment or .env)")
	limit  = flag.Int("limit", 0, "stop after this many images (0 = no limit)")
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *dir == "" {
		klog.Exitf("--dir is a required flag")
	}

	if err := godotenv.Load(); err != nil {
		klog.V(1).Infof("no .env file loaded: %v", err)
	}

	ctx := context.Background()
	client, err := analyze.NewClient(ctx, *apiKey, *model)
	if err != nil {
		klog.Exitf("client: %v", err)
	}

	analyzed := 0
	err = godirwalk.Walk(*dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !imageExts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if *limit > 0 && analyzed >= *limit {
				return godirwalk.SkipThis
			}

			a, err := client.Analyze(ctx, path)
			if err != nil {
				klog.Errorf("analyze %s: %v", path, err)
				return nil
			}
			analyzed++

			out := strings.TrimSuffix(path, filepath.Ext(path)) + "_analysis.json"
			bs, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				klog.Errorf("marshal %s: %v", path, err)
				return nil
			}
			if err := os.WriteFile(out, bs, 0o644); err != nil {
				klog.Errorf("write %s: %v", out, err)
				return nil
			}

			if a.RiskDetected {
				klog.Infof("%s: %s %q (%s)", path, a.RiskType, a.Name, a.Severity)
			} else {
				klog.Infof("%s: no risk detected", path)
			}
			return nil
		},
	})
	if err != nil {
		klog.Exitf("walk failed: %v", err)
	}

	klog.Infof("analyzed %d images", analyzed)
}
