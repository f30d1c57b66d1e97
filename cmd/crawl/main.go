// crawl downloads candidate images for agricultural risks listed in CSV
// tables, filing them under the shared identity naming scheme.
package main

import (
	"context"
	"flag"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"

	"github.com/agrovision/cropscout/pkg/crawl"
)

var (
	engine        = flag.String("engine", "google", "search engine: google, yandex or both")
	maxImages     = flag.Int("max-images", 10, "maximum images to download per risk")
	csvFile       = flag.String("csv", "", "process a single CSV file instead of the whole table directory")
	csvDir        = flag.String("csv-dir", "csv_output", "directory holding the input CSV tables")
	outDir        = flag.String("out", filepath.Join("download", "images"), "image inventory root")
	delay         = flag.Float64("delay", 2.0, "delay between risk records in seconds")
	downloadDelay = flag.Float64("download-delay", 2.0, "delay between download attempts in seconds")
	timeout       = flag.Duration("timeout", 15*time.Second, "per-request timeout")
	watchFlag     = flag.Bool("watch", false, "watch the table directory and re-crawl on new tables")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	e, err := crawl.ParseEngine(*engine)
	if err != nil {
		klog.Exitf("%v", err)
	}

	cfg := &crawl.Config{
		TableDir:      *csvDir,
		Table:         *csvFile,
		BaseDir:       *outDir,
		Engine:        e,
		MaxImages:     *maxImages,
		RecordDelay:   time.Duration(*delay * float64(time.Second)),
		DownloadDelay: time.Duration(*downloadDelay * float64(time.Second)),
		Timeout:       *timeout,
	}

	c := crawl.New(cfg)
	ctx := context.Background()

	if err := c.Run(ctx); err != nil {
		klog.Exitf("crawl failed: %v", err)
	}

	if *watchFlag {
		if err := watch(ctx, c, *csvDir); err != nil {
			klog.Exitf("watch failed: %v", err)
		}
	}
}

// watch re-crawls whenever a table appears or changes in dir.
func watch(ctx context.Context, c *crawl.Crawler, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	klog.Infof("watching %s for new tables ...", dir)

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".csv") {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				klog.Infof("table change: %s", event)
				if err := c.ProcessTable(ctx, event.Name); err != nil {
					klog.Errorf("re-crawl of %s failed: %v", event.Name, err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
