package crawl

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/agrovision/cropscout/pkg/risk"
)

// Config carries every knob the crawl needs; nothing is read from package
// state so tests can run fully isolated.
type Config struct {
	// TableDir holds the input CSV tables; Table, when set, restricts the run
	// to that single file.
	TableDir string
	Table    string

	// BaseDir is the root of the image inventory.
	BaseDir string

	Engine    Engine
	MaxImages int

	// RecordDelay separates consecutive risk records; DownloadDelay separates
	// consecutive download attempts. Both are jittered.
	RecordDelay   time.Duration
	DownloadDelay time.Duration

	Timeout    time.Duration
	UserAgents []string

	// Search endpoint overrides, used by tests.
	GoogleURL string
	YandexURL string
}

// Crawler drives the per-risk acquisition loop: one record is fully processed
// before the next begins, keeping request rates low and steady.
type Crawler struct {
	cfg     *Config
	sources []Source
	fetcher *Fetcher
}

// New builds a crawler. Sources default to the engine selection; passing
// them explicitly lets tests stub out the network.
func New(cfg *Config, sources ...Source) *Crawler {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 10
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineGoogle
	}
	if len(sources) == 0 {
		sources = ForEngine(cfg, cfg.Engine)
	}
	return &Crawler{
		cfg:     cfg,
		sources: sources,
		fetcher: NewFetcher(cfg),
	}
}

// Run processes every input table. The only abort conditions are no tables
// found, or a failure in an explicitly requested table; otherwise a bad
// table is logged and the batch moves on, like any per-record failure.
func (c *Crawler) Run(ctx context.Context) error {
	tables, err := c.tables()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.cfg.BaseDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.cfg.BaseDir, err)
	}

	for _, t := range tables {
		if err := c.ProcessTable(ctx, t); err != nil {
			if c.cfg.Table != "" {
				return err
			}
			klog.Errorf("skipping table %s: %v", t, err)
		}
	}

	klog.Infof("crawl finished")
	return nil
}

func (c *Crawler) tables() ([]string, error) {
	if c.cfg.Table != "" {
		p := c.cfg.Table
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.cfg.TableDir, p)
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("table %s: %w", p, err)
		}
		return []string{p}, nil
	}

	tables, err := risk.Tables(c.cfg.TableDir)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no input tables in %s", c.cfg.TableDir)
	}
	return tables, nil
}

// ProcessTable crawls images for every record in one table.
func (c *Crawler) ProcessTable(ctx context.Context, path string) error {
	cul := risk.ParseTableName(path)
	klog.Infof("processing %s: culture %s (%s), risk type %s", path, cul.CropRU, cul.CropEN, cul.RiskType)

	recs, err := risk.ReadTable(path)
	if err != nil {
		return fmt.Errorf("read table: %w", err)
	}
	if len(recs) == 0 && c.cfg.Table != "" {
		return fmt.Errorf("no rows in %s", path)
	}

	for i, rec := range recs {
		klog.Infof("record %d/%d: %s", i+1, len(recs), rec.Name)
		if err := c.processRisk(ctx, rec, cul); err != nil {
			klog.Errorf("abandoning %q: %v", rec.Name, err)
		}
		c.pause(c.cfg.RecordDelay, 0.2)
	}

	return nil
}

// processRisk walks one record through the acquisition states. The returned
// error covers resource failures only; exhausted searches end the record with
// a warning and partial results are kept.
func (c *Crawler) processRisk(ctx context.Context, rec risk.Record, cul risk.Culture) error {
	if rec.Name == "" {
		klog.Warningf("skipping record without a name: %+v", rec.Extra)
		return nil
	}

	slug, _ := rec.Slug()
	if slug == "" {
		klog.Warningf("skipping %q: no usable directory name", rec.Name)
		return nil
	}

	dir := risk.RiskDir(c.cfg.BaseDir, cul.RiskType, cul.CropEN, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	existing, err := countFiles(dir)
	if err != nil {
		return fmt.Errorf("inventory %s: %w", dir, err)
	}
	if existing >= c.cfg.MaxImages {
		klog.Infof("%s already holds %d images, skipping", slug, existing)
		return nil
	}

	candidates := c.collect(ctx, Queries(rec, cul, c.cfg.Engine))
	if len(candidates) == 0 {
		alt := DegradedQuery(rec, cul)
		klog.Infof("no candidates for %q, retrying with %q", rec.Name, alt)
		candidates = c.collect(ctx, []string{alt})
	}
	if len(candidates) == 0 {
		klog.Warningf("no images found for %q", rec.Name)
		return nil
	}

	id := risk.Derive(cul.RiskType, cul.CropEN, slug)
	need := c.cfg.MaxImages - existing
	downloaded := 0

	for _, u := range candidates {
		if downloaded >= need {
			break
		}

		seq := existing + downloaded + 1
		dest := filepath.Join(dir, risk.ImageName(cul.RiskType, cul.CropEN, id, seq, extFromURL(u)))
		if _, err := os.Stat(dest); err == nil {
			klog.V(1).Infof("%s already exists", dest)
			continue
		}

		if c.fetcher.Download(ctx, u, dest) {
			downloaded++
			klog.Infof("%d/%d images for %s", existing+downloaded, c.cfg.MaxImages, slug)
		}

		c.pause(c.cfg.DownloadDelay, 0.5)
	}

	if existing+downloaded < c.cfg.MaxImages {
		klog.Warningf("exhausted candidates for %q with %d/%d images", rec.Name, existing+downloaded, c.cfg.MaxImages)
	}
	return nil
}

// collect runs queries across all sources in order, merging multi-source
// results round-robin and deduplicating globally.
func (c *Crawler) collect(ctx context.Context, queries []string) []string {
	seen := map[string]bool{}
	var out []string

	for _, q := range queries {
		lists := make([][]string, 0, len(c.sources))
		for _, s := range c.sources {
			klog.Infof("searching %s for %q", s.Name(), q)
			lists = append(lists, s.CandidateURLs(ctx, q, c.cfg.MaxImages))
		}
		for _, u := range interleave(lists) {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}

	return out
}

// pause sleeps for d jittered by ±frac.
func (c *Crawler) pause(d time.Duration, frac float64) {
	if d <= 0 {
		return
	}
	f := 1 - frac + 2*frac*rand.Float64()
	time.Sleep(time.Duration(float64(d) * f))
}

func countFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			n++
		}
	}
	return n, nil
}

// extFromURL guesses an extension from the URL path; the fetcher corrects it
// from the response content type.
func extFromURL(u string) string {
	if hasImageExt(u) {
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.SplitN(u, "?", 2)[0])), ".")
	}
	return "jpg"
}
