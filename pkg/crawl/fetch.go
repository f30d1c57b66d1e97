package crawl

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// minImageBytes guards against error pages served with an image content
// type.
const minImageBytes = 1000

// Fetcher downloads and validates single images.
type Fetcher struct {
	// Client is exported so tests can swap the transport.
	Client *http.Client
	agents *agentPool
}

func NewFetcher(cfg *Config) *Fetcher {
	return &Fetcher{
		Client: newHTTPClient(cfg.Timeout),
		agents: newAgentPool(cfg.UserAgents),
	}
}

// Download fetches url into dest and reports whether dest now holds a valid
// image. The real extension is inferred from the response content type and
// overrides whatever dest carries. Rejected payloads (non-success status,
// non-image content type, undersized body) leave no file behind, and a
// pre-existing destination is treated as already downloaded.
func (f *Fetcher) Download(ctx context.Context, url, dest string) bool {
	if _, err := os.Stat(dest); err == nil {
		klog.V(1).Infof("%s already exists, skipping", dest)
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		klog.Warningf("bad image URL %q: %v", url, err)
		return false
	}
	req.Header.Set("User-Agent", f.agents.pick())

	resp, err := f.Client.Do(req)
	if err != nil {
		klog.Warningf("download failed for %s: %v", url, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		klog.Warningf("skipping %s: status %d", url, resp.StatusCode)
		return false
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		klog.Warningf("skipping %s: not an image (Content-Type: %s)", url, ct)
		return false
	}

	dest = withExt(dest, extForContentType(ct))
	if _, err := os.Stat(dest); err == nil {
		klog.V(1).Infof("%s already exists, skipping", dest)
		return true
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		klog.Warningf("read failed for %s: %v", url, err)
		return false
	}
	if len(data) < minImageBytes {
		klog.Warningf("skipping %s: suspiciously small payload (%d bytes)", url, len(data))
		return false
	}

	// Write via a temp file so dest is either complete or absent.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		klog.Errorf("temp file for %s: %v", dest, err)
		return false
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		klog.Errorf("write %s: %v", dest, err)
		return false
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		klog.Errorf("close %s: %v", dest, err)
		return false
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		klog.Errorf("rename to %s: %v", dest, err)
		return false
	}

	klog.Infof("downloaded %s -> %s", url, dest)
	return true
}

// extForContentType maps an image media type to a file extension, defaulting
// to jpg.
func extForContentType(ct string) string {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "image/png"):
		return "png"
	case strings.Contains(ct, "image/webp"):
		return "webp"
	case strings.Contains(ct, "image/gif"):
		return "gif"
	default:
		return "jpg"
	}
}

func withExt(path, ext string) string {
	old := filepath.Ext(path)
	return strings.TrimSuffix(path, old) + "." + ext
}
