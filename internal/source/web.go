package source

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/geelink/docingest/internal/boilerplate"
	"github.com/geelink/docingest/internal/item"
)

// adPatterns are hostname/path substrings of known ad/tracker domains,
// skipped outright during the crawl (spec.md §4.12 step 3c).
var adPatterns = []string{
	"doubleclick", "googlesyndication", "google-analytics", "googletagmanager",
	"adservice", "adsystem", "adclick", "facebook.com", "facebook.net",
	"baidu.com", "analytics", "tracker", "tracking", "ads.", "ad.",
}

// defaultAllowedExtensions covers the binary document types the crawler
// will download alongside HTML pages, absent a caller override.
var defaultAllowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".txt": true, ".csv": true,
}

// Web is a depth-bounded, scope-restricted crawl starting from a single
// URL (spec.md §4.12). Visited/seen sets are guarded by a mutex since Go's
// goroutines share memory, unlike the reference's cooperative event loop.
type Web struct {
	StartURL          string
	MaxDepth          int
	AllowedExtensions map[string]bool
	Concurrency       int
	AllowSubdomains   bool
	RestrictToPath    bool
	RespectRobots     bool
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

func (Web) Name() string { return "web" }

type crawlTask struct {
	url   string
	depth int
}

func (w Web) Read(ctx context.Context) ([]item.Item, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxDepth := w.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 6
	}
	allowedExt := w.AllowedExtensions
	if allowedExt == nil {
		allowedExt = defaultAllowedExtensions
	}
	client := w.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	startURL, err := url.Parse(strings.TrimSpace(w.StartURL))
	if err != nil || startURL.Host == "" {
		logger.Warn("web: invalid start url", "start_url", w.StartURL, "error", err)
		return nil, nil
	}

	var robots *robotstxt.RobotsData
	if w.RespectRobots {
		robots = fetchRobots(ctx, client, startURL, logger)
	}

	registrableDomain := registrableDomain(startURL.Host)
	startDir := path.Dir(startURL.Path)

	c := &crawler{
		client:            client,
		robots:            robots,
		startHost:         startURL.Host,
		registrableDomain: registrableDomain,
		startDir:          startDir,
		allowSubdomains:   w.AllowSubdomains,
		restrictToPath:    w.RestrictToPath,
		allowedExt:        allowedExt,
		maxDepth:          maxDepth,
		logger:            logger,
		visited:           map[string]bool{},
		seen:              map[string]bool{},
	}

	normalizedStart := normalizeURL(startURL.String())
	c.seen[normalizedStart] = true

	queue := newWorkQueue()
	queue.push(crawlTask{url: normalizedStart, depth: 0})

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := queue.pop()
				if !ok {
					return
				}
				if ctx.Err() == nil {
					c.visit(ctx, task, queue)
				}
				queue.taskDone()
			}
		}()
	}
	wg.Wait()

	return c.results, nil
}

// workQueue is a BFS frontier shared by the crawl's worker pool. pop
// blocks until a task is available or the frontier is permanently
// drained (no queued tasks and no worker currently holding one) -
// tracking in-flight tasks via active is what lets pop distinguish
// "temporarily empty, a worker will push more" from "done".
type workQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []crawlTask
	active int
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *workQueue) push(t crawlTask) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *workQueue) pop() (crawlTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if len(q.tasks) > 0 {
			t := q.tasks[0]
			q.tasks = q.tasks[1:]
			q.active++
			return t, true
		}
		if q.active == 0 {
			q.cond.Broadcast() // wake sibling workers so they can also observe done
			return crawlTask{}, false
		}
		q.cond.Wait()
	}
}

func (q *workQueue) taskDone() {
	q.mu.Lock()
	q.active--
	q.cond.Broadcast()
	q.mu.Unlock()
}

type crawler struct {
	client            *http.Client
	robots            *robotstxt.RobotsData
	startHost         string
	registrableDomain string
	startDir          string
	allowSubdomains   bool
	restrictToPath    bool
	allowedExt        map[string]bool
	maxDepth          int
	logger            *slog.Logger

	mu      sync.Mutex
	visited map[string]bool
	seen    map[string]bool
	results []item.Item
}

func (c *crawler) visit(ctx context.Context, task crawlTask, queue *workQueue) {
	c.mu.Lock()
	if c.visited[task.url] {
		c.mu.Unlock()
		return
	}
	c.visited[task.url] = true
	c.mu.Unlock()

	if isAdURL(task.url) {
		return
	}
	if c.robots != nil {
		if group := c.robots.FindGroup("*"); group != nil && !group.Test(task.url) {
			return
		}
	}
	if !c.inScope(task.url) {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.url, nil)
	if err != nil {
		return
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("web: fetch failed", "url", task.url, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("web: reading body failed", "url", task.url, "error", err)
		return
	}

	contentType := resp.Header.Get("Content-Type")

	switch {
	case strings.Contains(contentType, "text/html") || looksLikeHTML(body):
		text := boilerplate.Extract(body)
		score := scoreFor(text, len(body))
		c.addResult(item.Item{
			FileName:   filenameFromURL(task.url),
			Binary:     body,
			RawText:    text,
			HasRawText: true,
			SourcePath: task.url,
			SourceType: item.SourceWeb,
			Score:      score,
		})

		if task.depth < c.maxDepth {
			for _, link := range extractLinks(body, task.url) {
				normalized := normalizeURL(link)
				c.mu.Lock()
				already := c.seen[normalized]
				if !already {
					c.seen[normalized] = true
				}
				c.mu.Unlock()
				if already || isAdURL(normalized) || !c.inScope(normalized) {
					continue
				}
				queue.push(crawlTask{url: normalized, depth: task.depth + 1})
			}
		}

	case isDownloadableContentType(contentType, task.url, c.allowedExt):
		c.addResult(item.Item{
			FileName:   filenameFromURL(task.url),
			Binary:     body,
			SourcePath: task.url,
			SourceType: item.SourceWeb,
			Score:      0.0,
		})
	}
}

func (c *crawler) addResult(it item.Item) {
	c.mu.Lock()
	c.results = append(c.results, it)
	c.mu.Unlock()
}

// inScope implements spec.md §4.12 step 3d.
func (c *crawler) inScope(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Host
	switch {
	case host == c.startHost:
	case c.allowSubdomains && c.registrableDomain != "" && strings.HasSuffix(host, "."+c.registrableDomain):
	default:
		return false
	}
	if c.restrictToPath && !strings.HasPrefix(parsed.Path, c.startDir) {
		return false
	}
	return true
}

func isAdURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range adPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func scoreFor(text string, byteLen int) float64 {
	if byteLen == 0 {
		byteLen = 1
	}
	score := (float64(len(text)) / float64(byteLen)) * 10
	if score > 1.0 {
		score = 1.0
	}
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(score, 'f', 4, 64), 64)
	return rounded
}

func isDownloadableContentType(contentType, rawURL string, allowedExt map[string]bool) bool {
	if strings.Contains(contentType, "application/pdf") || strings.Contains(contentType, "application/octet-stream") {
		return true
	}
	ext := strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0]))
	return allowedExt[ext]
}

func looksLikeHTML(body []byte) bool {
	prefix := strings.ToLower(strings.TrimSpace(string(body[:min(512, len(body))])))
	return strings.Contains(prefix, "<html") || strings.Contains(prefix, "<!doctype html")
}

func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String()
}

func registrableDomain(host string) string {
	host = strings.ToLower(host)
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

func extractLinks(body []byte, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				abs, err := base.Parse(attr.Val)
				if err != nil {
					continue
				}
				links = append(links, abs.String())
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func fetchRobots(ctx context.Context, client *http.Client, startURL *url.URL, logger *slog.Logger) *robotstxt.RobotsData {
	robotsURL := &url.URL{Scheme: startURL.Scheme, Host: startURL.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil
	}
	resp, err := client.Do(req)
	if err != nil {
		logger.Debug("web: robots.txt fetch failed, proceeding unrestricted", "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}
