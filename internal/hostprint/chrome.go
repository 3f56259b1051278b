package hostprint

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// 80mm in inches, the unit PrintToPDF expects
const paperWidthInches = 80 / 25.4

// ChromeOptions configures a ChromeSurface
type ChromeOptions struct {
	// ExecPath is the Chrome binary; empty means FindChrome
	ExecPath string
	// SpoolDir receives the rendered PDFs; empty means the OS temp dir
	SpoolDir string
	// Command is run once per copy with the PDF path appended. Required.
	Command string
	// SettleDelay is the wait between loading the page and printing it
	SettleDelay time.Duration
}

// ChromeSurface renders fallback documents with headless Chrome
type ChromeSurface struct {
	opts   ChromeOptions
	logger *zap.Logger

	render func(ctx context.Context, execPath string, document []byte, settle time.Duration) ([]byte, error)
	run    func(ctx context.Context, argv []string) error
}

// NewChromeSurface creates a ChromeSurface. Chrome is located lazily on each print.
func NewChromeSurface(opts ChromeOptions, logger *zap.Logger) *ChromeSurface {
	return &ChromeSurface{
		opts:   opts,
		logger: logger,
		render: renderPDF,
		run:    runCommand,
	}
}

// Print renders the document to PDF once, writes it to the spool directory
// and runs the print command for every copy. Without a print command nothing
// reaches paper, so the surface reports itself unavailable.
func (s *ChromeSurface) Print(ctx context.Context, job Job) error {
	argv := strings.Fields(s.opts.Command)
	if len(argv) == 0 {
		return fmt.Errorf("%w: no print command configured", ErrSurfaceUnavailable)
	}

	execPath, err := s.execPath()
	if err != nil {
		return err
	}

	pdf, err := s.render(ctx, execPath, job.Document, s.opts.SettleDelay)
	if err != nil {
		return fmt.Errorf("render fallback document: %w", err)
	}

	path, err := s.spool(job.Name, pdf)
	if err != nil {
		return err
	}
	s.logger.Info("fallback document spooled", zap.String("path", path), zap.Int("bytes", len(pdf)))

	argv = append(argv, path)

	copies := max(job.Copies, 1)
	for i := 0; i < copies; i++ {
		if err := s.run(ctx, argv); err != nil {
			return fmt.Errorf("print copy %d/%d: %w", i+1, copies, err)
		}
	}

	return nil
}

func (s *ChromeSurface) execPath() (string, error) {
	if s.opts.ExecPath != "" {
		if _, err := os.Stat(s.opts.ExecPath); err != nil {
			return "", fmt.Errorf("%w: chrome not found at %s", ErrSurfaceUnavailable, s.opts.ExecPath)
		}
		return s.opts.ExecPath, nil
	}

	path, ok := FindChrome()
	if !ok {
		return "", fmt.Errorf("%w: chrome/chromium is not installed", ErrSurfaceUnavailable)
	}
	return path, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *ChromeSurface) spool(name string, pdf []byte) (string, error) {
	dir := s.opts.SpoolDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "kot-bridge")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create spool dir: %w", err)
	}

	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" {
		name = "kot"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", name, time.Now().UnixNano()))

	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write spool file: %w", err)
	}
	return path, nil
}

func renderPDF(ctx context.Context, execPath string, document []byte, settle time.Duration) ([]byte, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	cdpCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(cdpCtx,
		chromedp.Navigate("data:text/html;charset=utf-8;base64,"+base64.StdEncoding.EncodeToString(document)),
		chromedp.Sleep(settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidthInches).
				WithPreferCSSPageSize(true).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdf, nil
}

func runCommand(ctx context.Context, argv []string) error {
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// FindChrome looks for google-chrome or chromium on PATH and in the usual
// install locations
func FindChrome() (string, bool) {
	binaries := []string{
		"google-chrome",
		"google-chrome-stable",
		"chromium",
		"chromium-browser",
	}

	for _, bin := range binaries {
		if path, err := exec.LookPath(bin); err == nil {
			return path, true
		}
	}

	for _, path := range commonChromePaths() {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return "", false
}

func commonChromePaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
	default:
		return nil
	}
}
