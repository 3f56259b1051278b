package hostprint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fakeChrome(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(path, []byte{}, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDisabled(t *testing.T) {
	err := Disabled{Reason: "headless"}.Print(context.Background(), Job{})
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("Expected ErrSurfaceUnavailable, got %v", err)
	}
}

func TestChromeSurface_MissingChrome(t *testing.T) {
	s := NewChromeSurface(ChromeOptions{ExecPath: filepath.Join(t.TempDir(), "nope"), Command: "lp"}, zap.NewNop())

	err := s.Print(context.Background(), Job{Name: "kot", Document: []byte("<html></html>")})
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("Expected ErrSurfaceUnavailable, got %v", err)
	}
}

func TestChromeSurface_SpoolsAndPrintsCopies(t *testing.T) {
	spool := t.TempDir()
	s := NewChromeSurface(ChromeOptions{
		ExecPath:    fakeChrome(t),
		SpoolDir:    spool,
		Command:     "lp -d Kitchen",
		SettleDelay: 250 * time.Millisecond,
	}, zap.NewNop())

	var settle time.Duration
	s.render = func(_ context.Context, _ string, doc []byte, d time.Duration) ([]byte, error) {
		settle = d
		return append([]byte("%PDF-"), doc...), nil
	}
	var runs [][]string
	s.run = func(_ context.Context, argv []string) error {
		runs = append(runs, argv)
		return nil
	}

	if err := s.Print(context.Background(), Job{Name: "KOT 34abcd99", Document: []byte("doc"), Copies: 2}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	if settle != 250*time.Millisecond {
		t.Errorf("Expected settle delay to reach the renderer, got %v", settle)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 print commands, got %d", len(runs))
	}

	argv := runs[0]
	if argv[0] != "lp" || argv[1] != "-d" || argv[2] != "Kitchen" {
		t.Errorf("Unexpected command: %v", argv)
	}
	pdfPath := argv[3]
	if !strings.HasPrefix(filepath.Base(pdfPath), "KOT_34abcd99_") || filepath.Dir(pdfPath) != spool {
		t.Errorf("Unexpected spool path %s", pdfPath)
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("Spool file missing: %v", err)
	}
	if string(data) != "%PDF-doc" {
		t.Errorf("Unexpected spool content %q", data)
	}
}

func TestChromeSurface_CommandFailure(t *testing.T) {
	s := NewChromeSurface(ChromeOptions{ExecPath: fakeChrome(t), SpoolDir: t.TempDir(), Command: "lp"}, zap.NewNop())
	s.render = func(context.Context, string, []byte, time.Duration) ([]byte, error) { return []byte("%PDF-"), nil }
	s.run = func(context.Context, []string) error { return errors.New("no default destination") }

	err := s.Print(context.Background(), Job{Name: "kot", Copies: 2})
	if err == nil || !strings.Contains(err.Error(), "copy 1/2") {
		t.Errorf("Expected first copy failure, got %v", err)
	}
}

func TestChromeSurface_RenderFailure(t *testing.T) {
	s := NewChromeSurface(ChromeOptions{ExecPath: fakeChrome(t), SpoolDir: t.TempDir(), Command: "lp"}, zap.NewNop())
	s.render = func(context.Context, string, []byte, time.Duration) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}

	if err := s.Print(context.Background(), Job{Name: "kot"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected render error, got %v", err)
	}
}

func TestChromeSurface_NoCommandIsUnavailable(t *testing.T) {
	spool := t.TempDir()
	s := NewChromeSurface(ChromeOptions{ExecPath: fakeChrome(t), SpoolDir: spool, Command: "  "}, zap.NewNop())

	rendered := 0
	s.render = func(context.Context, string, []byte, time.Duration) ([]byte, error) {
		rendered++
		return []byte("%PDF-"), nil
	}
	runs := 0
	s.run = func(context.Context, []string) error {
		runs++
		return nil
	}

	err := s.Print(context.Background(), Job{Name: "kot", Document: []byte("doc"), Copies: 2})
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("Expected ErrSurfaceUnavailable, got %v", err)
	}
	if rendered != 0 || runs != 0 {
		t.Errorf("Expected no render and no command, got %d renders and %d runs", rendered, runs)
	}

	entries, err := os.ReadDir(spool)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty spool dir, got %d files", len(entries))
	}
}
