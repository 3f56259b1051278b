package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thereceipt/kot-bridge/internal/dispatch"
)

func newFakeService(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var calls []string
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/bridge", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"state": "disconnected"})
	})
	mux.HandleFunc("/bridge/connect", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"state": "disconnected", "error": "bridge unavailable: dial refused"})
	})
	mux.HandleFunc("/printers", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"printers": []string{"Kitchen", "Bar"}, "selected": "Bar"})
	})
	mux.HandleFunc("/printers/select", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]string{"selected": body["name"]})
	})
	mux.HandleFunc("/print", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		if !json.Valid(data) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad order"})
			return
		}
		writeJSON(w, http.StatusOK, dispatch.Outcome{
			ID:          "job-1",
			OrderID:     "665f1c2ab4e9d01234abcd99",
			OrderNumber: "34abcd99",
			Tier:        dispatch.TierMock,
			Copies:      1,
			Absorbed:    []string{"bridge unavailable"},
			Rendered:    "KOT",
			StartedAt:   time.Date(2026, 10, 18, 14, 5, 9, 0, time.UTC),
		})
	})
	mux.HandleFunc("/job/missing", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
	})
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": []dispatch.Outcome{}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRunStatus(t *testing.T) {
	srv, calls := newFakeService(t)

	var out bytes.Buffer
	if err := run([]string{"-s", srv.URL, "status"}, nil, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "bridge disconnected") {
		t.Errorf("output = %q", out.String())
	}
	if len(*calls) != 1 || (*calls)[0] != "GET /bridge" {
		t.Errorf("calls = %v", *calls)
	}
}

func TestRunConnectReportsServerError(t *testing.T) {
	srv, _ := newFakeService(t)

	err := run([]string{"--server", srv.URL, "connect"}, nil, io.Discard)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "dial refused") {
		t.Errorf("error = %v", err)
	}
}

func TestRunPrinterList(t *testing.T) {
	srv, _ := newFakeService(t)

	var out bytes.Buffer
	if err := run([]string{"-s", srv.URL, "printer", "list"}, nil, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Kitchen", "Bar"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestRunPrinterSelect(t *testing.T) {
	srv, calls := newFakeService(t)

	var out bytes.Buffer
	if err := run([]string{"-s", srv.URL, "printer", "select", "Kitchen"}, nil, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "selected Kitchen") {
		t.Errorf("output = %q", out.String())
	}
	if (*calls)[0] != "POST /printers/select" {
		t.Errorf("calls = %v", *calls)
	}
}

func TestRunPrintFromStdin(t *testing.T) {
	srv, _ := newFakeService(t)

	stdin := strings.NewReader(`{"_id":"665f1c2ab4e9d01234abcd99","items":[{"name":"Tea","quantity":2,"price":20}]}`)
	var out bytes.Buffer
	if err := run([]string{"-s", srv.URL, "print", "-"}, stdin, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"recorded-as-mock", "34abcd99", "bridge unavailable"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestRunPrintRejectsInvalidJSON(t *testing.T) {
	srv, calls := newFakeService(t)

	err := run([]string{"-s", srv.URL, "print", "-"}, strings.NewReader("{not json"), io.Discard)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(*calls) != 0 {
		t.Errorf("invalid order reached the server: %v", *calls)
	}
}

func TestRunJobCommands(t *testing.T) {
	srv, calls := newFakeService(t)

	var out bytes.Buffer
	if err := run([]string{"-s", srv.URL, "job", "list"}, nil, &out); err != nil {
		t.Fatalf("job list: %v", err)
	}
	if !strings.Contains(out.String(), "no tickets dispatched") {
		t.Errorf("output = %q", out.String())
	}

	if err := run([]string{"-s", srv.URL, "job", "status", "missing"}, nil, io.Discard); err == nil || !strings.Contains(err.Error(), "job not found") {
		t.Errorf("job status error = %v", err)
	}

	if err := run([]string{"-s", srv.URL, "job", "clear"}, nil, io.Discard); err != nil {
		t.Fatalf("job clear: %v", err)
	}
	if last := (*calls)[len(*calls)-1]; last != "DELETE /jobs" {
		t.Errorf("last call = %q", last)
	}
}

func TestRunUsageErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"bogus"},
		{"print"},
		{"print-order"},
		{"printer"},
		{"printer", "select"},
		{"job", "status"},
	}

	for _, args := range cases {
		err := run(args, nil, io.Discard)
		if !errors.Is(err, errUsage) {
			t.Errorf("run(%v) = %v, want usage error", args, err)
		}
	}
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--help"}, nil, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "print-order <id>") {
		t.Errorf("usage missing commands: %q", out.String())
	}
}
