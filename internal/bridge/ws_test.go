package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// fakeDaemon answers the bridge calls over a websocket
type fakeDaemon struct {
	printers   []string
	rejectCert bool
	silentCall string

	mu       sync.Mutex
	calls    []Request
	printed  [][]byte
	conns    []*websocket.Conn
	upgrader websocket.Upgrader
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		d.mu.Lock()
		d.calls = append(d.calls, req)
		d.mu.Unlock()

		if req.Call == d.silentCall {
			continue
		}

		resp := Response{UID: req.UID}
		switch req.Call {
		case CallCertificate:
			if d.rejectCert {
				resp.Error = "certificate rejected"
			}
		case CallGetVersion:
			resp.Result = json.RawMessage(`"2.2.4"`)
		case CallFindPrinters:
			resp.Result, _ = json.Marshal(d.printers)
		case CallPrint:
			var params printParams
			raw, _ := json.Marshal(req.Params)
			_ = json.Unmarshal(raw, &params)
			for _, item := range params.Data {
				data, _ := base64.StdEncoding.DecodeString(item.Data)
				d.mu.Lock()
				d.printed = append(d.printed, data)
				d.mu.Unlock()
			}
		default:
			resp.Error = "unknown call " + req.Call
		}

		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (d *fakeDaemon) dropAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.conns {
		c.Close()
	}
}

func startDaemon(t *testing.T, d *fakeDaemon) *WSDialer {
	t.Helper()
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	return &WSDialer{
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		HandshakeTimeout: time.Second,
		Logger:           zap.NewNop(),
	}
}

func TestWSDialer_Handshake(t *testing.T) {
	daemon := &fakeDaemon{printers: []string{"Kitchen-1", "Bar"}}
	dialer := startDaemon(t, daemon)

	session, err := dialer.Dial(context.Background(), TrustedCredentials())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer session.Close()

	daemon.mu.Lock()
	calls := append([]Request(nil), daemon.calls...)
	daemon.mu.Unlock()

	if len(calls) != 2 || calls[0].Call != CallCertificate || calls[1].Call != CallGetVersion {
		t.Fatalf("Expected certificate then getVersion, got %+v", calls)
	}
	if calls[0].UID == "" || calls[0].UID == calls[1].UID {
		t.Error("Expected unique request uids")
	}

	printers, err := session.FindPrinters(context.Background())
	if err != nil {
		t.Fatalf("FindPrinters failed: %v", err)
	}
	if len(printers) != 2 || printers[0] != "Kitchen-1" {
		t.Errorf("Unexpected printers: %v", printers)
	}
}

func TestWSDialer_CertificateRejected(t *testing.T) {
	dialer := startDaemon(t, &fakeDaemon{rejectCert: true})

	_, err := dialer.Dial(context.Background(), TrustedCredentials())
	if err == nil || !strings.Contains(err.Error(), "certificate rejected") {
		t.Errorf("Expected certificate rejection, got %v", err)
	}
}

func TestWSDialer_Unreachable(t *testing.T) {
	dialer := &WSDialer{URL: "ws://127.0.0.1:1", HandshakeTimeout: 200 * time.Millisecond}

	if _, err := dialer.Dial(context.Background(), TrustedCredentials()); err == nil {
		t.Error("Expected dial error")
	}
}

func TestWSSession_Print(t *testing.T) {
	daemon := &fakeDaemon{}
	session, err := startDaemon(t, daemon).Dial(context.Background(), TrustedCredentials())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer session.Close()

	payload := []byte{0x1B, '@', 'K', 'O', 'T'}
	if err := session.Print(context.Background(), PrintConfig{Printer: "Kitchen-1", JobName: "KOT"}, payload); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	daemon.mu.Lock()
	defer daemon.mu.Unlock()
	if len(daemon.printed) != 1 || string(daemon.printed[0]) != string(payload) {
		t.Errorf("Expected payload to reach daemon, got %q", daemon.printed)
	}
}

func TestWSSession_Timeout(t *testing.T) {
	session, err := startDaemon(t, &fakeDaemon{silentCall: CallPrint}).Dial(context.Background(), TrustedCredentials())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = session.Print(ctx, PrintConfig{Printer: "Kitchen-1"}, []byte("x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestWSSession_DoneOnDrop(t *testing.T) {
	daemon := &fakeDaemon{}
	session, err := startDaemon(t, daemon).Dial(context.Background(), TrustedCredentials())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	daemon.dropAll()

	select {
	case <-session.Done():
	case <-time.After(time.Second):
		t.Fatal("Expected Done to close when the daemon drops the channel")
	}

	if _, err := session.FindPrinters(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
}

func TestWSSession_SignsRequests(t *testing.T) {
	signer, err := ParseRSASigner(testKeyPEM(t))
	if err != nil {
		t.Fatalf("ParseRSASigner failed: %v", err)
	}

	daemon := &fakeDaemon{}
	session, err := startDaemon(t, daemon).Dial(context.Background(), Credentials{
		Certificate: NullCertificate{},
		Signer:      signer,
	})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer session.Close()

	daemon.mu.Lock()
	defer daemon.mu.Unlock()
	for _, req := range daemon.calls {
		if err := verifySignature(signer.Public(), SignaturePayload(req.Call, req.UID, req.Timestamp), req.Signature); err != nil {
			t.Errorf("%s: bad signature: %v", req.Call, err)
		}
	}
}

func TestManager_SilentDaemonHandshakeTimesOut(t *testing.T) {
	daemon := &fakeDaemon{silentCall: CallCertificate}
	m := NewManager(startDaemon(t, daemon), Options{DialTimeout: 100 * time.Millisecond}, zap.NewNop())

	result := make(chan error, 1)
	go func() { result <- m.Connect(context.Background()) }()

	select {
	case err := <-result:
		if !errors.Is(err, ErrBridgeUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected unavailable after handshake deadline, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Connect blocked on a daemon that never answers the handshake")
	}

	if m.State() != Disconnected {
		t.Errorf("Expected disconnected, got %s", m.State())
	}
}
