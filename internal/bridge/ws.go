package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Calls understood by the daemon
const (
	CallCertificate  = "certificate"
	CallGetVersion   = "websocket.getVersion"
	CallFindPrinters = "printers.find"
	CallPrint        = "print"
)

// Request is an outbound frame
type Request struct {
	UID       string `json:"uid"`
	Call      string `json:"call"`
	Params    any    `json:"params,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// Response is the daemon's answer to a Request with the same uid
type Response struct {
	UID    string          `json:"uid"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// PrintData is one element of the print call's data array
type PrintData struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Data   string `json:"data"`
}

type printParams struct {
	Printer string      `json:"printer"`
	Job     string      `json:"job,omitempty"`
	Data    []PrintData `json:"data"`
}

// SignaturePayload is the string a Signer signs for a request
func SignaturePayload(call, uid string, timestamp int64) string {
	return call + "|" + uid + "|" + strconv.FormatInt(timestamp, 10)
}

// WSDialer connects to the daemon over a websocket
type WSDialer struct {
	URL              string
	HandshakeTimeout time.Duration
	Logger           *zap.Logger
}

// Dial opens the websocket and runs the certificate and signature steps
func (d *WSDialer) Dial(ctx context.Context, creds Credentials) (Session, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}

	s := newWSSession(conn, creds.Signer, logger)

	cert := ""
	if creds.Certificate != nil {
		if cert, err = creds.Certificate.Certificate(); err != nil {
			s.Close()
			return nil, err
		}
	}

	if _, err := s.call(ctx, CallCertificate, map[string]string{"certificate": cert}); err != nil {
		s.Close()
		return nil, fmt.Errorf("certificate step: %w", err)
	}

	version, err := s.call(ctx, CallGetVersion, nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("signature step: %w", err)
	}

	logger.Debug("bridge handshake complete", zap.String("url", d.URL), zap.ByteString("version", version))
	return s, nil
}

type wsSession struct {
	conn   *websocket.Conn
	signer Signer
	logger *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Response

	done      chan struct{}
	closeOnce sync.Once
}

func newWSSession(conn *websocket.Conn, signer Signer, logger *zap.Logger) *wsSession {
	if signer == nil {
		signer = NullSigner{}
	}

	s := &wsSession{
		conn:    conn,
		signer:  signer,
		logger:  logger,
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}

	go s.readPump()

	return s
}

func (s *wsSession) readPump() {
	defer s.Close()

	for {
		var resp Response
		if err := s.conn.ReadJSON(&resp); err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warn("bridge channel read failed", zap.Error(err))
			}
			return
		}

		s.mu.Lock()
		ch, ok := s.pending[resp.UID]
		delete(s.pending, resp.UID)
		s.mu.Unlock()

		if !ok {
			s.logger.Debug("dropping unsolicited frame", zap.String("uid", resp.UID))
			continue
		}
		ch <- resp
	}
}

func (s *wsSession) call(ctx context.Context, call string, params any) (json.RawMessage, error) {
	select {
	case <-s.done:
		return nil, fmt.Errorf("%s: %w", call, ErrSessionClosed)
	default:
	}

	req := Request{
		UID:       uuid.NewString(),
		Call:      call,
		Params:    params,
		Timestamp: time.Now().UnixMilli(),
	}

	sig, err := s.signer.Sign(SignaturePayload(req.Call, req.UID, req.Timestamp))
	if err != nil {
		return nil, err
	}
	req.Signature = sig

	ch := make(chan Response, 1)
	s.mu.Lock()
	s.pending[req.UID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, req.UID)
		s.mu.Unlock()
	}()

	s.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	} else {
		_ = s.conn.SetWriteDeadline(time.Time{})
	}
	err = s.conn.WriteJSON(req)
	s.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: write: %w", call, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, fmt.Errorf("%s: %s", call, resp.Error)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", call, ctx.Err())
	case <-s.done:
		return nil, fmt.Errorf("%s: %w", call, ErrSessionClosed)
	}
}

func (s *wsSession) FindPrinters(ctx context.Context) ([]string, error) {
	result, err := s.call(ctx, CallFindPrinters, nil)
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || string(result) == "null" {
		return []string{}, nil
	}

	var printers []string
	if err := json.Unmarshal(result, &printers); err != nil {
		// a single default printer comes back as a bare string
		var single string
		if jerr := json.Unmarshal(result, &single); jerr == nil && single != "" {
			return []string{single}, nil
		}
		return nil, fmt.Errorf("decode printers: %w", err)
	}

	return printers, nil
}

func (s *wsSession) Print(ctx context.Context, cfg PrintConfig, data []byte) error {
	params := printParams{
		Printer: cfg.Printer,
		Job:     cfg.JobName,
		Data: []PrintData{{
			Type:   "raw",
			Format: "base64",
			Data:   base64.StdEncoding.EncodeToString(data),
		}},
	}

	_, err := s.call(ctx, CallPrint, params)
	return err
}

func (s *wsSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *wsSession) Done() <-chan struct{} {
	return s.done
}
