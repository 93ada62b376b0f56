package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"clubhouse/internal/app"
	"clubhouse/internal/mailer"
	"clubhouse/internal/platform/config"
	"clubhouse/internal/platform/logger"
)

const defaultClientIP = "192.0.2.10"

// World is the per-scenario state. The application is built lazily on the
// first request so Given steps can still adjust configuration.
type World struct {
	cfg     config.Server
	handler http.Handler
	cancel  context.CancelFunc
	mail    *Mailbox

	clientIP string
	actor    string
	tokens   map[string]string
	people   map[string]string
	vars     map[string]string
	last     *httptest.ResponseRecorder
}

func NewWorld() *World {
	return &World{
		cfg: config.Server{
			Environment:     "test",
			ClientOrigin:    "http://clubhouse.test",
			JWTSigningKey:   "e2e-signing-key",
			JWTIssuer:       "clubhouse",
			TokenTTL:        time.Hour,
			OTPTTL:          10 * time.Minute,
			BcryptCost:      bcrypt.MinCost,
			AuditBufferSize: 1000,
			RateLimit: config.RateLimitConfig{
				AuthPerMinute: 100,
				APIPerMinute:  1000,
			},
		},
		mail:     &Mailbox{},
		clientIP: defaultClientIP,
		tokens:   map[string]string{},
		people:   map[string]string{},
		vars:     map[string]string{},
	}
}

func (w *World) start(ctx context.Context) error {
	if w.handler != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	application, err := app.New(runCtx, w.cfg, app.Deps{
		Stores:   app.InMemoryStores(),
		Mailer:   w.mail,
		Registry: prometheus.NewRegistry(),
		Logger:   logger.Discard(),
	})
	if err != nil {
		cancel()
		return err
	}
	go application.Audit.Run(runCtx)
	w.handler = application.Handler
	w.cancel = cancel
	return nil
}

func (w *World) Close() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *World) configure() error {
	if w.handler != nil {
		return errors.New("configuration must happen before the first request")
	}
	return nil
}

func (w *World) AllowAdmin(address string) error {
	if err := w.configure(); err != nil {
		return err
	}
	w.cfg.BootstrapAdminEmails = append(w.cfg.BootstrapAdminEmails, address)
	return nil
}

func (w *World) SetAuthRateLimit(perMinute int) error {
	if err := w.configure(); err != nil {
		return err
	}
	w.cfg.RateLimit.AuthPerMinute = perMinute
	return nil
}

func (w *World) SetClientIP(ip string) { w.clientIP = ip }

// As sends subsequent requests with the bearer token of address. An empty
// address sends them anonymously.
func (w *World) As(address string) { w.actor = address }

func (w *World) SetSession(address, token, personID string) {
	w.tokens[address] = token
	w.people[address] = personID
}

func (w *World) PersonID(address string) (string, error) {
	pid, ok := w.people[address]
	if !ok {
		return "", fmt.Errorf("%s has no account in this scenario", address)
	}
	return pid, nil
}

func (w *World) Remember(key, value string) { w.vars[key] = value }

func (w *World) Recall(key string) (string, error) {
	v, ok := w.vars[key]
	if !ok {
		return "", fmt.Errorf("nothing remembered under %q", key)
	}
	return v, nil
}

func (w *World) LatestCode(to string) (string, error) { return w.mail.LatestCode(to) }

func (w *World) LatestMail(to string) (mailer.Message, bool) { return w.mail.Latest(to) }

func (w *World) GET(ctx context.Context, path string) error {
	return w.do(ctx, http.MethodGet, path, nil)
}

func (w *World) POST(ctx context.Context, path string, body any) error {
	return w.do(ctx, http.MethodPost, path, body)
}

func (w *World) do(ctx context.Context, method, path string, body any) error {
	if err := w.start(ctx); err != nil {
		return err
	}
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return err
		}
	}
	req := httptest.NewRequestWithContext(ctx, method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "clubhouse-e2e")
	req.Header.Set("X-Forwarded-For", w.clientIP)
	if w.actor != "" {
		token, ok := w.tokens[w.actor]
		if !ok {
			return fmt.Errorf("%s has no session", w.actor)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	w.handler.ServeHTTP(rr, req)
	w.last = rr
	return nil
}

func (w *World) LastStatus() int {
	if w.last == nil {
		return 0
	}
	return w.last.Code
}

func (w *World) LastBody() []byte {
	if w.last == nil {
		return nil
	}
	return w.last.Body.Bytes()
}

// Field walks a dotted path into the last JSON response, e.g. "data.user.id".
// Numeric segments index into arrays.
func (w *World) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(w.LastBody(), &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %q missing in %s", seg, path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("bad index %q in %s", seg, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %s at %q", path, seg)
		}
	}
	return cur, nil
}

func (w *World) StringField(path string) (string, error) {
	v, err := w.Field(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is %T, not a string", path, v)
	}
	return s, nil
}
