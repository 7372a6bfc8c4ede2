package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papermill_reel_tracker/app"
	"papermill_reel_tracker/badgerstore"
	"papermill_reel_tracker/config"
	"papermill_reel_tracker/extract"
	"papermill_reel_tracker/lock"
	"papermill_reel_tracker/metrics"
	"papermill_reel_tracker/reel"
	"papermill_reel_tracker/session"
)

const issuer = "test-issuer"

type harness struct {
	t *testing.T
	r *gin.Engine
}

func newHarness(t *testing.T, extractURL string) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bs, err := badgerstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	cfg := config.Config{
		SessionTTL:         time.Hour,
		SessionIssuerToken: issuer,
		WebOrigin:          "http://localhost:5173",
	}

	a := &app.App{
		Config:  cfg,
		Log:     log,
		RDB:     rdb,
		Badger:  bs,
		Metrics: m,
		Service: reel.NewService(bs,
			reel.WithLocker(lock.NewRedis(rdb, 5*time.Second, log)),
			reel.WithObserver(m),
			reel.WithLogger(log),
		),
		Sessions:  session.NewAppSessionStore(rdb, cfg.SessionTTL),
		Extractor: extract.NewClient(extractURL, 5*time.Second),
	}
	a.Router = gin.New()
	a.Router.Use(m.Middleware())
	RegisterRoutes(a.Router, a)
	return &harness{t: t, r: a.Router}
}

func (h *harness) do(method, path string, body any, cookie string) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: app.AppSessionCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

// login opens a session the way the identity service would.
func (h *harness) login(userID string, role session.Role) string {
	h.t.Helper()
	b, _ := json.Marshal(map[string]string{"userId": userID, "role": string(role)})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(app.IssuerTokenHeader, issuer)
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	for _, ck := range w.Result().Cookies() {
		if ck.Name == app.AppSessionCookie {
			return ck.Value
		}
	}
	h.t.Fatal("no session cookie set")
	return ""
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestReelLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t, "")
	office := h.login("alice", session.RoleOffice)
	manager := h.login("mona", session.RoleManager)
	op := h.login("op1", session.RoleOperator)

	w := h.do(http.MethodPost, "/api/reels", map[string]any{
		"reelNo": "R-100", "size": "70x100", "gsm": 80, "quality": "Maplitho", "mill": "North", "weight": "500",
	}, office)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, "80", created["gsm"])
	assert.Equal(t, "pending", created["stage"])

	w = h.do(http.MethodPost, "/api/reels/"+id+"/assign", map[string]string{"operator": "op1"}, manager)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/api/my/current", nil, op)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["reel"])

	w = h.do(http.MethodGet, "/api/my/reels", nil, op)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["reels"], 1)

	w = h.do(http.MethodPost, "/api/my/reels/"+id+"/start", nil, op)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["inProgress"])

	w = h.do(http.MethodGet, "/api/my/current", nil, op)
	cur := decode(t, w)["reel"].(map[string]any)
	assert.Equal(t, id, cur["id"])

	w = h.do(http.MethodPost, "/api/my/reels/"+id+"/output", map[string]any{
		"outputReams": 30, "looseSheets": 250, "outputLength": "70", "outputWidth": 50,
	}, op)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode(t, w)
	assert.Equal(t, "ruled", done["stage"])
	assert.NotEmpty(t, done["ruledDate"])
	y := done["yield"].(map[string]any)
	assert.InDelta(t, 14.0, y["reamWeight"], 1e-9)
	assert.InDelta(t, 85.4, y["yieldPercent"], 1e-6)
	assert.Equal(t, "warning", y["band"])

	// completed reels take edits, not a second recording
	w = h.do(http.MethodPost, "/api/my/reels/"+id+"/output", map[string]any{
		"outputReams": 31, "looseSheets": 0, "outputLength": 70, "outputWidth": 50,
	}, op)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/my/reels/completed", nil, op)
	assert.Len(t, decode(t, w)["reels"], 1)

	w = h.do(http.MethodGet, "/api/reports/yield?operator=op1", nil, manager)
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode(t, w)
	assert.Len(t, rep["rows"], 1)
	assert.InDelta(t, 85.4, rep["averageYield"], 1e-6)

	w = h.do(http.MethodGet, "/api/reports/summary", nil, office)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["completed"])

	w = h.do(http.MethodPut, "/api/reels/"+id+"/remarks", map[string]string{"remarks": "edge torn"}, office)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "edge torn", decode(t, w)["remarks"])
}

func TestRolesAndSessions(t *testing.T) {
	h := newHarness(t, "")
	office := h.login("alice", session.RoleOffice)
	manager := h.login("mona", session.RoleManager)
	op := h.login("op1", session.RoleOperator)

	t.Run("issuer token", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/sessions", map[string]string{"userId": "x", "role": "office"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no session", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/reels", nil, "").Code)
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/reels", nil, "bogus").Code)
	})

	t.Run("role gates", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/reels", nil, op).Code)
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/my/reels", nil, office).Code)
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/api/reels/x", nil, manager).Code)
		assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/reels/x", nil, office).Code)
	})

	t.Run("whoami", func(t *testing.T) {
		w := h.do(http.MethodGet, "/api/whoami", nil, manager)
		require.Equal(t, http.StatusOK, w.Code)
		me := decode(t, w)
		assert.Equal(t, "mona", me["userId"])
		assert.Equal(t, "manager", me["role"])
	})

	t.Run("revoke", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, h.do(http.MethodDelete, "/api/sessions/users/mona", nil, manager).Code)
		assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/sessions/users/op1", nil, manager).Code)
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/my/reels", nil, op).Code)
	})

	t.Run("logout", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/sessions", nil, office).Code)
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/whoami", nil, office).Code)
	})
}

func TestValidationAndOptionsOverHTTP(t *testing.T) {
	h := newHarness(t, "")
	office := h.login("alice", session.RoleOffice)

	w := h.do(http.MethodPost, "/api/options/gsm", map[string]string{"value": "58"}, office)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/api/options/gsm", map[string]string{"value": "58"}, office)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodPost, "/api/options/colour", map[string]string{"value": "blue"}, office)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/reels", map[string]any{
		"reelNo": "R-1", "size": "70x100", "gsm": "70", "quality": "Q", "mill": "M", "weight": 100,
	}, office)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "gsm", decode(t, w)["field"])

	w = h.do(http.MethodPost, "/api/reels", map[string]any{
		"reelNo": "R-1", "size": "70x100", "gsm": "58", "quality": "Q", "mill": "M", "weight": "heavy",
	}, office)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "weight", decode(t, w)["field"])

	w = h.do(http.MethodDelete, "/api/options/gsm?value=58", nil, office)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodDelete, "/api/options/gsm?value=58", nil, office)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/options", nil, office)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["options"], "gsm")
}

func upload(t *testing.T, path, cookie string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("pdf", "note.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: app.AppSessionCookie, Value: cookie})
	return req
}

func TestExtractOverHTTP(t *testing.T) {
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"reels":[
			{"reelNo":"D-1","weight":"480","gsm":"58","size":"70x100","mill":"North","quality":"Maplitho"},
			{"reelNo":"D-2","weight":"","gsm":"58","size":"70x100","mill":"North","quality":"Maplitho"}
		],"text":"delivery note"}`)
	}))
	t.Cleanup(svc.Close)

	h := newHarness(t, svc.URL)
	office := h.login("alice", session.RoleOffice)

	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, upload(t, "/api/extract", office))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["reels"], 2)

	w = httptest.NewRecorder()
	h.r.ServeHTTP(w, upload(t, "/api/extract?create=true", office))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := decode(t, w)["results"].([]any)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].(map[string]any)["reel"])
	assert.Equal(t, "weight", results[1].(map[string]any)["field"])

	w = h.do(http.MethodGet, "/api/reels?q=d-", nil, office)
	assert.Len(t, decode(t, w)["reels"], 1)
}

func TestExtractDisabled(t *testing.T) {
	h := newHarness(t, "")
	office := h.login("alice", session.RoleOffice)
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, upload(t, "/api/extract", office))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, "")
	w := h.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	office := h.login("alice", session.RoleOffice)
	h.do(http.MethodGet, "/api/reels", nil, office)

	w = h.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "reeltrack_http_requests_total"))
}
