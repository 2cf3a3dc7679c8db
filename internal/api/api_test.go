package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/chemid/internal/lookup"
	"github.com/starford/chemid/internal/pubchem"
	"github.com/starford/chemid/internal/testutil"
)

// testEnv wires a router against a fake PubChem upstream.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*testutil.FakePubChem, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*testutil.FakePubChem, http.Handler) {
	t.Helper()
	srv := testutil.NewFakePubChem(t)
	client := pubchem.New(testutil.Fetcher(srv), pubchem.WithBaseURL(srv.URL), pubchem.WithLogger(testutil.Logger()))
	router := NewRouter(lookup.NewService(client), authEnabled, token, sseHandler)
	return srv, router
}

func do(t *testing.T, router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestResolveIdentity(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/compounds/lactate/identity", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["cid"] != "91435" || resp["name"] != "lactate" {
		t.Errorf("head = %v", resp)
	}
	parent, _ := resp["parent"].(map[string]any)
	if parent["cid"] != "612" || parent["name"] != "lactic acid" {
		t.Errorf("parent = %v", parent)
	}
	if _, ok := parent["parent"]; ok {
		t.Error("chain should end at 612")
	}
}

func TestResolveIdentity_OldestAndNameTypes(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/compounds/lactate/identity?oldest=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode(t, w); resp["cid"] != "612" {
		t.Errorf("oldest head = %v", resp["cid"])
	}

	w = do(t, router, http.MethodGet, "/compounds/lactic%20acid/identity?name_types=preferred", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode(t, w); resp["name"] != "2-hydroxypropanoic acid" {
		t.Errorf("name = %v", resp["name"])
	}

	w = do(t, router, http.MethodGet, "/compounds/lactate/identity?oldest=maybe", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad oldest = %d, want 400", w.Code)
	}
}

func TestResolveIdentity_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/compounds/unobtainium/identity", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown = %d, want 404", w.Code)
	}
	if resp := decode(t, w); resp["error"] != "not found" {
		t.Errorf("body = %v", resp)
	}
}

func TestUpstreamErrorMapsToBadGateway(t *testing.T) {
	srv, router := testEnv(t, "")
	srv.Fail("/compound/name/lactate/JSON", http.StatusServiceUnavailable)

	w := do(t, router, http.MethodGet, "/compounds/lactate/identity", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	resp := decode(t, w)
	if resp["upstream_status"] != float64(http.StatusServiceUnavailable) {
		t.Errorf("upstream_status = %v", resp["upstream_status"])
	}
}

func TestGetCompound(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/compounds/lactate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	entries, _ := decode(t, w)["PC_Compounds"].([]any)
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestGetSynonyms(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/compounds/tryptophan/synonyms", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if syn, _ := resp["Synonym"].([]any); len(syn) != 4 {
		t.Errorf("synonyms = %v", resp["Synonym"])
	}

	w = do(t, router, http.MethodGet, "/compounds/unobtainium/synonyms", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown = %d, want 404", w.Code)
	}
}

func TestGetCompoundCID(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/compounds/water/cid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode(t, w); resp["cid"] != "962" {
		t.Errorf("cid = %v", resp["cid"])
	}

	w = do(t, router, http.MethodGet, "/compounds/does-not-exist/cid", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown = %d, want 404", w.Code)
	}
}

func TestGetParentCID(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/cids/91435/parent", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["cid"] != "91435" || resp["parent"] != "612" {
		t.Errorf("resp = %v", resp)
	}

	w = do(t, router, http.MethodGet, "/cids/abc/parent", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid cid = %d, want 400", w.Code)
	}
}

func TestGetTitle(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/cids/962/title", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode(t, w); resp["title"] != "Water" {
		t.Errorf("title = %v", resp["title"])
	}

	w = do(t, router, http.MethodGet, "/cids/424242/title", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("untitled = %d, want 404", w.Code)
	}
}

func TestGetDescriptions(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/descriptions?cids=962,222", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	ds, _ := decode(t, w)["descriptions"].([]any)
	if len(ds) != 3 {
		t.Errorf("descriptions = %d, want 3", len(ds))
	}

	w = do(t, router, http.MethodGet, "/descriptions", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing cids = %d, want 400", w.Code)
	}
}

func TestPostTitles_JSON(t *testing.T) {
	srv, router := testEnv(t, "")
	body, _ := json.Marshal(TitlesRequest{CIDs: []string{"222", "280", "962", "977", "424242"}})
	w := do(t, router, http.MethodPost, "/titles", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp TitlesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Titles) != 4 || resp.Titles["280"] != "Carbon dioxide" {
		t.Errorf("titles = %v", resp.Titles)
	}
	if len(resp.Missing) != 1 || resp.Missing[0] != "424242" {
		t.Errorf("missing = %v", resp.Missing)
	}
	if n := srv.RequestCount("/description/JSON"); n != 1 {
		t.Errorf("upstream requests = %d, want 1", n)
	}
}

func TestPostTitles_PlainText(t *testing.T) {
	_, router := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/titles", strings.NewReader("# gases\n222\n280, 977\n"))
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	titles, _ := decode(t, w)["titles"].(map[string]any)
	if len(titles) != 3 || titles["977"] != "Oxygen" {
		t.Errorf("titles = %v", titles)
	}
}

func TestPostTitles_BadBody(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/titles", []byte("{")); w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/titles", []byte(`{"cids": []}`)); w.Code != http.StatusBadRequest {
		t.Errorf("empty cids = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/compounds/water/cid", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	srv, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/compounds/water/cid", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
	if len(srv.Requests()) != 0 {
		t.Error("rejected request must not reach upstream")
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/compounds/water/cid", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_NotMountedWithoutHandler(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("SSE without handler = %d, want 404", w.Code)
	}
}
