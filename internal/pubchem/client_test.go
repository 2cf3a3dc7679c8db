package pubchem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/starford/chemid/internal/apperr"
	"github.com/starford/chemid/internal/cache"
	"github.com/starford/chemid/internal/fetch"
	"github.com/starford/chemid/internal/models"
	"github.com/starford/chemid/internal/testutil"
)

func testClient(t *testing.T, opts ...fetch.Option) (*Client, *testutil.FakePubChem) {
	t.Helper()
	srv := testutil.NewFakePubChem(t)
	c := New(testutil.Fetcher(srv, opts...), WithBaseURL(srv.URL+"/"), WithLogger(testutil.Logger()))
	return c, srv
}

func TestFetchSynonyms(t *testing.T) {
	c, _ := testClient(t)
	syn, err := c.FetchSynonyms(context.Background(), "tryptophan")
	if err != nil {
		t.Fatalf("FetchSynonyms: %v", err)
	}
	if syn == nil {
		t.Fatal("expected synonyms")
	}
	if syn.CID != "6305" {
		t.Errorf("cid = %q, want 6305", syn.CID)
	}
	// Upstream order and duplicates are kept.
	want := []string{"L-tryptophan", "tryptophan", "Indole-3-alanine", "tryptophan"}
	if strings.Join(syn.Synonyms, "|") != strings.Join(want, "|") {
		t.Errorf("synonyms = %v", syn.Synonyms)
	}
}

func TestFetchSynonyms_NotFound(t *testing.T) {
	c, _ := testClient(t)
	syn, err := c.FetchSynonyms(context.Background(), "non-existing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if syn != nil {
		t.Errorf("expected absent, got %+v", syn)
	}
}

func TestFetchSynonyms_ServerErrorPropagates(t *testing.T) {
	c, srv := testClient(t)
	srv.Fail("/compound/name/tryptophan/synonyms/JSON", http.StatusInternalServerError)
	_, err := c.FetchSynonyms(context.Background(), "tryptophan")
	if code, ok := apperr.StatusCode(err); !ok || code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want AccessError(500)", err)
	}
}

func TestFetchSynonyms_BadRequestIsNotIntercepted(t *testing.T) {
	c, srv := testClient(t)
	srv.Fail("/compound/name/tryptophan/synonyms/JSON", http.StatusBadRequest)
	_, err := c.FetchSynonyms(context.Background(), "tryptophan")
	if code, _ := apperr.StatusCode(err); code != http.StatusBadRequest {
		t.Fatalf("err = %v, want AccessError(400)", err)
	}
}

func TestFetchTitles(t *testing.T) {
	c, _ := testClient(t)
	got, err := c.FetchTitles(context.Background(), []string{"222", "280", "962", "977", "222"})
	if err != nil {
		t.Fatalf("FetchTitles: %v", err)
	}
	want := map[string]string{"222": "Ammonia", "280": "Carbon dioxide", "962": "Water", "977": "Oxygen"}
	if len(got) != len(want) {
		t.Fatalf("titles = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("title[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestFetchTitles_KeysAreSubsetOfInput(t *testing.T) {
	c, _ := testClient(t)
	input := []string{"962", "99999999", "612"}
	got, err := c.FetchTitles(context.Background(), input)
	if err != nil {
		t.Fatalf("FetchTitles: %v", err)
	}
	for k := range got {
		found := false
		for _, in := range input {
			if in == k {
				found = true
			}
		}
		if !found {
			t.Errorf("unexpected key %q", k)
		}
	}
	if _, ok := got["99999999"]; ok {
		t.Error("untitled cid must not appear")
	}
}

func TestFetchTitles_ElevenIDsTwoRequests(t *testing.T) {
	c, srv := testClient(t)
	ids := make([]string, 11)
	for i := range ids {
		ids[i] = fmt.Sprint(1000 + i)
		srv.SetTitle(ids[i], "Compound "+ids[i])
	}
	got, err := c.FetchTitles(context.Background(), ids)
	if err != nil {
		t.Fatalf("FetchTitles: %v", err)
	}
	if len(got) != 11 {
		t.Errorf("titles = %d, want 11", len(got))
	}
	if n := srv.RequestCount("/description/JSON"); n != 2 {
		t.Errorf("description requests = %d, want 2", n)
	}
	reqs := srv.Requests()
	if !strings.Contains(reqs[0], "/compound/cid/1000,1001,1002,1003,1004,1005,1006,1007,1008,1009/description/JSON") {
		t.Errorf("first batch path = %s", reqs[0])
	}
}

func TestFetchTitle(t *testing.T) {
	c, _ := testClient(t)
	title, ok, err := c.FetchTitle(context.Background(), "962")
	if err != nil || !ok || title != "Water" {
		t.Errorf("FetchTitle = %q, %v, %v", title, ok, err)
	}
	_, ok, err = c.FetchTitle(context.Background(), "123456789")
	if err != nil || ok {
		t.Errorf("unknown cid: ok %v, err %v", ok, err)
	}
}

func TestFetchDescriptions_CountAndOrder(t *testing.T) {
	c, _ := testClient(t)
	var got []models.Description
	for d, err := range c.FetchDescriptions(context.Background(), []string{"962", "222"}) {
		if err != nil {
			t.Fatalf("FetchDescriptions: %v", err)
		}
		got = append(got, d)
	}
	// 962 has a title entry plus a description entry; 222 only a title.
	if len(got) != 3 {
		t.Fatalf("descriptions = %d, want 3", len(got))
	}
	if got[1].Description == nil || *got[1].Description != "Water is an oxygen hydride." {
		t.Errorf("description entry = %+v", got[1])
	}
	if got[1].HasTitle() {
		t.Error("description-only entry should have no title")
	}
}

func TestFetchDescriptions_BadBatchContributesNothing(t *testing.T) {
	c, srv := testClient(t)
	ids := []string{"962", "1", "2", "3", "4", "5", "6", "7", "8", "9", "not-a-cid", "222"}
	var cids []string
	for d, err := range c.FetchDescriptions(context.Background(), ids) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cids = append(cids, string(d.CID))
	}
	// First batch: 962 (title + description). Second batch: rejected with 400.
	if strings.Join(cids, ",") != "962,962" {
		t.Errorf("cids = %v", cids)
	}
	if n := srv.RequestCount("/description/JSON"); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestFetchDescriptions_ErrorStopsSequence(t *testing.T) {
	c, srv := testClient(t)
	ids := make([]string, 25)
	for i := range ids {
		ids[i] = fmt.Sprint(i + 1)
		srv.SetTitle(ids[i], "t")
	}
	srv.Fail("/compound/cid/11,12,13,14,15,16,17,18,19,20/description/JSON", http.StatusServiceUnavailable)

	var n int
	var gotErr error
	for _, err := range c.FetchDescriptions(context.Background(), ids) {
		if err != nil {
			gotErr = err
			continue
		}
		n++
	}
	if code, _ := apperr.StatusCode(gotErr); code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want AccessError(503)", gotErr)
	}
	if n != 10 {
		t.Errorf("records before failure = %d, want 10", n)
	}
	if srv.RequestCount("/description/JSON") != 2 {
		t.Error("third batch must not be requested after a failure")
	}

	if _, err := c.FetchTitles(context.Background(), ids); err == nil {
		t.Error("FetchTitles should propagate the access error")
	}
}

func TestFetchDescriptions_EmptyInput(t *testing.T) {
	c, srv := testClient(t)
	for range c.FetchDescriptions(context.Background(), nil) {
		t.Fatal("empty input should yield nothing")
	}
	got, err := c.FetchTitles(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("FetchTitles(nil) = %v, %v", got, err)
	}
	if len(srv.Requests()) != 0 {
		t.Error("empty input should not hit the network")
	}
}

func TestFetchCompoundByName(t *testing.T) {
	c, _ := testClient(t)
	comp, err := c.FetchCompoundByName(context.Background(), "lactate")
	if err != nil {
		t.Fatalf("FetchCompoundByName: %v", err)
	}
	if comp == nil || len(comp.Entries) != 2 {
		t.Fatalf("compound = %+v", comp)
	}
	if cid, _ := comp.Entries[1].CID(); cid != 612 {
		t.Errorf("second entry cid = %d", cid)
	}

	comp, err = c.FetchCompoundByName(context.Background(), "unobtainium")
	if err != nil || comp != nil {
		t.Errorf("unknown name = %+v, %v", comp, err)
	}
}

func TestFetchCompoundCIDByName(t *testing.T) {
	c, srv := testClient(t)
	cid, ok, err := c.FetchCompoundCIDByName(context.Background(), "water")
	if err != nil || !ok || cid != "962" {
		t.Errorf("water = %q, %v, %v", cid, ok, err)
	}

	_, ok, err = c.FetchCompoundCIDByName(context.Background(), "does-not-exist")
	if err != nil || ok {
		t.Errorf("does-not-exist: ok %v, err %v; want absent", ok, err)
	}

	srv.Fail("/compound/name/broken/cids/JSON", http.StatusBadRequest)
	_, ok, err = c.FetchCompoundCIDByName(context.Background(), "broken")
	if err != nil || ok {
		t.Errorf("400: ok %v, err %v; want absent", ok, err)
	}

	srv.Fail("/compound/name/water/cids/JSON", http.StatusInternalServerError)
	_, _, err = c.FetchCompoundCIDByName(context.Background(), "water")
	if code, _ := apperr.StatusCode(err); code != http.StatusInternalServerError {
		t.Errorf("500: err = %v", err)
	}
}

func TestFetchCompoundParentCIDByCID(t *testing.T) {
	c, srv := testClient(t)
	cid, ok, err := c.FetchCompoundParentCIDByCID(context.Background(), "91435")
	if err != nil || !ok || cid != "612" {
		t.Errorf("parent = %q, %v, %v", cid, ok, err)
	}
	if srv.RequestCount("/compound/cid/91435/cids/JSON?cids_type=parent") != 1 {
		t.Errorf("requests = %v", srv.Requests())
	}

	_, ok, err = c.FetchCompoundParentCIDByCID(context.Background(), "abc")
	if err != nil || ok {
		t.Errorf("invalid cid: ok %v, err %v; want absent", ok, err)
	}
}

func TestResolveByName(t *testing.T) {
	c, _ := testClient(t)
	id, err := c.ResolveByName(context.Background(), "lactate")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if id.String() != "91435(lactate) -> 612(lactic acid)" {
		t.Errorf("identity = %s", id)
	}

	id, err = c.ResolveByName(context.Background(), "lactic acid")
	if err != nil {
		t.Fatal(err)
	}
	if id.Name != "lactic acid" {
		t.Errorf("default priority should prefer the traditional name, got %q", id.Name)
	}

	id, err = c.ResolveByName(context.Background(), "lactic acid", models.NamePreferred)
	if err != nil {
		t.Fatal(err)
	}
	if id.Name != "2-hydroxypropanoic acid" {
		t.Errorf("explicit priority name = %q", id.Name)
	}
}

func TestResolveByName_Absent(t *testing.T) {
	c, srv := testClient(t)
	id, err := c.ResolveByName(context.Background(), "unobtainium")
	if err != nil || id != nil {
		t.Errorf("unknown = %v, %v", id, err)
	}

	srv.SetCompound("empty")
	id, err = c.ResolveByName(context.Background(), "empty")
	if err != nil || id != nil {
		t.Errorf("empty list = %v, %v", id, err)
	}
}

func TestResolveOldestByName(t *testing.T) {
	c, srv := testClient(t)
	srv.SetCompound("lactate mix",
		testutil.Entry{CID: 107689, Names: map[string]string{"Preferred": "(2S)-2-hydroxypropanoate"}},
		testutil.Entry{CID: 612, Names: map[string]string{"Preferred": "2-hydroxypropanoic acid"}},
		testutil.Entry{CID: 91435, Names: map[string]string{"Preferred": "2-hydroxypropanoate"}},
	)
	id, err := c.ResolveOldestByName(context.Background(), "lactate mix")
	if err != nil {
		t.Fatal(err)
	}
	if id == nil || id.CID != "612" {
		t.Fatalf("oldest = %v, want 612 first", id)
	}
	if id.Depth() != 3 {
		t.Errorf("depth = %d, want 3", id.Depth())
	}

	plain, _ := c.ResolveByName(context.Background(), "lactate mix")
	if plain.CID != "107689" {
		t.Errorf("plain resolve head = %s, want upstream order", plain.CID)
	}
}

func TestClient_CachedAcrossCalls(t *testing.T) {
	mem := cache.NewMemory(32, 0)
	c, srv := testClient(t, fetch.WithCache(mem))
	for i := 0; i < 3; i++ {
		if _, err := c.ResolveByName(context.Background(), "lactate"); err != nil {
			t.Fatal(err)
		}
	}
	if n := srv.RequestCount("/compound/name/lactate/JSON"); n != 1 {
		t.Errorf("upstream requests = %d, want 1", n)
	}
}

func TestClient_NameIsPathEscaped(t *testing.T) {
	c, srv := testClient(t)
	srv.SetCompound("a/b", testutil.Entry{CID: 1})
	id, err := c.ResolveByName(context.Background(), "a/b")
	if err != nil {
		t.Fatal(err)
	}
	if id == nil || id.CID != "1" {
		t.Errorf("identity = %v", id)
	}
}

func TestClient_TransportFailureIsNotAccessError(t *testing.T) {
	srv := testutil.NewFakePubChem(t)
	f := testutil.Fetcher(srv)
	c := New(f, WithBaseURL("http://127.0.0.1:1"), WithLogger(testutil.Logger()))
	_, err := c.FetchSynonyms(context.Background(), "water")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Error("transport error must not look like not-found")
	}
}

func TestClient_SQLiteCacheServesTitles(t *testing.T) {
	db := testutil.TestSQLiteCache(t)
	c, srv := testClient(t, fetch.WithCache(db))
	for i := 0; i < 2; i++ {
		titles, err := c.FetchTitles(context.Background(), []string{"962", "222"})
		if err != nil {
			t.Fatal(err)
		}
		if titles["962"] != "Water" {
			t.Errorf("titles = %v", titles)
		}
	}
	if n := srv.RequestCount("/description/JSON"); n != 1 {
		t.Errorf("upstream requests = %d, want 1", n)
	}
	if n, _ := db.Len(); n != 1 {
		t.Errorf("cached entries = %d, want 1", n)
	}
}
