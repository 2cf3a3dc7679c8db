package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Entry describes one PC_Compounds record served by FakePubChem. A zero CID
// is served without an "id" object.
type Entry struct {
	CID   int64
	Names map[string]string // IUPAC name-type -> value
}

// FakePubChem emulates the PUG REST routes chemid calls.
type FakePubChem struct {
	*httptest.Server

	mu           sync.Mutex
	compounds    map[string][]Entry
	synonyms     map[string][]string
	cids         map[string][]int64
	parents      map[string][]int64
	titles       map[string]string
	descriptions map[string]string
	fail         map[string]int
	requests     []string
}

// NewFakePubChem starts a fake upstream seeded with lactate/lactic acid,
// water and a few titled CIDs.
func NewFakePubChem(t *testing.T) *FakePubChem {
	t.Helper()
	f := &FakePubChem{
		compounds: map[string][]Entry{
			"lactate": {
				{CID: 91435, Names: map[string]string{"Preferred": "lactate"}},
				{CID: 612, Names: map[string]string{"Preferred": "lactic acid"}},
			},
			"lactic acid": {
				{CID: 612, Names: map[string]string{"Preferred": "2-hydroxypropanoic acid", "Traditional": "lactic acid"}},
			},
		},
		synonyms: map[string][]string{
			"tryptophan": {"L-tryptophan", "tryptophan", "Indole-3-alanine", "tryptophan"},
		},
		cids: map[string][]int64{
			"water":      {962},
			"tryptophan": {6305},
		},
		parents: map[string][]int64{
			"91435": {612},
		},
		titles: map[string]string{
			"222":  "Ammonia",
			"280":  "Carbon dioxide",
			"962":  "Water",
			"977":  "Oxygen",
			"612":  "Lactic Acid",
			"6305": "Tryptophan",
		},
		descriptions: map[string]string{
			"962": "Water is an oxygen hydride.",
		},
		fail: map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Get("/compound/name/{name}/JSON", f.compound)
	r.Get("/compound/name/{name}/synonyms/JSON", f.synonymList)
	r.Get("/compound/name/{name}/cids/JSON", f.cidsByName)
	r.Get("/compound/cid/{cid}/cids/JSON", f.parentCIDs)
	r.Get("/compound/cid/{cids}/description/JSON", f.describe)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// SetCompound replaces the record list served for name.
func (f *FakePubChem) SetCompound(name string, entries ...Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compounds[name] = entries
}

// SetTitle registers a title for cid.
func (f *FakePubChem) SetTitle(cid, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[cid] = title
}

// SetDescription registers a description text for cid.
func (f *FakePubChem) SetDescription(cid, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.descriptions[cid] = text
}

// Fail forces status for requests whose path (without base) equals path.
func (f *FakePubChem) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[path] = status
}

// Requests returns every path (with query) served so far.
func (f *FakePubChem) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// RequestCount returns how many requests contained substr.
func (f *FakePubChem) RequestCount(substr string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.Contains(r, substr) {
			n++
		}
	}
	return n
}

func (f *FakePubChem) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.RequestURI())
		status, forced := f.fail[r.URL.Path]
		f.mu.Unlock()
		if forced {
			fault(w, status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func param(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (f *FakePubChem) compound(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	entries, ok := f.compounds[param(r, "name")]
	f.mu.Unlock()
	if !ok {
		fault(w, http.StatusNotFound)
		return
	}
	records := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rec := map[string]any{}
		if e.CID != 0 {
			rec["id"] = map[string]any{"id": map[string]any{"cid": e.CID}}
		}
		props := []map[string]any{
			{"urn": map[string]any{"label": "Compound", "name": "Canonicalized", "datatype": 5}, "value": map[string]any{"ival": 1}},
		}
		for nameType, value := range e.Names {
			props = append(props, map[string]any{
				"urn":   map[string]any{"label": "IUPAC Name", "name": nameType, "datatype": 1, "release": "2021.05.07"},
				"value": map[string]any{"sval": value},
			})
		}
		rec["props"] = props
		records = append(records, rec)
	}
	writeJSON(w, map[string]any{"PC_Compounds": records})
}

func (f *FakePubChem) synonymList(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")
	f.mu.Lock()
	syns, ok := f.synonyms[name]
	cids := f.cids[name]
	f.mu.Unlock()
	if !ok {
		fault(w, http.StatusNotFound)
		return
	}
	var cid int64
	if len(cids) > 0 {
		cid = cids[0]
	}
	writeJSON(w, map[string]any{
		"InformationList": map[string]any{
			"Information": []map[string]any{{"CID": cid, "Synonym": syns}},
		},
	})
}

func (f *FakePubChem) cidsByName(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	cids, ok := f.cids[param(r, "name")]
	f.mu.Unlock()
	if !ok {
		fault(w, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"IdentifierList": map[string]any{"CID": cids}})
}

func (f *FakePubChem) parentCIDs(w http.ResponseWriter, r *http.Request) {
	cid := param(r, "cid")
	if _, err := strconv.ParseInt(cid, 10, 64); err != nil {
		fault(w, http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("cids_type") != "parent" {
		fault(w, http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	parents, ok := f.parents[cid]
	f.mu.Unlock()
	if !ok {
		fault(w, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"IdentifierList": map[string]any{"CID": parents}})
}

func (f *FakePubChem) describe(w http.ResponseWriter, r *http.Request) {
	raw := strings.Split(param(r, "cids"), ",")
	f.mu.Lock()
	defer f.mu.Unlock()

	var info []map[string]any
	for _, cid := range raw {
		n, err := strconv.ParseInt(cid, 10, 64)
		if err != nil {
			fault(w, http.StatusBadRequest)
			return
		}
		title, ok := f.titles[cid]
		if !ok {
			continue
		}
		info = append(info, map[string]any{"CID": n, "Title": title})
		if text, ok := f.descriptions[cid]; ok {
			info = append(info, map[string]any{
				"CID":                   n,
				"Description":           text,
				"DescriptionSourceName": "ChEBI",
				"DescriptionURL":        "https://www.ebi.ac.uk/chebi/",
			})
		}
	}
	if len(info) == 0 {
		fault(w, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"InformationList": map[string]any{"Information": info}})
}

func fault(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"Fault": map[string]any{"Code": "PUGREST.Fault", "Message": http.StatusText(status)},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
