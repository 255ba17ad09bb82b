package web

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/evcraddock/biens/internal/bien"
)

type createResponse struct {
	Ref  string    `json:"ref"`
	Bien bien.Bien `json:"bien"`
}

func (e *testEnv) createBien(t *testing.T, body map[string]interface{}) createResponse {
	t.Helper()
	w := e.request(t, "POST", "/create", true, body)
	expectStatus(t, w, http.StatusCreated)
	return decode[createResponse](t, w)
}

func TestCreateAndGetOne(t *testing.T) {
	e := newTestEnv(t)

	created := e.createBien(t, map[string]interface{}{
		"nom": "T2 centre", "typeBien": "Appartement", "localisation": "Lille", "prix": 150000, "superficie": 42,
	})
	if created.Ref == "" || created.Bien.Ref != created.Ref {
		t.Fatalf("unexpected create response %+v", created)
	}
	if created.Bien.Status != bien.StatusAvailable {
		t.Errorf("status = %q, want available", created.Bien.Status)
	}

	w := e.request(t, "GET", "/get-one?ref="+created.Ref, false, nil)
	expectStatus(t, w, http.StatusOK)
	got := decode[bien.Bien](t, w)
	if got.Nom != "T2 centre" || got.Prix != 150000 {
		t.Errorf("got %+v", got)
	}
}

func TestCreateInvalid(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing nom", map[string]interface{}{"prix": 10}},
		{"negative prix", map[string]interface{}{"nom": "x", "prix": -1}},
		{"unknown status", map[string]interface{}{"nom": "x", "status": "archived"}},
		{"unknown field", map[string]interface{}{"nom": "x", "ref": "forced"}},
		{"malformed", "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, e.request(t, "POST", "/create", true, tt.body), http.StatusBadRequest)
		})
	}
}

func TestGetOneErrors(t *testing.T) {
	e := newTestEnv(t)

	expectStatus(t, e.request(t, "GET", "/get-one", false, nil), http.StatusBadRequest)
	expectStatus(t, e.request(t, "GET", "/get-one?ref=missing", false, nil), http.StatusNotFound)
}

func TestUpdate(t *testing.T) {
	e := newTestEnv(t)
	created := e.createBien(t, map[string]interface{}{"nom": "Maison", "prix": 300000})

	w := e.request(t, "PATCH", "/update?ref="+created.Ref, true, map[string]interface{}{"status": "sold", "prix": 290000})
	expectStatus(t, w, http.StatusOK)
	got := decode[bien.Bien](t, w)
	if got.Status != bien.StatusSold || got.Prix != 290000 || got.Nom != "Maison" {
		t.Errorf("got %+v", got)
	}

	expectStatus(t, e.request(t, "PATCH", "/update?ref=missing", true, map[string]string{"nom": "x"}), http.StatusNotFound)
	expectStatus(t, e.request(t, "PATCH", "/update?ref="+created.Ref, true, map[string]string{"status": "gone"}), http.StatusBadRequest)
	expectStatus(t, e.request(t, "PATCH", "/update?ref="+created.Ref, true, map[string]string{"ref": "other"}), http.StatusBadRequest)
}

func TestDelete(t *testing.T) {
	e := newTestEnv(t)
	created := e.createBien(t, map[string]interface{}{"nom": "Studio"})

	expectStatus(t, e.request(t, "DELETE", "/delete?ref="+created.Ref, true, nil), http.StatusOK)
	expectStatus(t, e.request(t, "GET", "/get-one?ref="+created.Ref, false, nil), http.StatusNotFound)
	expectStatus(t, e.request(t, "DELETE", "/delete?ref="+created.Ref, true, nil), http.StatusNotFound)
}

func TestAllBiens(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 15; i++ {
		typ := "Maison"
		if i%3 == 0 {
			typ = "Appartement"
		}
		e.createBien(t, map[string]interface{}{
			"nom": fmt.Sprintf("bien %d", i), "typeBien": typ, "prix": 100000 + i*1000,
		})
	}

	w := e.request(t, "GET", "/all-biens?typeBien=APPARTEMENT&pageSize=3&page=1", false, nil)
	expectStatus(t, w, http.StatusOK)
	page := decode[bien.Page](t, w)
	if len(page.Items) != 3 || !page.HasMore {
		t.Errorf("page 1: %d items, hasMore %v; want 3, true", len(page.Items), page.HasMore)
	}

	w = e.request(t, "GET", "/all-biens?typeBien=appartement&pageSize=3&page=2", false, nil)
	expectStatus(t, w, http.StatusOK)
	page = decode[bien.Page](t, w)
	if len(page.Items) != 2 || page.HasMore {
		t.Errorf("page 2: %d items, hasMore %v; want 2, false", len(page.Items), page.HasMore)
	}

	w = e.request(t, "GET", "/all-biens?triPar=decroissant&budgets=105000", false, nil)
	expectStatus(t, w, http.StatusOK)
	page = decode[bien.Page](t, w)
	if len(page.Items) != 6 {
		t.Fatalf("got %d items under budget, want 6", len(page.Items))
	}
	if page.Items[0].Prix != 105000 {
		t.Errorf("first price = %v, want 105000 (inclusive, descending)", page.Items[0].Prix)
	}

	w = e.request(t, "GET", "/all-biens?page=99", false, nil)
	expectStatus(t, w, http.StatusOK)
	if body := w.Body.String(); body != "{\"biens\":[],\"hasMore\":false}\n" {
		t.Errorf("empty page body = %q", body)
	}
}

func TestAllBiensInvalidQuery(t *testing.T) {
	e := newTestEnv(t)

	for _, q := range []string{"budgets=abc", "superficie=-4", "budgets=NaN"} {
		w := e.request(t, "GET", "/all-biens?"+q, false, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", q, w.Code, http.StatusBadRequest)
		}
	}
}

func TestAllBiensStorageUnavailable(t *testing.T) {
	e := newTestEnv(t)
	if err := e.db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	w := e.request(t, "GET", "/all-biens", false, nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
	if resp := decode[map[string]string](t, w); resp["error"] != "listing storage unavailable" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestAllBiensLargePageSize(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 120; i++ {
		e.createBien(t, map[string]interface{}{"nom": fmt.Sprintf("bien %d", i), "prix": i})
	}

	w := e.request(t, "GET", "/all-biens?pageSize=200&page=1", false, nil)
	expectStatus(t, w, http.StatusOK)
	page := decode[bien.Page](t, w)
	if len(page.Items) != 120 || page.HasMore {
		t.Errorf("got %d items, hasMore %v; want 120, false", len(page.Items), page.HasMore)
	}

	w = e.request(t, "GET", "/all-biens?pageSize=110&page=2", false, nil)
	expectStatus(t, w, http.StatusOK)
	page = decode[bien.Page](t, w)
	if len(page.Items) != 10 || page.HasMore {
		t.Errorf("page 2: got %d items, hasMore %v; want 10, false", len(page.Items), page.HasMore)
	}
}
