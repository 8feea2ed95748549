package handlers_test

import (
	"net/http"
	"testing"

	"storygen/internal/domain"
)

func TestFactsHonorsLocaleAndPrompt(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, "GET", "/v1/facts?prompt=a+story+about+dragons", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Facts []domain.Fact `json:"facts"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Facts) == 0 {
		t.Fatalf("expected facts for the default locale")
	}
	// Topic-matched entries come first.
	if q := resp.Facts[0].Question; q != "Where does the word 'dragon' come from?" {
		t.Fatalf("first fact = %q, want the dragon entry prioritized", q)
	}

	rr = srv.do(t, "GET", "/v1/facts?prompt=naga", "", map[string]string{"X-Locale": "id"})
	decodeJSON(t, rr, &resp)
	if len(resp.Facts) == 0 {
		t.Fatalf("expected Indonesian facts")
	}
	if q := resp.Facts[0].Question; q != "Dari mana asal kata 'naga'?" {
		t.Fatalf("first id fact = %q", q)
	}
}

func TestFactsLimit(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, "GET", "/v1/facts?limit=2", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Facts []domain.Fact `json:"facts"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Facts) != 2 {
		t.Fatalf("facts = %d, want 2", len(resp.Facts))
	}

	rr = srv.do(t, "GET", "/v1/facts?limit=zero", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rr.Code)
	}
	rr = srv.do(t, "GET", "/v1/facts?limit=-1", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status = %d, want 400", rr.Code)
	}
}
