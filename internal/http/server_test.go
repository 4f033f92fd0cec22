package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"sika/internal/admin"
	"sika/internal/flags"
	"sika/internal/log"
	"sika/internal/services"
	"sika/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "sika.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.DefaultConfig())
	srv := NewServer(":0",
		services.NewTransactionService(repo, nil, nil, logger),
		services.NewUserService(repo, nil, logger),
		services.NewBlogService(repo, logger),
		flags.NewService(repo),
		admin.NewPolicy([]string{"admin@sika.app"}, ""),
		nil,
		logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string, identity map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range identity {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func asUser(id, email string) map[string]string {
	return map[string]string{"X-User-ID": id, "X-User-Email": email}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestMissingIdentityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var env struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &env)
	if env.Error == "" {
		t.Fatal("expected error envelope")
	}
}

func TestHealthEndpointsNeedNoIdentity(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	srv := newTestServer(t)
	user := asUser("u1", "u1@example.com")

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions",
		`{"amount":"15.50","type":"expense","category":"Food","note":"lunch","date":"2025-03-01"}`, user)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	var created transactionJSON
	decodeBody(t, rec, &created)
	if created.ID == "" || created.AmountCents != 1550 || created.Amount != "15.50" {
		t.Fatalf("created = %+v", created)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions", "", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Transactions []transactionJSON `json:"transactions"`
	}
	decodeBody(t, rec, &list)
	if len(list.Transactions) != 1 || list.Transactions[0].Category != "Food" {
		t.Fatalf("list = %+v", list)
	}
}

func TestCreateTransactionInvalidAmount(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions",
		`{"amount":"zero","type":"expense","category":"Food","date":"2025-03-01"}`, asUser("u1", "u1@example.com"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestCreateTransactionOverlongCategory(t *testing.T) {
	srv := newTestServer(t)

	body := `{"amount":"10.00","type":"expense","category":"` +
		strings.Repeat("x", 101) + `","date":"2025-03-01"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", body, asUser("u1", "u1@example.com"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &env)
	if !strings.Contains(env.Error, "category") {
		t.Fatalf("error = %q, want category length message", env.Error)
	}
}

func TestTransactionOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions",
		`{"amount":"10.00","type":"expense","category":"Food","date":"2025-03-01"}`, asUser("u1", "u1@example.com"))
	var created transactionJSON
	decodeBody(t, rec, &created)

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, "", asUser("u2", "u2@example.com"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for other owner", rec.Code)
	}
}

func TestSummariesTrailingFill(t *testing.T) {
	srv := newTestServer(t)
	user := asUser("u1", "u1@example.com")

	rec := doRequest(t, srv, http.MethodGet, "/api/summaries", "", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Summaries []summaryJSON `json:"summaries"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Summaries) != 3 {
		t.Fatalf("got %d summaries, want 3 synthetic rows", len(resp.Summaries))
	}
	for _, s := range resp.Summaries {
		if s.Income != 0 || s.Expenses != 0 || s.Balance != 0 || s.TransactionCount != 0 {
			t.Fatalf("synthetic row not zero: %+v", s)
		}
	}
}

func TestCategoryBreakdownEndpoint(t *testing.T) {
	srv := newTestServer(t)
	user := asUser("u1", "u1@example.com")

	for _, body := range []string{
		`{"amount":"80.00","type":"expense","category":"Food","date":"2025-03-01"}`,
		`{"amount":"20.00","type":"expense","category":"Rent","date":"2025-03-02"}`,
		`{"amount":"500.00","type":"income","category":"Salary","date":"2025-03-03"}`,
	} {
		if rec := doRequest(t, srv, http.MethodPost, "/api/transactions", body, user); rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/categories", "", user)
	var resp struct {
		Categories []struct {
			Category   string  `json:"category"`
			Percentage float64 `json:"percentage"`
		} `json:"categories"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Categories) != 2 {
		t.Fatalf("got %d categories, want 2 (income excluded)", len(resp.Categories))
	}
	if resp.Categories[0].Category != "Food" || resp.Categories[0].Percentage != 80 {
		t.Fatalf("top category = %+v", resp.Categories[0])
	}
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	user := asUser("u1", "u1@example.com")

	doRequest(t, srv, http.MethodPost, "/api/transactions",
		`{"amount":"15.00","type":"income","category":"Salary","note":"pay","date":"2025-01-15"}`, user)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions/export", "", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "sika-transactions-") {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "Date,Type,Category,Amount (₵),Note" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != `2025-01-15,income,"Salary",15.00,"pay"` {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestDeleteAllTransactions(t *testing.T) {
	srv := newTestServer(t)
	user := asUser("u1", "u1@example.com")

	doRequest(t, srv, http.MethodPost, "/api/transactions",
		`{"amount":"10.00","type":"expense","category":"Food","date":"2025-03-01"}`, user)

	rec := doRequest(t, srv, http.MethodDelete, "/api/transactions", "", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Message string         `json:"message"`
		Stats   map[string]any `json:"stats"`
	}
	decodeBody(t, rec, &env)
	if env.Stats["deleted"].(float64) != 1 {
		t.Fatalf("stats = %+v", env.Stats)
	}
}

func TestAdminForbiddenForRegularUser(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/admin/users", "", asUser("u1", "u1@example.com"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdminListUsers(t *testing.T) {
	srv := newTestServer(t)

	// Seen once as a regular caller, then listed by the admin.
	doRequest(t, srv, http.MethodGet, "/api/transactions", "", asUser("u1", "u1@example.com"))

	rec := doRequest(t, srv, http.MethodGet, "/api/admin/users", "", asUser("a1", "admin@sika.app"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Users []userJSON `json:"users"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Users) != 2 {
		t.Fatalf("got %d users, want 2", len(resp.Users))
	}
}

func TestAdminMailWithoutBroker(t *testing.T) {
	srv := newTestServer(t)
	adm := asUser("a1", "admin@sika.app")

	rec := doRequest(t, srv, http.MethodPost, "/api/admin/mail/welcome",
		`{"email":"admin@sika.app"}`, adm)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when broker is down", rec.Code)
	}
}

func TestBlogLifecycle(t *testing.T) {
	srv := newTestServer(t)
	adminID := asUser("a1", "admin@sika.app")
	user := asUser("u1", "u1@example.com")

	rec := doRequest(t, srv, http.MethodPost, "/api/admin/blog",
		`{"title":"Saving in March","content":"Spend less."}`, adminID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post status = %d: %s", rec.Code, rec.Body.String())
	}
	var post blogPostJSON
	decodeBody(t, rec, &post)
	if post.Slug != "saving-in-march" {
		t.Fatalf("slug = %q", post.Slug)
	}

	// Draft is invisible to regular users, in listings too. The listing
	// request warms the cache so the post-publish listing below also proves
	// the cache is invalidated by the publish.
	rec = doRequest(t, srv, http.MethodGet, "/api/blog/"+post.Slug, "", user)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("draft fetch status = %d, want 404", rec.Code)
	}
	var listing struct {
		Posts []blogPostJSON `json:"posts"`
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/blog", "", user)
	decodeBody(t, rec, &listing)
	if len(listing.Posts) != 0 {
		t.Fatalf("draft visible in public listing: %+v", listing.Posts)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/admin/blog/"+post.ID+"/publish",
		`{"published":true}`, adminID)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/blog/"+post.Slug, "", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("published fetch status = %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/blog", "", user)
	decodeBody(t, rec, &listing)
	if len(listing.Posts) != 1 || listing.Posts[0].Slug != post.Slug {
		t.Fatalf("published listing = %+v", listing.Posts)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/blog/"+post.Slug+"/comments",
		`{"body":"Great tips"}`, user)
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment status = %d: %s", rec.Code, rec.Body.String())
	}

	// Like toggles on, then off.
	var likeResp struct {
		Liked bool  `json:"liked"`
		Likes int64 `json:"likes"`
	}
	rec = doRequest(t, srv, http.MethodPost, "/api/blog/"+post.Slug+"/like", "", user)
	decodeBody(t, rec, &likeResp)
	if !likeResp.Liked || likeResp.Likes != 1 {
		t.Fatalf("first like = %+v", likeResp)
	}
	rec = doRequest(t, srv, http.MethodPost, "/api/blog/"+post.Slug+"/like", "", user)
	decodeBody(t, rec, &likeResp)
	if likeResp.Liked || likeResp.Likes != 0 {
		t.Fatalf("second like = %+v", likeResp)
	}
}

func TestGreetingFlagLifecycle(t *testing.T) {
	srv := newTestServer(t)
	user := asUser("u1", "u1@example.com")

	// No stored month yet: same-session visit, no toast.
	rec := doRequest(t, srv, http.MethodGet, "/api/greeting", "", user)
	var resp struct {
		NewMonth bool   `json:"newMonth"`
		Key      string `json:"key"`
	}
	decodeBody(t, rec, &resp)
	if resp.NewMonth {
		t.Fatal("expected no new-month toast before any stored key")
	}

	if rec = doRequest(t, srv, http.MethodPost, "/api/greeting/ack", "", user); rec.Code != http.StatusOK {
		t.Fatalf("ack status = %d", rec.Code)
	}

	// Stored key now matches the current month, still no toast.
	rec = doRequest(t, srv, http.MethodGet, "/api/greeting", "", user)
	decodeBody(t, rec, &resp)
	if resp.NewMonth {
		t.Fatal("expected no toast when stored key matches current month")
	}
}

func TestTourFlagLifecycle(t *testing.T) {
	srv := newTestServer(t)
	user := asUser("u1", "u1@example.com")

	var resp struct {
		Seen bool `json:"seen"`
	}
	rec := doRequest(t, srv, http.MethodGet, "/api/tour", "", user)
	decodeBody(t, rec, &resp)
	if resp.Seen {
		t.Fatal("tour should start unseen")
	}

	doRequest(t, srv, http.MethodPost, "/api/tour/ack", "", user)

	rec = doRequest(t, srv, http.MethodGet, "/api/tour", "", user)
	decodeBody(t, rec, &resp)
	if !resp.Seen {
		t.Fatal("tour should be seen after ack")
	}
}

func TestRecapWithoutHistory(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/recap", "", asUser("u1", "u1@example.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Show bool `json:"show"`
	}
	decodeBody(t, rec, &resp)
	if resp.Show {
		t.Fatal("recap should not show without preceding-month activity")
	}
}
