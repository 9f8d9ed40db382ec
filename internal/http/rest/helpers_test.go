package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwise1/civic_circle/config"
	"github.com/bwise1/civic_circle/internal/http/google"
	"github.com/bwise1/civic_circle/internal/http/reportstore"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMockUsers() *mockUsers {
	return &mockUsers{users: map[uuid.UUID]model.User{}}
}

func (m *mockUsers) add(name, email string, role model.Role) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := model.User{ID: uuid.New(), Name: name, Email: email, Role: role, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *mockUsers) UpsertUser(_ context.Context, user model.User, forceRole bool) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.users {
		if existing.Email == user.Email {
			existing.Name = user.Name
			existing.Image = user.Image
			if forceRole {
				existing.Role = user.Role
			}
			m.users[id] = existing
			return existing, nil
		}
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUsers) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUsers) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []model.User{}
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *mockUsers) UpdateUserRole(_ context.Context, id uuid.UUID, role model.Role) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	u.Role = role
	m.users[id] = u
	return u, nil
}

// mockReports is an in-memory ReportRepository.
type mockReports struct {
	mu      sync.Mutex
	nextID  int64
	reports map[int64]model.Report
	err     error
}

func newMockReports() *mockReports {
	return &mockReports{nextID: 1, reports: map[int64]model.Report{}}
}

func (m *mockReports) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockReports) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

func (m *mockReports) sorted() []model.Report {
	out := make([]model.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *mockReports) filter(keep func(model.Report) bool) ([]model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Report{}
	for _, r := range m.sorted() {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReports) ListReports(_ context.Context) ([]model.Report, error) {
	return m.filter(func(model.Report) bool { return true })
}

func (m *mockReports) ListReportsPage(_ context.Context, p PageRequest) ([]model.Report, int64, error) {
	all, err := m.filter(func(model.Report) bool { return true })
	if err != nil {
		return nil, 0, err
	}
	start := p.Page * p.Size
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *mockReports) GetReport(_ context.Context, id int64) (model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Report{}, m.err
	}
	r, ok := m.reports[id]
	if !ok {
		return model.Report{}, model.ErrReportNotFound
	}
	return r, nil
}

func (m *mockReports) CreateReport(_ context.Context, req model.CreateReportRequest) (model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Report{}, m.err
	}
	now := time.Now().UTC()
	r := model.Report{
		ID: m.nextID, Title: req.Title, Description: req.Description, Category: req.Category,
		Priority: req.Priority, Status: model.StatusPending, Address: req.Address,
		Latitude: req.Latitude, Longitude: req.Longitude, CreatedBy: req.CreatedBy,
		Email: req.Email, Image: req.Image, CreatedAt: now, UpdatedAt: now,
	}
	m.reports[r.ID] = r
	m.nextID++
	return r, nil
}

func (m *mockReports) UpdateReportStatus(_ context.Context, id int64, status model.Status) (model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Report{}, m.err
	}
	r, ok := m.reports[id]
	if !ok {
		return model.Report{}, model.ErrReportNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	m.reports[id] = r
	return r, nil
}

func (m *mockReports) DeleteReport(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return model.ErrReportNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *mockReports) SearchReports(_ context.Context, keyword string) ([]model.Report, error) {
	k := strings.ToLower(keyword)
	return m.filter(func(r model.Report) bool {
		return strings.Contains(strings.ToLower(r.Title), k) || strings.Contains(strings.ToLower(r.Description), k)
	})
}

func (m *mockReports) ReportsByStatus(_ context.Context, status model.Status) ([]model.Report, error) {
	return m.filter(func(r model.Report) bool { return r.Status == status })
}

func (m *mockReports) ReportsByCategory(_ context.Context, category string) ([]model.Report, error) {
	return m.filter(func(r model.Report) bool { return r.Category == category })
}

func (m *mockReports) ReportCategories(_ context.Context) ([]string, error) {
	all, err := m.filter(func(model.Report) bool { return true })
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, r := range all {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockReports) ReportsSince(_ context.Context, since time.Time) ([]model.Report, error) {
	return m.filter(func(r model.Report) bool { return !r.CreatedAt.Before(since) })
}

func (m *mockReports) CountReportsByStatus(ctx context.Context, status model.Status) (int64, error) {
	reports, err := m.ReportsByStatus(ctx, status)
	return int64(len(reports)), err
}

type mockNotifier struct {
	outcome notify.Outcome
	err     error
	calls   []notify.Request
}

func (m *mockNotifier) Notify(_ context.Context, req notify.Request) (notify.Outcome, error) {
	m.calls = append(m.calls, req)
	return m.outcome, m.err
}

type mockGoogle struct {
	profile google.Profile
	err     error
}

func (m *mockGoogle) Profile(_ context.Context, _ string) (google.Profile, error) {
	return m.profile, m.err
}

type mockImages struct {
	uploads []string
	err     error
}

func (m *mockImages) UploadImage(_ context.Context, file string, _ string) (string, error) {
	m.uploads = append(m.uploads, file)
	if m.err != nil {
		return "", m.err
	}
	return "https://res.cloudinary.com/demo/image/upload/report.png", nil
}

type mockFeed struct {
	created []model.Report
}

func (m *mockFeed) BroadcastReportCreated(r model.Report) {
	m.created = append(m.created, r)
}

type mockSummaries struct {
	doc *model.Document
	err error
}

func (m *mockSummaries) GenerateSingle(_ context.Context, _ model.Actor, id int64) (*model.Document, error) {
	return m.doc, m.err
}

func (m *mockSummaries) GenerateAggregate(_ context.Context, _ model.Actor) (*model.Document, error) {
	return m.doc, m.err
}

const testStoreToken = "store-token"

func testConfig() *config.Config {
	return &config.Config{
		JwtSecret:        "test-secret",
		JwtExpires:       "1h",
		AppURL:           "http://localhost:3000",
		ServeReportStore: true,
		ReportStoreToken: testStoreToken,
		RateLimit:        100,
		RateLimitPeriod:  time.Minute,
		AdminEmails:      []string{"admin@city.gov"},
		SuperadminEmails: []string{"root@city.gov"},
	}
}

func newTestAPI() *API {
	return &API{
		Config:  testConfig(),
		Users:   newMockUsers(),
		Reports: newMockReports(),
	}
}

type envelope struct {
	Message    string          `json:"message"`
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// do sends a request through the full router. A non-nil user is signed in
// with a fresh access token. Report store paths carry the service token.
func do(t *testing.T, api *API, method, path string, body interface{}, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Request-Source", "test")
	req.Header.Set("Content-Type", "application/json")
	if strings.HasPrefix(path, "/api/") {
		req.Header.Set(reportstore.HeaderServiceToken, testStoreToken)
	}
	if user != nil {
		token, _, err := api.createToken(user.ID.String())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	api.setUpServerHandler().ServeHTTP(rec, req)
	return rec
}

func usersOf(api *API) *mockUsers { return api.Users.(*mockUsers) }
