package rest

import (
	"crypto/subtle"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bwise1/civic_circle/internal/http/reportstore"
	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	recentWindow    = 30 * 24 * time.Hour
)

type validationBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// StoreRoutes serves the Report Store API. Bodies are bare JSON.
func (api *API) StoreRoutes() chi.Router {
	mux := chi.NewRouter()
	mux.Use(api.RequireServiceToken)

	mux.Method(http.MethodGet, "/", JSONHandler(api.storeList))
	mux.Method(http.MethodPost, "/", JSONHandler(api.storeCreate))
	mux.Method(http.MethodGet, "/search", JSONHandler(api.storeSearch))
	mux.Method(http.MethodGet, "/categories", JSONHandler(api.storeCategories))
	mux.Method(http.MethodGet, "/recent", JSONHandler(api.storeRecent))
	mux.Method(http.MethodGet, "/status/{status}", JSONHandler(api.storeByStatus))
	mux.Method(http.MethodGet, "/category/{category}", JSONHandler(api.storeByCategory))
	mux.Method(http.MethodGet, "/count/status/{status}", JSONHandler(api.storeCountByStatus))
	mux.Method(http.MethodGet, "/{id}", JSONHandler(api.storeGet))
	mux.Method(http.MethodPut, "/{id}/status", JSONHandler(api.storeUpdateStatus))
	mux.Method(http.MethodDelete, "/{id}", JSONHandler(api.storeDelete))

	return mux
}

// RequireServiceToken admits only callers presenting the configured
// report store token. With no token configured every request is refused.
func (api *API) RequireServiceToken(next http.Handler) http.Handler {
	want := []byte(api.Config.ReportStoreToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get(reportstore.HeaderServiceToken))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			loggerFor(r).WithField("path", r.URL.Path).Info("report store request without a valid service token")
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (api *API) storeFailure(r *http.Request, err error) (int, interface{}) {
	if errors.Is(err, model.ErrReportNotFound) {
		return http.StatusNotFound, errorBody{Error: "Report not found"}
	}
	logger.WithTracing(tracing.FromContext(r.Context())).WithError(err).Error("report store query failed")
	return http.StatusInternalServerError, errorBody{Error: "Internal server error"}
}

func (api *API) storeList(w http.ResponseWriter, r *http.Request) (int, interface{}) {
	q := r.URL.Query()
	if q.Get("page") == "" {
		reports, err := api.Reports.ListReports(r.Context())
		if err != nil {
			return api.storeFailure(r, err)
		}
		return http.StatusOK, reports
	}

	p, err := parsePageRequest(q)
	if err != nil {
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	}

	reports, total, err := api.Reports.ListReportsPage(r.Context(), p)
	if err != nil {
		return api.storeFailure(r, err)
	}

	w.Header().Set(reportstore.HeaderTotalCount, strconv.FormatInt(total, 10))
	w.Header().Set(reportstore.HeaderTotalPages, strconv.Itoa(int(math.Ceil(float64(total)/float64(p.Size)))))
	return http.StatusOK, reports
}

func parsePageRequest(q url.Values) (PageRequest, error) {
	p := PageRequest{Size: defaultPageSize, SortBy: "createdAt", SortDir: "desc"}

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		return PageRequest{}, errors.New("page must be a non-negative integer")
	}
	p.Page = page

	if s := q.Get("size"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size < 1 || size > maxPageSize {
			return PageRequest{}, errors.New("size must be between 1 and 100")
		}
		p.Size = size
	}
	sortBy, sortDir, err := parseSort(q)
	if err != nil {
		return PageRequest{}, err
	}
	if sortBy != "" {
		p.SortBy = sortBy
	}
	if sortDir != "" {
		p.SortDir = sortDir
	}
	return p, nil
}

// parseSort checks sortBy against the sortable columns and sortDir against
// asc/desc. Absent parameters come back empty.
func parseSort(q url.Values) (sortBy, sortDir string, err error) {
	if s := q.Get("sortBy"); s != "" {
		if _, ok := sortColumns[s]; !ok {
			return "", "", errors.New("unsupported sortBy")
		}
		sortBy = s
	}
	if s := q.Get("sortDir"); s != "" {
		if !strings.EqualFold(s, "asc") && !strings.EqualFold(s, "desc") {
			return "", "", errors.New("sortDir must be asc or desc")
		}
		sortDir = strings.ToLower(s)
	}
	return sortBy, sortDir, nil
}

func (api *API) storeGet(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	id, err := util.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		return http.StatusBadRequest, errorBody{Error: "Invalid report id"}
	}
	report, err := api.Reports.GetReport(r.Context(), id)
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, report
}

func (api *API) storeCreate(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	tc := tracing.FromContext(r.Context())

	var req model.CreateReportRequest
	if err := util.DecodeJSONBody(&tc, r.Body, &req); err != nil {
		return http.StatusBadRequest, errorBody{Error: "Invalid request body"}
	}
	if err := util.ValidateStruct(req); err != nil {
		return http.StatusBadRequest, validationBody{Error: "Validation failed", Fields: util.FieldErrors(err)}
	}

	report, err := api.Reports.CreateReport(r.Context(), req.WithDefaults())
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusCreated, report
}

func (api *API) storeUpdateStatus(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	tc := tracing.FromContext(r.Context())

	id, err := util.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		return http.StatusBadRequest, errorBody{Error: "Invalid report id"}
	}

	var req model.UpdateStatusRequest
	if err := util.DecodeJSONBody(&tc, r.Body, &req); err != nil {
		return http.StatusBadRequest, errorBody{Error: "Invalid request body"}
	}
	if err := util.ValidateStruct(req); err != nil {
		return http.StatusBadRequest, validationBody{Error: "Validation failed", Fields: util.FieldErrors(err)}
	}

	report, err := api.Reports.UpdateReportStatus(r.Context(), id, req.Status)
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, report
}

func (api *API) storeDelete(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	id, err := util.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		return http.StatusBadRequest, errorBody{Error: "Invalid report id"}
	}
	if err := api.Reports.DeleteReport(r.Context(), id); err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusNoContent, nil
}

func (api *API) storeSearch(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		return http.StatusBadRequest, errorBody{Error: "keyword is required"}
	}
	reports, err := api.Reports.SearchReports(r.Context(), keyword)
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, reports
}

func (api *API) storeCategories(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	categories, err := api.Reports.ReportCategories(r.Context())
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, categories
}

func (api *API) storeRecent(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	reports, err := api.Reports.ReportsSince(r.Context(), time.Now().Add(-recentWindow))
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, reports
}

func (api *API) storeByStatus(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	status, err := model.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		return http.StatusBadRequest, errorBody{Error: "Invalid status"}
	}
	reports, err := api.Reports.ReportsByStatus(r.Context(), status)
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, reports
}

func (api *API) storeByCategory(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	category := chi.URLParam(r, "category")
	if unescaped, err := url.PathUnescape(category); err == nil {
		category = unescaped
	}
	reports, err := api.Reports.ReportsByCategory(r.Context(), category)
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, reports
}

func (api *API) storeCountByStatus(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	status, err := model.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		return http.StatusBadRequest, errorBody{Error: "Invalid status"}
	}
	n, err := api.Reports.CountReportsByStatus(r.Context(), status)
	if err != nil {
		return api.storeFailure(r, err)
	}
	return http.StatusOK, n
}
