package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwise1/civic_circle/config"
	deps "github.com/bwise1/civic_circle/internal/debs"
	"github.com/bwise1/civic_circle/internal/http/google"
	"github.com/bwise1/civic_circle/internal/http/reportstore"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/internal/notify"
	"github.com/bwise1/civic_circle/internal/status"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 60 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

// ReportStore is the Report Store as seen by the application routes.
type ReportStore interface {
	List(ctx context.Context, opts reportstore.ListOptions) (model.ReportPage, error)
	Get(ctx context.Context, id int64) (model.Report, error)
	Create(ctx context.Context, req model.CreateReportRequest) (model.Report, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	Search(ctx context.Context, keyword string) ([]model.Report, error)
	ByStatus(ctx context.Context, status model.Status) ([]model.Report, error)
	ByCategory(ctx context.Context, category string) ([]model.Report, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, actor model.Actor, reportID int64, newStatus model.Status) (status.Result, error)
}

type SummaryGenerator interface {
	GenerateSingle(ctx context.Context, actor model.Actor, reportID int64) (*model.Document, error)
	GenerateAggregate(ctx context.Context, actor model.Actor) (*model.Document, error)
}

type Notifier interface {
	Notify(ctx context.Context, req notify.Request) (notify.Outcome, error)
}

type ProfileFetcher interface {
	Profile(ctx context.Context, accessToken string) (google.Profile, error)
}

// ImageUploader stores a report image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file string, folder string) (string, error)
}

// LiveFeed receives report events for connected websocket clients.
type LiveFeed interface {
	BroadcastReportCreated(report model.Report)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
	DB     *pgxpool.Pool

	Users     UserRepository
	Reports   ReportRepository
	Store     ReportStore
	Invoker   StatusUpdater
	Summaries SummaryGenerator
	Notifier  Notifier
	Google    ProfileFetcher
	Images    ImageUploader
	Feed      LiveFeed
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.setUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()

	if api.Deps != nil && api.Deps.WebSocket != nil {
		mux.Get("/ws", api.LiveFeedSocket)
	}

	mux.Group(func(r chi.Router) {
		r.Use(RequestTracing)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("CivicCircle API"))
		})

		if api.Config.ServeReportStore && api.Reports != nil {
			r.Mount("/api/reports", api.StoreRoutes())
		}
		r.Mount("/auth", api.AuthRoutes())
		r.Mount("/users", api.UserRoutes())
		r.Mount("/admin", api.AdminRoutes())
		r.Mount("/reports", api.ReportRoutes())
		r.Mount("/notifications", api.NotificationRoutes())
		r.Mount("/summaries", api.SummaryRoutes())
	})

	return mux
}

func (api *API) Shutdown(ctx context.Context) error {
	if api.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultShutdownPeriod)
	defer cancel()
	return api.Server.Shutdown(ctx)
}
