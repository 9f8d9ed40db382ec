package deps

import (
	"context"

	"github.com/bwise1/civic_circle/config"
	"github.com/bwise1/civic_circle/internal/db"
	"github.com/bwise1/civic_circle/util/email"
	"github.com/bwise1/civic_circle/util/storage"
	"github.com/bwise1/civic_circle/util/websockets"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type Dependencies struct {
	DB         *db.DB
	Cloudinary *storage.Cloudinary
	WebSocket  *websockets.WebSocketManager
	Mailer     *email.Mailer
}

func New(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	database, err := db.New(cfg.Dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}

	deps := Dependencies{
		DB:         database,
		Cloudinary: storage.NewCloudinary(cfg),
		WebSocket:  websockets.NewWebSocketManager(),
		Mailer:     email.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPTimeout),
	}
	return &deps, nil
}

func (d *Dependencies) Pool() *pgxpool.Pool {
	return d.DB.Pool()
}

func (d *Dependencies) Close() {
	d.DB.Close()
}
