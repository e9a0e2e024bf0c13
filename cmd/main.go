package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/docgen"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/reservation-engine/api"
	"github.com/sksmith/reservation-engine/config"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/catalog"
	"github.com/sksmith/reservation-engine/core/order"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/core/slot"
	"github.com/sksmith/reservation-engine/core/stock"
	"github.com/sksmith/reservation-engine/core/user"
	"github.com/sksmith/reservation-engine/db"
	"github.com/sksmith/reservation-engine/db/catrepo"
	"github.com/sksmith/reservation-engine/db/orderrepo"
	"github.com/sksmith/reservation-engine/db/resrepo"
	"github.com/sksmith/reservation-engine/db/slotrepo"
	"github.com/sksmith/reservation-engine/db/stockrepo"
	"github.com/sksmith/reservation-engine/db/usrrepo"
	"github.com/sksmith/reservation-engine/queue"

	"github.com/common-nighthawk/go-figure"
)

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg := config.Load()

	configLogging(cfg)
	printLogHeader(cfg)
	cfg.Print()

	dbPool := configDatabase(ctx, cfg)
	bq := rabbit(cfg)
	queues := configQueues(bq, cfg)

	retry := core.RetryPolicy{
		Attempts: cfg.Reservation.Retry.Attempts,
		Backoff:  time.Duration(cfg.Reservation.Retry.BackoffMillis) * time.Millisecond,
		Max:      time.Duration(cfg.Reservation.Retry.MaxBackoffMillis) * time.Millisecond,
	}

	log.Info().Msg("creating stock service...")
	stockService := stock.NewService(stockrepo.NewPostgresRepo(dbPool), queues.stock, retry)

	log.Info().Msg("creating slot service...")
	slotService := slot.NewService(slotrepo.NewPostgresRepo(dbPool), cfg.Zones, retry)

	log.Info().Msg("creating reservation service...")
	catalogService := catalog.NewService(catrepo.NewPostgresRepo(dbPool))
	reservationRepo := resrepo.NewPostgresRepo(dbPool)
	reservationService := reservation.NewService(
		reservationRepo, stockService, slotService, catalogService, queues.reservation, cfg.HoldDuration())

	log.Info().Msg("creating order service...")
	failedPolicy, err := order.ParseFailedPolicy(cfg.Order.FailedDeliveryPolicy)
	if err != nil {
		log.Fatal().Err(err).Str("policy", cfg.Order.FailedDeliveryPolicy).Msg("invalid failed delivery policy")
	}
	orderService := order.NewService(orderrepo.NewPostgresRepo(dbPool), reservationService, queues.order, failedPolicy)

	log.Info().Msg("creating user service...")
	userService := user.NewService(usrrepo.NewPostgresRepo(dbPool))

	log.Info().Msg("configuring metrics...")
	api.ConfigureMetrics()

	log.Info().Msg("configuring router...")
	r := api.ConfigureRouter(cfg, stockService, slotService, reservationService, orderService, userService)

	if cfg.GenerateRoutes {
		generateRouteDocs(r)
	}

	log.Info().Msg("starting expiry sweeper...")
	sweeper := reservation.NewSweeper(reservationRepo, reservationService, cfg.SweepInterval())
	go sweeper.Run(ctx)

	if !cfg.RabbitMQ.Mock {
		log.Info().Msg("consuming delivery events...")
		dq := queue.NewDeliveryQueue(bq, cfg.RabbitMQ.Delivery.Queue, cfg.RabbitMQ.Delivery.Dlt.Exchange)
		go dq.ConsumeDeliveryEvents(ctx, orderService)
	}

	log.Info().Str("port", cfg.Port).Msg("listening")
	log.Fatal().Err(http.ListenAndServe(":"+cfg.Port, r)).Send()
}

type engineQueues struct {
	stock       stock.Queue
	reservation reservation.Queue
	order       order.Queue
}

func configQueues(bq *bunnyq.BunnyQ, cfg *config.Config) engineQueues {
	if cfg.RabbitMQ.Mock {
		log.Info().Msg("creating mock queue...")
		m := queue.NewMockQueue()
		return engineQueues{stock: m, reservation: m, order: m}
	}

	log.Info().Msg("connecting to rabbitmq...")
	q := queue.New(bq, cfg.RabbitMQ.Stock.Exchange, cfg.RabbitMQ.Reservation.Exchange, cfg.RabbitMQ.Order.Exchange)
	return engineQueues{stock: q, reservation: q, order: q}
}

func rabbit(cfg *config.Config) *bunnyq.BunnyQ {
	if cfg.RabbitMQ.Mock {
		return nil
	}

	osChannel := make(chan os.Signal, 1)
	signal.Notify(osChannel, syscall.SIGTERM)

	return bunnyq.New(context.Background(),
		bunnyq.Address{
			User: cfg.RabbitMQ.User,
			Pass: cfg.RabbitMQ.Pass,
			Host: cfg.RabbitMQ.Host,
			Port: cfg.RabbitMQ.Port,
		},
		osChannel,
		bunnyq.LogHandler(logger{}),
	)
}

type logger struct {
}

func (l logger) Log(_ context.Context, level bunnyq.LogLevel, msg string, data map[string]interface{}) {
	var evt *zerolog.Event
	switch level {
	case bunnyq.LogLevelTrace:
		evt = log.Trace()
	case bunnyq.LogLevelDebug:
		evt = log.Debug()
	case bunnyq.LogLevelInfo:
		evt = log.Info()
	case bunnyq.LogLevelWarn:
		evt = log.Warn()
	case bunnyq.LogLevelError:
		evt = log.Error()
	case bunnyq.LogLevelNone:
		evt = log.Info()
	default:
		evt = log.Info()
	}

	for k, v := range data {
		evt.Interface(k, v)
	}

	evt.Msg(msg)
}

func printLogHeader(cfg *config.Config) {
	if cfg.Log.Structured {
		log.Info().Str("application", cfg.AppName).
			Str("revision", cfg.Revision).
			Str("version", cfg.AppVersion).
			Str("sha1ver", cfg.Sha1Version).
			Str("build-time", cfg.BuildTime).
			Str("profile", cfg.Profile).
			Str("config-source", cfg.Config.Source).
			Str("config-branch", cfg.Config.Spring.Branch).
			Send()
	} else {
		f := figure.NewFigure(cfg.AppName, "", true)
		f.Print()

		log.Info().Msg("=============================================")
		log.Info().Msg(fmt.Sprintf("       Revision: %s", cfg.Revision))
		log.Info().Msg(fmt.Sprintf("        Profile: %s", cfg.Profile))
		log.Info().Msg(fmt.Sprintf("  Config Server: %s - %s", cfg.Config.Source, cfg.Config.Spring.Branch))
		log.Info().Msg(fmt.Sprintf("    Tag Version: %s", cfg.AppVersion))
		log.Info().Msg(fmt.Sprintf("   Sha1 Version: %s", cfg.Sha1Version))
		log.Info().Msg(fmt.Sprintf("     Build Time: %s", cfg.BuildTime))
		log.Info().Msg("=============================================")
	}
}

func configDatabase(ctx context.Context, cfg *config.Config) (dbPool *pgxpool.Pool) {
	log.Info().Str("host", cfg.Db.Host).Str("name", cfg.Db.Name).Msg("connecting to the database...")
	var err error

	if cfg.Db.Migrate {
		log.Info().Msg("executing migrations")

		if err = db.RunMigrations(
			cfg.Db.Host,
			cfg.Db.Name,
			cfg.Db.Port,
			cfg.Db.User,
			cfg.Db.Pass,
			cfg.Db.Clean); err != nil {
			log.Warn().Err(err).Msg("error executing migrations")
		}
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		cfg.Db.Host, cfg.Db.Port, cfg.Db.User, cfg.Db.Pass, cfg.Db.Name)

	for {
		dbPool, err = db.ConnectDb(ctx, connStr, db.MinPoolConns(10), db.MaxPoolConns(50))
		if err != nil {
			log.Error().Err(err).Msg("failed to create connection pool... retrying")
			time.Sleep(1 * time.Second)
			continue
		}
		break
	}

	return dbPool
}

func generateRouteDocs(r chi.Router) {
	log.Info().Msg("generating route documentation...")
	fmt.Println(docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
		ProjectPath: "github.com/sksmith/reservation-engine",
		Intro:       "Reservation engine API routes.",
	}))
}

func configLogging(cfg *config.Config) {
	log.Info().Msg("configuring logging...")

	if !cfg.Log.Structured {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("loglevel", cfg.Log.Level).Err(err).Msg("defaulting to info")
		level = zerolog.InfoLevel
	}
	log.Info().Str("loglevel", level.String()).Msg("setting log level")
	zerolog.SetGlobalLevel(level)
}
