package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"tableside/internal/board"
	"tableside/internal/cart"
	"tableside/internal/common/config"
	"tableside/internal/common/db"
	"tableside/internal/common/httpx"
	"tableside/internal/common/logger"
	"tableside/internal/common/mq"
	"tableside/internal/domain"
	"tableside/internal/middleware"
	"tableside/internal/services/admin"
	"tableside/internal/services/notify"
	"tableside/internal/services/order"
)

//go:embed migrations.sql
var migrations string

func main() {
	mode := flag.String("mode", "", "api | notifier | board")
	port := flag.Int("port", 0, "api: override the configured http port")
	restaurantID := flag.Int("restaurant", 0, "board: restaurant to watch")
	token := flag.String("token", "", "board: staff bearer token")
	flag.Parse()

	_ = godotenv.Load()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfgPath, err := config.FindConfig()
	if err != nil {
		lg.Error("config_not_found", err, nil)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		lg.Error("config_invalid", err, nil)
		os.Exit(1)
	}

	switch *mode {
	case "api":
		if *port != 0 {
			cfg.Server.Port = *port
		}
		lg.Info("service_started", map[string]any{"service": "api", "port": cfg.Server.Port})
		if err := runAPI(ctx, cfg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "notifier":
		lg.Info("service_started", map[string]any{"service": "notifier"})
		if err := runNotifier(ctx, cfg); err != nil && ctx.Err() == nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "board":
		if *restaurantID == 0 {
			fmt.Fprintln(os.Stderr, "--restaurant is required for board")
			os.Exit(2)
		}
		lg.Info("service_started", map[string]any{"service": "board", "restaurant": *restaurantID})
		runBoard(ctx, cfg, *restaurantID, *token)
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: api | notifier | board")
		os.Exit(2)
	}
}

func runAPI(ctx context.Context, cfg config.App) error {
	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()
	if err := conn.Migrate(ctx, migrations); err != nil {
		return err
	}

	broker, err := mq.Dial(cfg.Rabbit)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer broker.Close()
	if err := broker.DeclareAll(); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}

	secret := []byte(cfg.Auth.JWTSecret)

	orderSvc := order.NewService(order.NewPGRepository(conn), broker)
	adminSvc := admin.NewService(admin.NewPGRepository(conn), secret)

	r := mux.NewRouter()
	r.Use(middleware.CSRF)
	order.NewHandler(orderSvc, secret).Register(r)
	admin.NewHandler(adminSvc, secret).Register(r)

	return httpx.New(fmt.Sprintf(":%d", cfg.Server.Port), r).Run(ctx)
}

func runNotifier(ctx context.Context, cfg config.App) error {
	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	broker, err := mq.Dial(cfg.Rabbit)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer broker.Close()
	if err := broker.DeclareAll(); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}

	sender := notify.NewSendGridSender(cfg.Email.SendgridKey, "Tableside", cfg.Email.From)
	sub := notify.NewSubscriber(broker, notify.NewPGContactLookup(conn), sender)
	return sub.Run(ctx)
}

// runBoard drives the staff order board in a terminal: it polls the
// API and prints the current orders with the actions available on each.
func runBoard(ctx context.Context, cfg config.App, restaurantID int, token string) {
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}
	b := board.New(cfg.Server.BaseURL,
		board.WithHTTPClient(client),
		board.WithTokenSource(board.TokenSource(cart.CookieToken(jar, cfg.Server.BaseURL))),
		board.WithAuthToken(token))
	b.SetFilter(domain.OrderFilter{RestaurantID: &restaurantID})

	p := board.NewPoller(board.DefaultPollInterval, func(taskCtx context.Context) {
		if err := b.Refresh(taskCtx); err != nil {
			return
		}
		render(b)
	})
	p.Start(ctx)
	defer p.Stop()
	<-ctx.Done()
}

func render(b *board.Board) {
	orders := b.Orders()
	fmt.Printf("\n== %s | %d orders ==\n", time.Now().Format("15:04:05"), len(orders))
	for _, o := range orders {
		fmt.Printf("  #%d table %s  %-11s %.2f", o.ID, o.TableNumber, o.Status, o.Total)
		if next := b.Actions(o); len(next) > 0 {
			fmt.Printf("  ->")
			for _, s := range next {
				fmt.Printf(" %s", s)
			}
		}
		fmt.Println()
	}
}
