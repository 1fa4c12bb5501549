package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/botbridge/internal/authz"
	"github.com/soyeahso/botbridge/internal/bus"
	"github.com/soyeahso/botbridge/internal/card"
	"github.com/soyeahso/botbridge/internal/channel"
	"github.com/soyeahso/botbridge/internal/config"
	"github.com/soyeahso/botbridge/internal/connector"
	"github.com/soyeahso/botbridge/internal/dispatch"
	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/soyeahso/botbridge/internal/gateway"
	"github.com/soyeahso/botbridge/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook gateway and dispatch pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			gate := authz.New(cfg.Auth.Enabled, st, log)
			tenants := config.SplitList(cfg.Auth.Tenants)
			seedTenant := ""
			if len(tenants) > 0 {
				seedTenant = tenants[0]
			}
			if err := gate.Seed(config.SplitList(cfg.Auth.Admins), seedTenant); err != nil {
				return fmt.Errorf("seeding authorized users: %w", err)
			}

			catalog, err := card.NewCatalog(cfg.Cards)
			if err != nil {
				return fmt.Errorf("building card catalog: %w", err)
			}
			cards := card.NewSynthesizer(catalog, st)

			conn := connector.NewClient(cfg.App.ID, cfg.App.Password, log)

			registry := channel.NewRegistry(log)
			registry.Register("msteams", channel.NewTeams(cfg.Bot.Name, tenants, conn, st, cards, log))
			registry.Register("text", channel.NewBase(cfg.Bot.Name))

			events := bus.New(0)
			defer events.Close()

			dispatcher := dispatch.New(registry, gate, events, conn, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go drainBus(ctx, events)

			srv := gateway.NewServer(cfg.Gateway, dispatcher, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override gateway bind mode (loopback, lan)")

	return cmd
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Store.Backend == "sqlite" {
		st, err := store.Open(cfg.Store.Path, log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		log.Info().Str("path", cfg.Store.Path).Msg("using SQLite user store")
		return st, nil
	}
	log.Info().Msg("using in-memory user store")
	return store.NewMemoryStore(), nil
}

// drainBus consumes translated events until the context ends. Hosts that
// embed the dispatcher directly attach their own consumer instead.
func drainBus(ctx context.Context, events *bus.Bus) {
	for {
		evt, ok := events.Consume(ctx)
		if !ok {
			return
		}
		switch m := evt.(type) {
		case domain.TextMessage:
			log.Info().
				Str("user", m.User.ID).
				Str("text", m.Text).
				Msg("bot event")
		default:
			log.Debug().
				Str("user", evt.From().ID).
				Msg("bot event")
		}
	}
}
