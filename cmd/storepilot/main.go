package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/agent"
	"github.com/storepilot/storepilot/internal/config"
	"github.com/storepilot/storepilot/internal/executor"
	"github.com/storepilot/storepilot/internal/handler"
	"github.com/storepilot/storepilot/internal/provider"
	"github.com/storepilot/storepilot/internal/registry"
	"github.com/storepilot/storepilot/internal/scheduler"
	"github.com/storepilot/storepilot/internal/server"
	"github.com/storepilot/storepilot/internal/store"
	"github.com/storepilot/storepilot/internal/tools"
)

const systemPrompt = `You are StorePilot, the operations assistant for a wellness and beauty store.
You record service income, product sales, and memberships, and you answer
questions about daily revenue. Use the available operations for every
record and every lookup; never invent numbers. Amounts are in yuan.
When a date is not given, assume today. Answer briefly and concretely.`

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	terminal := flag.Bool("terminal", false, "run an interactive terminal session instead of the HTTP server")
	port := flag.Int("port", 0, "override the listen port")
	dbURL := flag.String("db", "", "override the database URL")
	flag.Parse()

	if *port != 0 {
		cfg.Port = *port
	}
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database unavailable")
		}
		if err := st.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema migration failed")
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set - business operations disabled")
	}

	var pilot *agent.Agent
	if cfg.MiniMaxAPIKey != "" {
		reg := registry.New()
		if st != nil {
			toolset := tools.NewToolset(st, cfg)
			if err := toolset.RegisterAll(reg); err != nil {
				log.Fatal().Err(err).Msg("operation registration failed")
			}
		}

		exec := executor.New(reg, executor.Config{
			Workers:           cfg.ToolWorkers,
			InvocationTimeout: time.Duration(cfg.ToolTimeout) * time.Second,
			MaxSequenceLen:    cfg.MaxSequenceLen,
		})
		model := provider.NewAnthropic(cfg.MiniMaxAPIKey, cfg.MiniMaxModel, cfg.MiniMaxBaseURL)
		pilot = agent.New(model, reg, exec,
			agent.WithSystemPrompt(systemPrompt),
			agent.WithMaxIterations(cfg.MaxIterations),
		)
	} else {
		log.Warn().Msg("MINIMAX_API_KEY not set - assistant disabled")
	}

	if st != nil && cfg.EnableDailySummary {
		sched := scheduler.New(cfg.DailySummaryHour, cfg.DailySummaryMinute,
			func(ctx context.Context, day time.Time) error {
				sum, err := st.DailySummary(ctx, day)
				if err != nil {
					return err
				}
				log.Info().
					Str("date", sum.Date).
					Float64("service_revenue", sum.ServiceRevenue).
					Float64("product_revenue", sum.ProductRevenue).
					Float64("membership_sales", sum.MembershipSales).
					Float64("commission", sum.Commission).
					Float64("total_revenue", sum.TotalRevenue).
					Msg("daily summary")
				return nil
			})
		go sched.Run(ctx)
	}

	if *terminal {
		if pilot == nil {
			log.Fatal().Msg("terminal mode needs MINIMAX_API_KEY")
		}
		runTerminal(ctx, pilot, time.Duration(cfg.AgentTimeout)*time.Second)
		return
	}

	var chat handler.ChatService
	if pilot != nil {
		chat = pilot
	}
	srv := server.New(cfg, chat, st)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// runTerminal reads messages from stdin and prints the assistant's
// replies until EOF or shutdown.
func runTerminal(ctx context.Context, pilot *agent.Agent, timeout time.Duration) {
	fmt.Println("StorePilot terminal. Type a message, or \"quit\" to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		turnCtx, cancel := context.WithTimeout(ctx, timeout)
		reply, err := pilot.Chat(turnCtx, line)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		fmt.Println(reply.Content)
	}
}
