package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"netfence/internal/config"
	"netfence/internal/domain"
	"netfence/internal/handler"
	"netfence/internal/repository"
	"netfence/internal/repository/sqlite"
	"netfence/internal/service"
)

func main() {
	configPath := flag.String("config", "./netfence.yaml", "path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger := zerolog.New(os.Stderr)
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log := newLogger(cfg.LogLevel)
	log.Info().Str("addr", cfg.ListenAddr).Str("db", cfg.DBPath).Msg("starting server")
	if cfg.GeneratedSecret {
		log.Warn().Msg("no JWT secret configured; generated one for this boot, sessions will not survive a restart")
	}

	repo, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer repo.Close()

	audit := service.NewAuditRecorder(repo, log)
	auth := service.NewAuthService(repo, audit, service.AuthConfig{
		JWTSecret:    cfg.Auth.JWTSecret,
		Issuer:       cfg.Auth.Issuer,
		Audience:     cfg.Auth.Audience,
		TokenTTL:     time.Duration(cfg.Auth.TokenTTL),
		MaxAttempts:  cfg.Auth.MaxAttempts,
		LockDuration: time.Duration(cfg.Auth.LockDuration),
	}, log)
	policy := service.NewPolicyService(repo, audit, log)

	if err := bootstrapAdmin(context.Background(), repo, auth, cfg.BootstrapAdminPassword, log); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap admin account")
	}

	h := handler.New(auth, policy, audit, log)

	mux := http.NewServeMux()

	// Authentication
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.Handle("GET /api/auth/me", h.Authed(h.Me))

	// Accounts
	mux.Handle("GET /api/users", h.Admin(h.ListUsers))
	mux.Handle("POST /api/users", h.Admin(h.CreateUser))
	mux.Handle("DELETE /api/users/{id}", h.Admin(h.DeleteUser))
	mux.Handle("PUT /api/users/{id}/password", h.Authed(h.ChangePassword))

	// Segments and communication policy
	mux.Handle("GET /api/vlans", h.Authed(h.ListVlans))
	mux.Handle("POST /api/vlans", h.Admin(h.CreateVlan))
	mux.Handle("PUT /api/vlans/{id}", h.Admin(h.UpdateVlan))
	mux.Handle("DELETE /api/vlans/{id}", h.Admin(h.DeleteVlan))
	mux.Handle("GET /api/vlans/communication", h.Authed(h.ListCommunication))
	mux.Handle("POST /api/vlans/communication", h.Admin(h.SetCommunication))
	mux.Handle("DELETE /api/vlans/communication/{id}", h.Admin(h.DeleteCommunication))
	mux.Handle("GET /api/vlans/communication/{id}/devices", h.Authed(h.ListLimitedDevices))
	mux.Handle("PUT /api/vlans/communication/{id}/devices", h.Admin(h.SetLimitedDevices))

	// Reservations
	mux.Handle("GET /api/vlans/{vlanID}/reservations", h.Authed(h.ListReservations))
	mux.Handle("POST /api/reservations", h.Admin(h.CreateReservation))
	mux.Handle("PUT /api/reservations/{id}", h.Admin(h.UpdateReservation))
	mux.Handle("DELETE /api/reservations/{id}", h.Admin(h.DeleteReservation))

	// Devices
	mux.Handle("GET /api/devices", h.Authed(h.ListDevices))
	mux.Handle("POST /api/devices", h.Admin(h.CreateDevice))
	mux.Handle("PUT /api/devices/{id}", h.Admin(h.UpdateDevice))
	mux.Handle("DELETE /api/devices/{id}", h.Admin(h.DeleteDevice))
	mux.Handle("GET /api/resolve", h.Authed(h.Resolve))

	// Switches and ports
	mux.Handle("GET /api/switches", h.Authed(h.ListSwitches))
	mux.Handle("POST /api/switches", h.Admin(h.CreateSwitch))
	mux.Handle("PUT /api/switches/{id}", h.Admin(h.UpdateSwitch))
	mux.Handle("DELETE /api/switches/{id}", h.Admin(h.DeleteSwitch))
	mux.Handle("GET /api/switches/{id}/ports", h.Authed(h.ListSwitchPorts))
	mux.Handle("POST /api/switches/{id}/ports", h.Admin(h.CreateSwitchPort))
	mux.Handle("PUT /api/ports/{id}", h.Admin(h.UpdateSwitchPort))
	mux.Handle("DELETE /api/ports/{id}", h.Admin(h.DeleteSwitchPort))
	mux.Handle("GET /api/ports/{id}/vlans", h.Authed(h.GetPortVlans))
	mux.Handle("PUT /api/ports/{id}/vlans", h.Admin(h.SetPortVlans))

	// Audit trail
	mux.Handle("GET /api/audit", h.Admin(h.ListAudit))

	finalHandler := handler.Chain(mux,
		handler.Recover(log),
		handler.CORS,
		handler.RequestLogger(log),
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("server stopped")
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(parsed).With().Timestamp().Logger()
}

// bootstrapAdmin seeds the initial admin account when the accounts
// table is empty. Without a configured password it generates one and
// prints it once; it is not recoverable afterwards.
func bootstrapAdmin(ctx context.Context, repo repository.Store, auth *service.AuthService, password string, log zerolog.Logger) error {
	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) > 0 {
		return nil
	}

	generated := false
	if password == "" {
		buf := make([]byte, 18)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		password = "A1!" + base64.RawURLEncoding.EncodeToString(buf)
		generated = true
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	account := &domain.Account{Username: "admin", PasswordHash: hash, Role: domain.RoleAdmin}
	if err := repo.CreateAccount(ctx, account); err != nil {
		return err
	}

	if generated {
		log.Warn().Str("username", "admin").Str("password", password).
			Msg("created initial admin account; change this password immediately")
	} else {
		log.Info().Str("username", "admin").Msg("created initial admin account")
	}
	return nil
}
