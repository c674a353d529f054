package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/kamai-suraksha/frontend/internal/applications"
	"github.com/kamai-suraksha/frontend/internal/backend"
	"github.com/kamai-suraksha/frontend/internal/identity"
	"github.com/kamai-suraksha/frontend/internal/offers"
	"github.com/kamai-suraksha/frontend/internal/profile"
	"github.com/kamai-suraksha/frontend/internal/server"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"5000"`

	AuthDomain      string `env:"AUTH_DOMAIN" required:"true"`
	AuthClientId    string `env:"AUTH_CLIENT_ID" required:"true"`
	AuthRedirectUri string `env:"AUTH_REDIRECT_URI" required:"true"`
	AuthLogoutUri   string `env:"AUTH_LOGOUT_URI" required:"true"`
	AuthScopes      string `env:"AUTH_SCOPES" default:"openid email profile"`

	TokenExchangeUrl string `env:"TOKEN_EXCHANGE_URL" required:"true"`
	ApiBaseUrl       string `env:"API_BASE_URL" required:"true"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN" default:"http://localhost:5173"`
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM)
	defer close()

	identityClient := identity.NewClient(identity.Config{
		Domain:      config.AuthDomain,
		ClientId:    config.AuthClientId,
		RedirectUri: config.AuthRedirectUri,
		LogoutUri:   config.AuthLogoutUri,
		Scopes:      strings.Fields(config.AuthScopes),
		ExchangeUrl: config.TokenExchangeUrl,
	})

	api := backend.NewClient(config.ApiBaseUrl)
	srv := server.New(
		identityClient,
		profile.NewClient(api),
		offers.NewClient(api),
		applications.NewClient(api),
	)

	withCors := cors.New(cors.Options{
		AllowedOrigins:   []string{config.FrontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowCredentials: true,
	}).Handler(srv)

	addr := fmt.Sprintf("%s:%d", config.BindAddr, config.ListenPort)
	httpServer := &http.Server{Addr: addr, Handler: withCors}

	fmt.Printf("Listening on %s...\n", addr)
	var wg errgroup.Group
	wg.Go(httpServer.ListenAndServe)

	select {
	case <-ctx.Done():
		fmt.Printf("Received signal; closing server...\n")
		httpServer.Shutdown(context.Background())
	}

	err = wg.Wait()
	if err == http.ErrServerClosed {
		fmt.Printf("Server closed.\n")
	} else {
		log.Fatalf("error running server: %v", err)
	}
}
