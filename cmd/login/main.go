package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/codingconcepts/env"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"

	"github.com/kamai-suraksha/frontend/internal/backend"
	"github.com/kamai-suraksha/frontend/internal/handoff"
	"github.com/kamai-suraksha/frontend/internal/identity"
	"github.com/kamai-suraksha/frontend/internal/profile"
	"github.com/kamai-suraksha/frontend/internal/session"
)

type Config struct {
	CallbackPort uint16 `env:"CALLBACK_PORT" default:"5173"`

	AuthDomain    string `env:"AUTH_DOMAIN" required:"true"`
	AuthClientId  string `env:"AUTH_CLIENT_ID" required:"true"`
	AuthLogoutUri string `env:"AUTH_LOGOUT_URI"`
	AuthScopes    string `env:"AUTH_SCOPES" default:"openid email profile"`

	TokenExchangeUrl string `env:"TOKEN_EXCHANGE_URL" required:"true"`
	ApiBaseUrl       string `env:"API_BASE_URL" required:"true"`
}

// This binary runs the same handoff flow the web app performs, but from a
// terminal: it spins up a tiny local HTTP server so the hosted login page
// has somewhere to redirect to, opens the browser, captures the one-time
// code, and drives the handoff controller with it. Useful for verifying a
// user pool + exchange endpoint configuration end-to-end.
func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	redirectUri := fmt.Sprintf("http://localhost:%d/callback", config.CallbackPort)
	identityClient := identity.NewClient(identity.Config{
		Domain:      config.AuthDomain,
		ClientId:    config.AuthClientId,
		RedirectUri: redirectUri,
		LogoutUri:   config.AuthLogoutUri,
		Scopes:      strings.Fields(config.AuthScopes),
		ExchangeUrl: config.TokenExchangeUrl,
	})

	store := session.NewTokenStore(session.NewMemoryStorage(), session.NewMemoryStorage())
	manager := session.NewManager(store, identityClient)
	controller := handoff.New(store, manager, identityClient, profile.NewClient(backend.NewClient(config.ApiBaseUrl)))

	state := uuid.NewString()

	// Capture the redirect back from the hosted login page
	queryChannel := make(chan url.Values, 1)
	httpServer := &http.Server{
		Addr: fmt.Sprintf("localhost:%d", config.CallbackPort),
		Handler: http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/callback" {
				http.Error(res, "path not supported", http.StatusNotFound)
				return
			}
			if req.URL.Query().Get("state") != state {
				http.Error(res, "state verification failed", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(res, "Login received; you can close this window and return to the terminal.")
			queryChannel <- req.URL.Query()
		}),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("error running callback server: %v", err)
		}
	}()
	defer httpServer.Shutdown(context.Background())

	authUrl := identityClient.AuthCodeURL(state)
	fmt.Printf("Opening web browser: %s\n", authUrl)
	browser.OpenURL(authUrl)

	var query url.Values
	select {
	case query = <-queryChannel:
	case <-ctx.Done():
		log.Fatalf("timed out waiting for login")
	}

	result := controller.HandleCallback(ctx, query)
	if result.ErrorMessage != "" {
		log.Fatalf("login failed: %s", result.ErrorMessage)
	}

	switch result.State {
	case handoff.StateAuthenticated:
		snapshot := controller.Snapshot()
		fmt.Printf("Logged in as %q (admin: %v, confidence score: %d)\n",
			snapshot.Profile.FullName, snapshot.Admin, snapshot.ConfidenceScore)
	case handoff.StateOnboardingRequired:
		fmt.Printf("Logged in, but this account has not completed onboarding yet.\n")
	default:
		fmt.Printf("Login finished in state %s\n", result.State)
	}

	triple := store.Load()
	fmt.Printf("access token: %s\n", triple.AccessToken)
	fmt.Printf("refresh token: %s\n", triple.RefreshToken)
}
