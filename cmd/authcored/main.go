// Command authcored runs the credential and session service over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/smtp"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/easytrans/authcore"
	authoauth "github.com/easytrans/authcore/oauth2"
	"github.com/easytrans/authcore/stores"
	gormstore "github.com/easytrans/authcore/stores/gorm"
	s3store "github.com/easytrans/authcore/uploads/s3"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := authcore.ConfigFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	store, err := buildStore(cfg)
	if err != nil {
		slog.Error("failed to initialize store", "err", err)
		os.Exit(1)
	}

	images, err := buildImageStore(cfg)
	if err != nil {
		slog.Error("failed to initialize image store", "err", err)
		os.Exit(1)
	}

	session := scs.New()
	session.Lifetime = 24 * time.Hour
	session.Cookie.Secure = cfg.Production

	tokens := authcore.NewTokenIssuer(cfg.JWTSecret, cfg.Production)
	auth := &authcore.AuthController{
		Store:       store,
		Tokens:      tokens,
		Codes:       &authcore.ResetCodeManager{Store: store},
		Resolver:    authcore.NewOAuthIdentityResolver(store, images),
		Mailer:      buildMailer(cfg),
		Session:     session,
		FrontendURL: cfg.FrontendURL,
	}
	users := &authcore.UserController{Store: store, Images: images}
	mw := &authcore.Middleware{Tokens: tokens, Session: session}

	var googleStart, googleCallback http.Handler
	if cfg.GoogleEnabled() {
		google := authoauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		googleStart = http.HandlerFunc(google.HandleStart)
		googleCallback = google.CallbackHandler(cfg.FrontendURL, auth.CompleteOAuthLogin)
	}

	router := mux.NewRouter()
	authcore.AddAuthRoutes(router, auth, mw, googleStart, googleCallback)
	authcore.AddUserRoutes(router, users, mw)

	addr := os.Getenv("AUTHCORE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      session.LoadAndSave(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
}

func buildStore(cfg *authcore.Config) (authcore.CredentialStore, error) {
	if cfg.DatabaseDSN != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, err
		}
		return gormstore.NewUserStore(db), nil
	}

	dir := cfg.StoreDir
	if dir == "" {
		dir = "./data"
	}
	slog.Warn("no database configured, using filesystem store", "dir", dir)
	return stores.NewFSUserStore(dir), nil
}

func buildImageStore(cfg *authcore.Config) (authcore.ImageStore, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, err
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			o.UsePathStyle = true
		}
	})
	return s3store.NewStore(client, cfg.S3Bucket, cfg.S3PublicBaseURL), nil
}

func buildMailer(cfg *authcore.Config) authcore.Mailer {
	if cfg.SMTPAddr == "" {
		slog.Warn("no SMTP relay configured, logging emails to console")
		return &authcore.ConsoleMailer{}
	}
	mailer := &authcore.SMTPMailer{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	if cfg.SMTPUsername != "" {
		host, _, err := net.SplitHostPort(cfg.SMTPAddr)
		if err != nil {
			host = cfg.SMTPAddr
		}
		mailer.Auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, host)
	}
	return mailer
}
