package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"questbooking/internal/api"
	"questbooking/internal/auth"
	"questbooking/internal/repository"
	"questbooking/internal/schedule"
	"questbooking/internal/service"
)

func main() {
	godotenv.Load()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal().Msg("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open DB")
	}
	if err := database.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}

	leadTime := time.Hour
	if raw := os.Getenv("BOOKING_LEAD_TIME"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			leadTime = d
		} else {
			log.Warn().Str("value", raw).Msg("invalid BOOKING_LEAD_TIME, using 1h")
		}
	}

	tzName := os.Getenv("VENUE_TZ")
	if tzName == "" {
		tzName = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Warn().Str("tz", tzName).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal().Msg("JWT_SECRET not set")
	}
	creds, err := service.ParseAdminCredentials(os.Getenv("ADMIN_CREDENTIALS"))
	if err != nil {
		log.Fatal().Err(err).Msg("ADMIN_CREDENTIALS invalid")
	}

	bookingRepo := repository.NewBookingRepository(database)
	blockedRepo := repository.NewBlockedDateRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	sched := schedule.New(schedule.DefaultSlots, leadTime, loc)
	notifier := service.NewNotifier(service.DefaultCoalesceDelay)
	sender := service.NewSenderService()

	ledger := service.NewBookingService(bookingRepo, blockedRepo, sched, notifier, sender)
	settings := service.NewSettingsService(settingsRepo, notifier)
	authSvc := service.NewAdminAuthService(creds, secret, time.Hour)
	digest := service.NewDigestService(ledger, sender, loc)

	userHandler := api.NewUserBookingHandler(ledger, settings)
	adminHandler := api.NewAdminHandler(ledger, settings)
	authHandler := api.NewAdminAuthHandler(authSvc)
	eventsHandler := api.NewEventsHandler(notifier)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/availability", userHandler.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/schedule", userHandler.GetSchedule).Methods("GET")
	r.HandleFunc("/api/bookings", userHandler.CreateBooking).Methods("POST")
	r.HandleFunc("/api/bookings", userHandler.ListBookingsForDate).Methods("GET")
	r.HandleFunc("/api/bookings/{id}", userHandler.GetBooking).Methods("GET")
	r.HandleFunc("/api/bookings/{id}", userHandler.CancelBooking).Methods("DELETE")
	r.HandleFunc("/api/support-phone", userHandler.GetSupportPhone).Methods("GET")
	r.HandleFunc("/api/events", eventsHandler.ServeWS)
	r.HandleFunc("/admin/login", authHandler.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(secret))
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings", adminHandler.CreateBooking).Methods("POST")
	admin.HandleFunc("/bookings/{id}", adminHandler.UpdateBooking).Methods("PUT")
	admin.HandleFunc("/bookings/{id}/confirm", adminHandler.ConfirmBooking).Methods("POST")
	admin.HandleFunc("/bookings/{id}", adminHandler.DeleteBooking).Methods("DELETE")
	admin.HandleFunc("/blocked-dates", adminHandler.ListBlockedDates).Methods("GET")
	admin.HandleFunc("/blocked-dates", adminHandler.BlockDates).Methods("POST")
	admin.HandleFunc("/blocked-dates/{date}", adminHandler.UnblockDate).Methods("DELETE")
	admin.HandleFunc("/support-phone", adminHandler.UpdateSupportPhone).Methods("PUT")

	digestCron := cron.New()
	digestSpec := os.Getenv("DIGEST_CRON")
	if digestSpec == "" {
		digestSpec = "0 21 * * *"
	}
	if _, err := digestCron.AddFunc(digestSpec, func() {
		if err := digest.SendNextDayDigest(); err != nil {
			log.Error().Err(err).Msg("digest job failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("spec", digestSpec).Msg("invalid DIGEST_CRON")
	}
	digestCron.Start()
	defer digestCron.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handlers.LoggingHandler(os.Stdout, corsHandler(r)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", port).Msg("server running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
