// Package web exposes the booking engine as a JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/example/marina-booking/internal/auth"
	"github.com/example/marina-booking/internal/booking"
)

type Server struct {
	Auth     *auth.Store
	Bookings *booking.Service

	AllowedOrigins []string
}

func (s *Server) Routes() http.Handler {
	router := httprouter.New()
	rl := NewRateLimiter()

	router.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	router.POST("/api/auth/register", rl.Limit(s.handleRegister))
	router.POST("/api/auth/login", rl.Limit(s.handleLogin))
	router.POST("/api/auth/logout", s.handleLogout)

	router.POST("/api/booking", s.Auth.RequireAuth(s.handleBook))
	router.POST("/api/booking/available", s.Auth.RequireAuth(s.handleAvailable))
	router.GET("/api/booking/my", s.Auth.RequireAuth(s.handleMy))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(logRequests(router))
}

// logRequests logs each request method, path, remote address, and duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s - %v", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeMessage(w, http.StatusConflict, "Slot is already booked for this time.")
	case errors.Is(err, booking.ErrStoreUnavailable):
		log.Printf("booking store error: %v", err)
		writeMessage(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
	default:
		log.Printf("booking error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "server error")
	}
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("listening on %s", addr)
	return srv.ListenAndServe()
}
