package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/marina-booking/internal/auth"
	"github.com/example/marina-booking/internal/booking"
)

const instantLayout = "2006-01-02 15:04:05"

type registerRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	VesselName string `json:"vessel_name"`
	Password   string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u := auth.User{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		Company:    strings.TrimSpace(req.Company),
		VesselName: strings.TrimSpace(req.VesselName),
	}
	_, token, err := s.Auth.Register(r.Context(), u, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeMessage(w, http.StatusBadRequest, "User already exists")
			return
		}
		log.Printf("register: %v", err)
		writeMessage(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := s.Auth.Authenticate(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("login: %v", err)
		writeMessage(w, http.StatusInternalServerError, "server error")
		return
	}
	// browser clients get a session cookie alongside the token
	if err := s.Auth.SetSession(w, r, u.ID); err != nil {
		log.Printf("set session: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.Auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

type window struct {
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	EndDate   string `json:"end_date"`
	EndTime   string `json:"end_time"`
}

// parse combines the request's date and time fields into naive local
// instants; the core never sees separate date/time parts.
func (t window) parse() (start, end time.Time, err error) {
	start, err = combineDateTime(t.StartDate, t.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err = combineDateTime(t.EndDate, t.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

func combineDateTime(date, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if len(clock) == 5 {
		clock += ":00"
	}
	return time.Parse(instantLayout, strings.TrimSpace(date)+" "+clock)
}

type bookRequest struct {
	SlotID int64 `json:"slot_id"`
	window
	Email string `json:"email"`
}

type reservationDTO struct {
	ID         string `json:"id"`
	SlotID     int64  `json:"slot_id"`
	SlotName   string `json:"slot_name,omitempty"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`
	TotalPrice string `json:"total_price"`
}

func toDTO(r booking.Reservation, slotName string) reservationDTO {
	return reservationDTO{
		ID:         r.ID,
		SlotID:     r.SlotID,
		SlotName:   slotName,
		StartAt:    r.StartAt.Format(instantLayout),
		EndAt:      r.EndAt.Format(instantLayout),
		TotalPrice: r.TotalPrice.StringFixed(2),
	}
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, end, err := req.parse()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	notifyEmail := strings.TrimSpace(req.Email)
	if notifyEmail == "" {
		// fall back to the account email, as the upstream behavior did
		if u, err := s.Auth.UserByID(r.Context(), uid); err == nil {
			notifyEmail = u.Email
		}
	}

	res, err := s.Bookings.Book(r.Context(), booking.BookRequest{
		UserID:      uid,
		SlotID:      req.SlotID,
		StartAt:     start,
		EndAt:       end,
		NotifyEmail: notifyEmail,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Reservation successful",
		"total_price": res.TotalPrice.StringFixed(2),
		"reservation": toDTO(res, ""),
	})
}

type slotDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	HourlyRate string `json:"hourly_rate"`
}

func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req window
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, end, err := req.parse()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	free, err := s.Bookings.Available(r.Context(), start, end)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	out := make([]slotDTO, 0, len(free))
	for _, sl := range free {
		out = append(out, slotDTO{ID: sl.ID, Name: sl.Name, HourlyRate: sl.HourlyRate.StringFixed(2)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMy(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid, _ := auth.UserIDFromContext(r.Context())

	mine, err := s.Bookings.MyReservations(r.Context(), uid)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	out := make([]reservationDTO, 0, len(mine))
	for _, ur := range mine {
		out = append(out, toDTO(ur.Reservation, ur.SlotName))
	}
	writeJSON(w, http.StatusOK, out)
}
