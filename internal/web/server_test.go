package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/example/marina-booking/internal/auth"
	"github.com/example/marina-booking/internal/booking"
)

type testEnv struct {
	handler http.Handler
	ledger  *booking.MemoryLedger
	a1, a2  booking.Slot
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ledger := booking.NewMemoryLedger()
	a1 := ledger.AddSlot("Berth A1", decimal.NewFromInt(50))
	a2 := ledger.AddSlot("Berth A2", decimal.NewFromInt(50))

	authStore := auth.NewStore(
		auth.NewMemoryUsers(),
		[]byte("test-secret"),
		bytes.Repeat([]byte{0x01}, 32),
		bytes.Repeat([]byte{0x02}, 32),
	)
	srv := &Server{
		Auth:           authStore,
		Bookings:       booking.NewService(ledger, nil),
		AllowedOrigins: []string{"*"},
	}
	return &testEnv{handler: srv.Routes(), ledger: ledger, a1: a1, a2: a2}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name": "Ada", "last_name": "Shore", "email": email,
		"vessel_name": "Calypso", "password": "s3cret",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: want 201, got %d (%s)", rr.Code, rr.Body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Token == "" {
		t.Fatal("register returned empty token")
	}
	return out.Token
}

func bookBody(slotID int64, startTime, endTime string) map[string]any {
	return map[string]any{
		"slot_id":    slotID,
		"start_date": "2026-03-02",
		"start_time": startTime,
		"end_date":   "2026-03-02",
		"end_time":   endTime,
		"email":      "skipper@example.com",
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	e.registerAndLogin(t, "ada@example.com")

	rr := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "other",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.registerAndLogin(t, "ada@example.com")

	rr := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: want 200, got %d (%s)", rr.Code, rr.Body)
	}
	foundSession := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == "marina_session" && c.Value != "" {
			foundSession = true
		}
	}
	if !foundSession {
		t.Error("login did not set a session cookie")
	}

	rr = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: want 401, got %d", rr.Code)
	}
}

func TestBooking_RequiresAuth(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do(t, http.MethodPost, "/api/booking", "", bookBody(e.a1.ID, "09:00", "11:00"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rr.Code)
	}
}

func TestBookingFlow(t *testing.T) {
	e := newTestEnv(t)
	token := e.registerAndLogin(t, "ada@example.com")

	rr := e.do(t, http.MethodPost, "/api/booking", token, bookBody(e.a1.ID, "09:00", "11:00"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("book: want 201, got %d (%s)", rr.Code, rr.Body)
	}
	var created struct {
		TotalPrice  string `json:"total_price"`
		Reservation struct {
			ID      string `json:"id"`
			SlotID  int64  `json:"slot_id"`
			StartAt string `json:"start_at"`
		} `json:"reservation"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.TotalPrice != "100.00" {
		t.Errorf("total_price = %q, want 100.00", created.TotalPrice)
	}
	if created.Reservation.ID == "" || created.Reservation.SlotID != e.a1.ID {
		t.Errorf("unexpected reservation payload: %+v", created.Reservation)
	}

	// overlapping window loses with a conflict
	rr = e.do(t, http.MethodPost, "/api/booking", token, bookBody(e.a1.ID, "10:00", "12:00"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("overlap: want 409, got %d (%s)", rr.Code, rr.Body)
	}

	// boundary-touching window is fine
	rr = e.do(t, http.MethodPost, "/api/booking", token, bookBody(e.a1.ID, "11:00", "13:00"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("touching: want 201, got %d (%s)", rr.Code, rr.Body)
	}
}

func TestBooking_StartHourRulePricing(t *testing.T) {
	e := newTestEnv(t)
	e.ledger.AddRule(e.a1.ID, 9, 1, decimal.NewFromFloat(1.5)) // 2026-03-02 is a Monday
	token := e.registerAndLogin(t, "ada@example.com")

	rr := e.do(t, http.MethodPost, "/api/booking", token, bookBody(e.a1.ID, "09:00", "11:00"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d (%s)", rr.Code, rr.Body)
	}
	var created struct {
		TotalPrice string `json:"total_price"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.TotalPrice != "150.00" {
		t.Errorf("total_price = %q, want 150.00", created.TotalPrice)
	}
}

func TestBooking_MalformedInterval(t *testing.T) {
	e := newTestEnv(t)
	token := e.registerAndLogin(t, "ada@example.com")

	rr := e.do(t, http.MethodPost, "/api/booking", token, bookBody(e.a1.ID, "11:00", "09:00"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d (%s)", rr.Code, rr.Body)
	}

	// nothing was committed
	rr = e.do(t, http.MethodPost, "/api/booking/available", token, map[string]string{
		"start_date": "2026-03-02", "start_time": "00:00",
		"end_date": "2026-03-02", "end_time": "23:00",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("available: want 200, got %d", rr.Code)
	}
	var free []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&free); err != nil {
		t.Fatal(err)
	}
	if len(free) != 2 {
		t.Errorf("want both slots still free, got %d", len(free))
	}
}

func TestAvailable_ExcludesBooked(t *testing.T) {
	e := newTestEnv(t)
	token := e.registerAndLogin(t, "ada@example.com")

	rr := e.do(t, http.MethodPost, "/api/booking", token, bookBody(e.a1.ID, "09:00", "11:00"))
	if rr.Code != http.StatusCreated {
		t.Fatal(rr.Body.String())
	}

	rr = e.do(t, http.MethodPost, "/api/booking/available", token, map[string]string{
		"start_date": "2026-03-02", "start_time": "09:00",
		"end_date": "2026-03-02", "end_time": "11:00",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (%s)", rr.Code, rr.Body)
	}
	var free []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&free); err != nil {
		t.Fatal(err)
	}
	if len(free) != 1 || free[0].ID != e.a2.ID {
		t.Fatalf("want only %d free, got %+v", e.a2.ID, free)
	}
}

func TestMyReservations(t *testing.T) {
	e := newTestEnv(t)
	token := e.registerAndLogin(t, "ada@example.com")
	other := e.registerAndLogin(t, "bob@example.com")

	for _, w := range [][2]string{{"09:00", "10:00"}, {"14:00", "15:00"}} {
		rr := e.do(t, http.MethodPost, "/api/booking", token, bookBody(e.a1.ID, w[0], w[1]))
		if rr.Code != http.StatusCreated {
			t.Fatal(rr.Body.String())
		}
	}
	// other user's booking must not show up
	rr := e.do(t, http.MethodPost, "/api/booking", other, bookBody(e.a2.ID, "09:00", "10:00"))
	if rr.Code != http.StatusCreated {
		t.Fatal(rr.Body.String())
	}

	rr = e.do(t, http.MethodGet, "/api/booking/my", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (%s)", rr.Code, rr.Body)
	}
	var mine []struct {
		SlotName string `json:"slot_name"`
		StartAt  string `json:"start_at"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&mine); err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Fatalf("want 2 reservations, got %d", len(mine))
	}
	if mine[0].StartAt != "2026-03-02 14:00:00" || mine[1].StartAt != "2026-03-02 09:00:00" {
		t.Errorf("not newest-first: %+v", mine)
	}
	if mine[0].SlotName != "Berth A1" {
		t.Errorf("slot_name = %q", mine[0].SlotName)
	}
}

type failingLedger struct {
	*booking.MemoryLedger
	err error
}

func (f *failingLedger) WithSlotLock(context.Context, int64, func(tx booking.LedgerTx) error) error {
	return f.err
}

func TestBooking_StoreFailureReturns503(t *testing.T) {
	ledger := booking.NewMemoryLedger()
	slot := ledger.AddSlot("Berth A1", decimal.NewFromInt(50))

	authStore := auth.NewStore(
		auth.NewMemoryUsers(),
		[]byte("test-secret"),
		bytes.Repeat([]byte{0x01}, 32),
		bytes.Repeat([]byte{0x02}, 32),
	)
	srv := &Server{
		Auth:           authStore,
		Bookings:       booking.NewService(&failingLedger{MemoryLedger: ledger, err: errors.New("connection refused")}, nil),
		AllowedOrigins: []string{"*"},
	}
	e := &testEnv{handler: srv.Routes(), ledger: ledger, a1: slot}
	token := e.registerAndLogin(t, "ada@example.com")

	rr := e.do(t, http.MethodPost, "/api/booking", token, bookBody(slot.ID, "09:00", "11:00"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d (%s)", rr.Code, rr.Body)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
}
