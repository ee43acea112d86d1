package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID         int64
	FirstName  string
	LastName   string
	Phone      string
	Email      string
	Company    string
	VesselName string

	PasswordHash string
	CreatedAt    time.Time
}

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore persists accounts. Create returns ErrEmailTaken on a
// duplicate email, ByEmail/ByID return ErrUserNotFound.
type UserStore interface {
	Create(ctx context.Context, u User) (int64, error)
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
}

const (
	tokenTTL   = 12 * time.Hour
	sessionTTL = 14 * 24 * time.Hour
	cookieName = "marina_session"
)

// Store issues Bearer tokens for API clients and a signed session cookie
// for same-origin browser clients; RequireAuth accepts either.
type Store struct {
	users     UserStore
	sc        *securecookie.SecureCookie
	jwtSecret []byte
}

func NewStore(users UserStore, jwtSecret, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionTTL.Seconds()))
	return &Store{users: users, sc: sc, jwtSecret: jwtSecret}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Register creates the account and returns its id with a fresh token.
func (s *Store) Register(ctx context.Context, u User, password string) (int64, string, error) {
	if u.Email == "" || password == "" {
		return 0, "", fmt.Errorf("email and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return 0, "", err
	}
	u.PasswordHash = hash
	id, err := s.users.Create(ctx, u)
	if err != nil {
		return 0, "", err
	}
	token, err := s.IssueToken(id)
	if err != nil {
		return 0, "", err
	}
	return id, token, nil
}

// Authenticate verifies email/password and returns the user with a fresh
// token. Unknown emails and bad passwords are indistinguishable to the
// caller.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, string, error) {
	u, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return User{}, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(u.ID)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	return s.users.ByID(ctx, id)
}

type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

func (s *Store) IssueToken(userID int64) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Store) VerifyToken(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID <= 0 {
		return 0, fmt.Errorf("invalid token")
	}
	return claims.UserID, nil
}

type session struct {
	UserID int64
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	encoded, err := s.sc.Encode(cookieName, session{UserID: userID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) sessionUserID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return 0, false
	}
	var sess session
	if err := s.sc.Decode(cookieName, c.Value, &sess); err != nil || sess.UserID <= 0 {
		return 0, false
	}
	return sess.UserID, true
}

type ctxKey string

const userIDKey ctxKey = "userID"

// RequireAuth resolves the caller's identity from a Bearer token or,
// failing that, the session cookie, and puts the user id on the request
// context. No further authorization happens downstream; the core trusts
// this id as-is.
func (s *Store) RequireAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		uid, ok := s.requestUserID(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next(w, r.WithContext(ctx), ps)
	}
}

func (s *Store) requestUserID(r *http.Request) (int64, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		uid, err := s.VerifyToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return 0, false
		}
		return uid, true
	}
	return s.sessionUserID(r)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(userIDKey).(int64)
	return uid, ok
}
