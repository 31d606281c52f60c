package auth

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/talenter-ng/talenter/internal/alerts"
	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/geo"
)

type SignupRequest struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Phone     string   `json:"phone"`
	Type      string   `json:"type"`
	Skills    []string `json:"skills"`
	Location  string   `json:"location"`
	PlaceID   string   `json:"place_id"`
}

// Signup registers a client or artisan and returns a session token.
func Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || len(req.Password) < 8 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "first_name, last_name, email and a password of at least 8 characters are required"))
	}
	if req.Type != "client" && req.Type != "artisan" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "type must be client or artisan"))
	}
	if req.Type == "artisan" && len(req.Skills) == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "artisans must list at least one skill"))
	}
	ctx := c.Request().Context()

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not hash password", err))
	}

	var lat, lng float64
	if req.PlaceID != "" {
		if la, ln, err := geo.PlaceCoordinates(ctx, req.PlaceID); err == nil {
			lat, lng = la, ln
		}
	}

	var userID string
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password, phone, type, skills,
			location, place_id, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, 0), NULLIF($11, 0))
		RETURNING id`,
		req.FirstName, req.LastName, req.Email, string(hashed), req.Phone, req.Type,
		req.Skills, req.Location, req.PlaceID, lat, lng).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Respond(c, apperr.E(apperr.KindConflict, "an account with this email already exists"))
		}
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not create account", err))
	}

	// wallet is created lazily on first use; the welcome mail is best-effort
	_ = alerts.EnqueueEmail(req.Email, "Welcome to Talenter",
		"Hi "+req.FirstName+", thanks for joining Talenter. Post a job or start bidding right away.")

	token, err := signToken(userID, req.Type)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Created(c, "Account created", echo.Map{"token": token, "user_id": userID})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a session token.
func Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	ctx := c.Request().Context()

	var userID, password, role string
	var isActive bool
	err := db.Conn.QueryRow(ctx,
		`SELECT id, password, type, is_active FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(req.Email))).Scan(&userID, &password, &role, &isActive)
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "invalid credentials"))
	}
	if !isActive {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "account suspended"))
	}
	if bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)) != nil {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "invalid credentials"))
	}

	token, err := signToken(userID, role)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Logged in", echo.Map{"token": token, "user_id": userID})
}

func signToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "token generation failed", err)
	}
	return signed, nil
}

// Me returns the authenticated user's profile.
func Me(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	u, err := loadProfile(c.Request().Context(), uid)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Profile", u)
}

func loadProfile(ctx context.Context, id string) (echo.Map, error) {
	var firstName, lastName, email, phone, userType, location, placeID, country string
	var skills []string
	var projects int
	var createdAt time.Time
	err := db.Conn.QueryRow(ctx, `
		SELECT first_name, last_name, email, COALESCE(phone, ''), type, skills,
			COALESCE(location, ''), COALESCE(place_id, ''), country, projects, created_at
		FROM users WHERE id = $1`, id).Scan(
		&firstName, &lastName, &email, &phone, &userType, &skills,
		&location, &placeID, &country, &projects, &createdAt)
	if err != nil {
		return nil, apperr.E(apperr.KindNotFound, "user does not exist")
	}
	return echo.Map{
		"id": id, "first_name": firstName, "last_name": lastName, "email": email,
		"phone": phone, "type": userType, "skills": skills, "location": location,
		"place_id": placeID, "country": country, "projects": projects, "created_at": createdAt,
	}, nil
}
