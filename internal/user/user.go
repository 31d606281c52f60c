package user

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/geo"
	"github.com/talenter-ng/talenter/internal/settings"
)

type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Type      string    `json:"type"`
	Skills    []string  `json:"skills"`
	Location  string    `json:"location,omitempty"`
	PlaceID   string    `json:"place_id,omitempty"`
	Latitude  float64   `json:"-"`
	Longitude float64   `json:"-"`
	Country   string    `json:"country"`
	Projects  int       `json:"projects"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

const profileCols = `id, first_name, last_name, email, COALESCE(phone, ''), type, skills,
	COALESCE(location, ''), COALESCE(place_id, ''),
	COALESCE(latitude, 0), COALESCE(longitude, 0), country, projects, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Type,
		&p.Skills, &p.Location, &p.PlaceID, &p.Latitude, &p.Longitude,
		&p.Country, &p.Projects, &p.IsActive, &p.CreatedAt)
	return p, err
}

// PublicProfile returns another user's profile with contact details hidden.
func PublicProfile(c echo.Context) error {
	p, err := scanProfile(db.Conn.QueryRow(c.Request().Context(),
		`SELECT `+profileCols+` FROM users WHERE id = $1`, c.Param("id")))
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "user does not exist"))
	}
	p.Email = ""
	p.Phone = ""
	return apperr.OK(c, "Profile", p)
}

type updateRequest struct {
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Phone     *string   `json:"phone"`
	Skills    *[]string `json:"skills"`
	Location  *string   `json:"location"`
	PlaceID   *string   `json:"place_id"`
}

// UpdateProfile applies a partial profile update for the caller.
func UpdateProfile(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	ctx := c.Request().Context()

	var lat, lng *float64
	if req.PlaceID != nil && *req.PlaceID != "" {
		if la, ln, err := geo.PlaceCoordinates(ctx, *req.PlaceID); err == nil {
			lat, lng = &la, &ln
		}
	}

	p, err := scanProfile(db.Conn.QueryRow(ctx, `
		UPDATE users SET
			first_name = COALESCE($1, first_name),
			last_name = COALESCE($2, last_name),
			phone = COALESCE($3, phone),
			skills = COALESCE($4, skills),
			location = COALESCE($5, location),
			place_id = COALESCE($6, place_id),
			latitude = COALESCE($7, latitude),
			longitude = COALESCE($8, longitude)
		WHERE id = $9
		RETURNING `+profileCols,
		req.FirstName, req.LastName, req.Phone, req.Skills,
		req.Location, req.PlaceID, lat, lng, uid))
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not update profile", err))
	}
	return apperr.OK(c, "Profile updated", p)
}

// FetchArtisans lists active artisans with a given skill, filtered to the
// platform radius around the caller when coordinates are known.
func FetchArtisans(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	skill := c.QueryParam("skill")
	if skill == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "skill is required"))
	}
	ctx := c.Request().Context()

	var myLat, myLng float64
	_ = db.Conn.QueryRow(ctx,
		`SELECT COALESCE(latitude, 0), COALESCE(longitude, 0) FROM users WHERE id = $1`, uid).
		Scan(&myLat, &myLng)

	rows, err := db.Conn.Query(ctx,
		`SELECT `+profileCols+` FROM users
		 WHERE type = 'artisan' AND is_active AND $1 = ANY(skills)
		 ORDER BY projects DESC`, skill)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch artisans", err))
	}
	defer rows.Close()

	s, err := settings.Get(ctx)
	if err != nil {
		return apperr.Respond(c, err)
	}
	artisans := make([]Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read artisans", err))
		}
		if !geo.Within(myLat, myLng, p.Latitude, p.Longitude, s.Distance) {
			continue
		}
		p.Email = ""
		p.Phone = ""
		artisans = append(artisans, p)
	}
	return apperr.OK(c, "Artisans", artisans)
}
