package files

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
)

// Cloudinary stores job images. Only the returned ids and URLs matter to the
// rest of the system.

var httpClient = &http.Client{Timeout: 30 * time.Second}

type Upload struct {
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes"`
	ResourceType string `json:"resource_type"`
}

func cloudName() string { return os.Getenv("CLOUDINARY_CLOUD_NAME") }
func cloudKey() string  { return os.Getenv("CLOUDINARY_API_KEY") }
func cloudSecret() string {
	return os.Getenv("CLOUDINARY_API_SECRET")
}

// sign builds the Cloudinary request signature: the sorted params joined as a
// query string, with the API secret appended, hashed with SHA-1.
func sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += "&"
		}
		s += k + "=" + params[k]
	}
	sum := sha1.Sum([]byte(s + cloudSecret()))
	return hex.EncodeToString(sum[:])
}

// UploadFile sends one file to Cloudinary and returns its stored identity.
func UploadFile(ctx context.Context, file io.Reader, filename, folder string) (Upload, error) {
	if cloudName() == "" || cloudKey() == "" || cloudSecret() == "" {
		return Upload{}, apperr.E(apperr.KindInternal, "cloudinary is not configured")
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{"timestamp": timestamp}
	if folder != "" {
		params["folder"] = folder
	}
	signature := sign(params)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Upload{}, apperr.Wrap(apperr.KindInternal, "upload encode failed", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Upload{}, apperr.Wrap(apperr.KindInternal, "upload encode failed", err)
	}
	_ = w.WriteField("api_key", cloudKey())
	_ = w.WriteField("timestamp", timestamp)
	_ = w.WriteField("signature", signature)
	if folder != "" {
		_ = w.WriteField("folder", folder)
	}
	if err := w.Close(); err != nil {
		return Upload{}, apperr.Wrap(apperr.KindInternal, "upload encode failed", err)
	}

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", cloudName())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return Upload{}, apperr.Wrap(apperr.KindInternal, "upload request build failed", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		return Upload{}, apperr.Wrap(apperr.KindExternal, "cloudinary is unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Upload{}, apperr.Ef(apperr.KindExternal, "cloudinary upload failed with status %d", resp.StatusCode)
	}

	var payload struct {
		SecureURL    string `json:"secure_url"`
		PublicID     string `json:"public_id"`
		Format       string `json:"format"`
		Bytes        int64  `json:"bytes"`
		ResourceType string `json:"resource_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Upload{}, apperr.Wrap(apperr.KindExternal, "cloudinary response decode failed", err)
	}
	return Upload{
		URL:          payload.SecureURL,
		PublicID:     payload.PublicID,
		Format:       payload.Format,
		Bytes:        payload.Bytes,
		ResourceType: payload.ResourceType,
	}, nil
}

// Delete removes stored files by public id. Best-effort per id.
func Delete(ctx context.Context, publicIDs []string) error {
	for _, id := range publicIDs {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		params := map[string]string{"public_id": id, "timestamp": timestamp}
		form := fmt.Sprintf("public_id=%s&api_key=%s&timestamp=%s&signature=%s",
			id, cloudKey(), timestamp, sign(params))

		url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/destroy", cloudName())
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(form))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "delete request build failed", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := httpClient.Do(req)
		if err != nil {
			return apperr.Wrap(apperr.KindExternal, "cloudinary is unreachable", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return apperr.Ef(apperr.KindExternal, "cloudinary delete failed with status %d", resp.StatusCode)
		}
	}
	return nil
}

// HandleUpload accepts multipart uploads and returns their stored identities.
func HandleUpload(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	form, err := c.MultipartForm()
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "multipart form with files is required"))
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "at least one file is required"))
	}
	ctx := c.Request().Context()

	uploads := make([]Upload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInvalid, "could not read upload", err))
		}
		up, err := UploadFile(ctx, f, fh.Filename, "jobs")
		f.Close()
		if err != nil {
			return apperr.Respond(c, err)
		}
		uploads = append(uploads, up)
	}
	return apperr.Created(c, "Files uploaded", uploads)
}
