package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/your-org/facelink/pkg/dto"
)

var (
	errImageMissing     = errors.New("image required")
	errImageTooLarge    = errors.New("image too large")
	errImageUnsupported = errors.New("image must be JPEG or PNG")
)

// upload is an image received from a client.
type upload struct {
	Data []byte
	MIME string
	Ext  string
}

// readImage accepts an image as a multipart "image" part, a JSON body
// {"image": "<base64 or data URL>"} or a raw JPEG/PNG body.
func readImage(c *gin.Context, maxBytes int64) (*upload, error) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}

	data, err := readImageBody(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errImageTooLarge
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, errImageMissing
	}

	mt := mimetype.Detect(data)
	if !mt.Is("image/jpeg") && !mt.Is("image/png") {
		return nil, errImageUnsupported
	}
	return &upload{Data: data, MIME: mt.String(), Ext: mt.Extension()}, nil
}

func readImageBody(c *gin.Context) ([]byte, error) {
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm:
		fh, err := c.FormFile("image")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return nil, errImageMissing
			}
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)

	case gin.MIMEJSON:
		var req dto.ImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, errImageMissing
		}
		return decodeImageString(req.Image)

	default:
		return io.ReadAll(c.Request.Body)
	}
}

// decodeImageString decodes plain base64 or a data URL such as
// "data:image/jpeg;base64,...".
func decodeImageString(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, errImageUnsupported
		}
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, errImageUnsupported
		}
	}
	return data, nil
}

// respondImageError maps readImage failures to HTTP statuses.
func respondImageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errImageMissing):
		respondError(c, http.StatusBadRequest, "No image provided")
	case errors.Is(err, errImageTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, errImageUnsupported):
		respondError(c, http.StatusUnsupportedMediaType, err.Error())
	default:
		respondError(c, http.StatusBadRequest, "could not read image")
	}
}
