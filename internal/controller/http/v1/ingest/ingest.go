package ingest

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"smartattendance/backend/foundation/web"
	v1 "smartattendance/backend/internal/controller/http/v1"
	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/service/engine"
)

type Controller struct {
	plate  Plate
	engine Engine
	now    func() time.Time
}

func NewController(plate Plate, engine Engine, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{plate, engine, now}
}

// Plate takes the camera frame either as the raw request body or as the
// "file" field of a multipart form.
func (uc Controller) Plate(c *web.Context) error {
	raw, err := frame(c)
	if err != nil {
		return c.RespondError(err)
	}
	if len(raw) == 0 {
		return c.RespondError(web.NewRequestError(errors.New("decode failed"), http.StatusBadRequest))
	}

	response, err := uc.plate.Ingest(c.Ctx, raw)
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) RFID(c *web.Context) error {
	var request RFIDRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		return c.RespondError(web.NewRequestError(errors.New("UID required"), http.StatusBadRequest))
	}
	uid := strings.TrimSpace(request.UID)
	if uid == "" {
		return c.RespondError(web.NewRequestError(errors.New("UID required"), http.StatusBadRequest))
	}

	now := uc.now().Format(engine.TimestampLayout)
	result, err := uc.engine.Process(c.Ctx, engine.Event{
		Modality:  entity.ModalityRFID,
		Key:       uid,
		Timestamp: now,
	})
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"data": RFIDResponse{
			UID:        uid,
			Time:       now,
			Attendance: result,
		},
		"status": true,
	}, http.StatusOK)
}

var imageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/webp",
	"image/tiff",
	"application/octet-stream",
}

func frame(c *web.Context) ([]byte, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		raw, err := c.GetRawData()
		if err != nil {
			return nil, web.NewRequestError(errors.Wrap(err, "reading body"), http.StatusBadRequest)
		}
		return raw, nil
	}

	file, err := c.FormFile("file")
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "file field"), http.StatusBadRequest)
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !inArray(ct, imageTypes) {
		return nil, web.NewRequestError(errors.Errorf("invalid file type, expected: %v, got: %s", imageTypes, ct), http.StatusBadRequest)
	}

	f, err := file.Open()
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "opening upload"), http.StatusBadRequest)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "reading upload"), http.StatusBadRequest)
	}
	return raw, nil
}

func inArray[T comparable](val T, array []T) bool {
	for _, v := range array {
		if val == v {
			return true
		}
	}
	return false
}
