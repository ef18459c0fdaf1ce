package attendance

import (
	"bytes"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/pkg/errors"

	"smartattendance/backend/foundation/web"
	v1 "smartattendance/backend/internal/controller/http/v1"
	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/repository"
	"smartattendance/backend/internal/service/engine"
	"smartattendance/backend/internal/service/report"
)

type Controller struct {
	attendance Attendance
	latest     Latest
	now        func() time.Time
}

func NewController(attendance Attendance, latest Latest, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{attendance, latest, now}
}

// day reads the "date" query, falling back to today.
func (uc Controller) day(c *web.Context) (string, error) {
	raw := c.Query("date")
	if raw == "" {
		return uc.now().Format(engine.DateLayout), nil
	}
	d, err := date.ParseDate(raw)
	if err != nil {
		return "", web.NewRequestError(errors.Errorf("date %q must be YYYY-MM-DD", raw), http.StatusBadRequest)
	}
	return d.ToTime().Format(engine.DateLayout), nil
}

func (uc Controller) GetList(c *web.Context) error {
	day, err := uc.day(c)
	if err != nil {
		return c.RespondError(err)
	}
	filter := repository.AttendanceFilter{Date: day}

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if search, ok := c.GetQueryFunc(reflect.String, "search").(*string); ok {
		filter.Search = search
	}
	if shift, ok := c.GetQueryFunc(reflect.String, "shift").(*string); ok {
		filter.Shift = shift
	}
	if punctuality, ok := c.GetQueryFunc(reflect.String, "punctuality").(*string); ok {
		filter.Punctuality = punctuality
	}
	if status, ok := c.GetQueryFunc(reflect.String, "status").(*string); ok {
		filter.Status = status
	}
	if open, ok := c.GetQueryFunc(reflect.Bool, "open").(*bool); ok {
		filter.Open = open
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.attendance.ListAttendance(c.Ctx, filter)
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}
	if list == nil {
		list = []entity.Attendance{}
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"date":    day,
			"results": list,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetDetail(c *web.Context) error {
	day := c.GetParam(reflect.String, "date").(string)
	uid := c.GetParam(reflect.String, "uid").(string)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}
	if _, err := date.ParseDate(day); err != nil {
		return c.RespondError(web.NewRequestError(errors.Errorf("date %q must be YYYY-MM-DD", day), http.StatusBadRequest))
	}

	response, err := uc.attendance.GetAttendance(c.Ctx, day, uid)
	if err != nil {
		return c.RespondError(v1.RequestError(errors.Wrapf(err, "attendance %s/%s", day, uid)))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// Export downloads a day as xlsx (default) or pdf.
func (uc Controller) Export(c *web.Context) error {
	day, err := uc.day(c)
	if err != nil {
		return c.RespondError(err)
	}

	list, _, err := uc.attendance.ListAttendance(c.Ctx, repository.AttendanceFilter{Date: day})
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}

	var (
		buf         *bytes.Buffer
		contentType string
		ext         string
	)
	switch format := c.DefaultQuery("format", "xlsx"); format {
	case "xlsx":
		buf, err = report.AttendanceXLSX(day, list)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	case "pdf":
		buf, err = report.AttendancePDF(day, list)
		contentType = "application/pdf"
		ext = "pdf"
	default:
		return c.RespondError(web.NewRequestError(errors.Errorf("format %q must be xlsx or pdf", format), http.StatusBadRequest))
	}
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Disposition", "attachment; filename=\"attendance_"+day+"."+ext+"\"")
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, contentType, buf.Bytes())
	return nil
}

func (uc Controller) GetLatest(c *web.Context) error {
	modality, err := entity.ParseModality(c.Param("modality"))
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}

	response, err := uc.latest.GetLatest(c.Ctx, modality)
	if err != nil {
		return c.RespondError(v1.RequestError(errors.Wrap(err, modality.LatestKey())))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}
