package snapshots

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"smartattendance/backend/foundation/web"
)

type Controller struct {
	snapshots Snapshots
}

func NewController(snapshots Snapshots) *Controller {
	return &Controller{snapshots}
}

type listItem struct {
	Index int    `json:"index"`
	Time  string `json:"time"`
	Plate string `json:"plate"`
	Image string `json:"image"`
}

func (uc Controller) GetList(c *web.Context) error {
	snaps := uc.snapshots.List()

	results := make([]listItem, len(snaps))
	for i, s := range snaps {
		results[i] = listItem{
			Index: i,
			Time:  s.Time,
			Plate: s.Plate,
			Image: imagePath(i),
		}
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": results,
			"count":   len(results),
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetImage(c *web.Context) error {
	index := c.GetParam(reflect.Int, "index").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	snap, ok := uc.snapshots.Get(index)
	if !ok || len(snap.Image) == 0 {
		return c.RespondError(web.NewRequestError(errors.Errorf("snapshot %d not found", index), http.StatusNotFound))
	}

	c.Data(http.StatusOK, "image/png", snap.Image)
	return nil
}

func (uc Controller) GetLast(c *web.Context) error {
	return c.Respond(map[string]interface{}{
		"data":   uc.snapshots.Last(),
		"status": true,
	}, http.StatusOK)
}

func imagePath(i int) string {
	return "/api/v1/plate/snapshots/" + strconv.Itoa(i) + "/image"
}
