package identity

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"smartattendance/backend/foundation/web"
	v1 "smartattendance/backend/internal/controller/http/v1"
	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/service/report"
)

const qrSize = 256

type Controller struct {
	identity Identity
}

func NewController(identity Identity) *Controller {
	return &Controller{identity}
}

func (uc Controller) params(c *web.Context) (entity.Modality, string, error) {
	m := c.GetParam(reflect.String, "modality").(string)
	key := c.GetParam(reflect.String, "key").(string)
	if err := c.ValidParam(); err != nil {
		return "", "", err
	}

	modality, err := entity.ParseModality(m)
	if err != nil {
		return "", "", v1.RequestError(err)
	}
	return modality, key, nil
}

// Save registers an identity or replaces the one with the same modality
// and key.
func (uc Controller) Save(c *web.Context) error {
	var request SaveRequest
	if err := c.BindFunc(&request, "Modality", "Key"); err != nil {
		return c.RespondError(err)
	}

	modality, err := entity.ParseModality(request.Modality)
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}
	key := strings.TrimSpace(request.Key)
	if modality == entity.ModalityPlate {
		key = strings.ToUpper(strings.Join(strings.Fields(key), ""))
	}

	response, err := uc.identity.SaveIdentity(c.Ctx, entity.Identity{
		Modality:   modality,
		LookupKey:  key,
		UID:        strings.TrimSpace(request.UID),
		Name:       strings.TrimSpace(request.Name),
		Department: strings.TrimSpace(request.Department),
		Plate:      strings.TrimSpace(request.Plate),
	})
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}

	return c.Respond(map[string]interface{}{
		"created_data": response,
		"status":       true,
	}, http.StatusOK)
}

func (uc Controller) GetList(c *web.Context) error {
	var modality entity.Modality
	if m, ok := c.GetQueryFunc(reflect.String, "modality").(*string); ok {
		parsed, err := entity.ParseModality(*m)
		if err != nil {
			return c.RespondError(v1.RequestError(err))
		}
		modality = parsed
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, err := uc.identity.ListIdentities(c.Ctx, modality)
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}
	if list == nil {
		list = []entity.Identity{}
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   len(list),
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetDetail(c *web.Context) error {
	modality, key, err := uc.params(c)
	if err != nil {
		return c.RespondError(err)
	}

	response, err := uc.identity.GetIdentity(c.Ctx, modality, key)
	if err != nil {
		return c.RespondError(v1.RequestError(errors.Wrapf(err, "%s/%s", modality.Namespace(), key)))
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Delete(c *web.Context) error {
	modality, key, err := uc.params(c)
	if err != nil {
		return c.RespondError(err)
	}

	if err := uc.identity.DeleteIdentity(c.Ctx, modality, key); err != nil {
		return c.RespondError(v1.RequestError(errors.Wrapf(err, "%s/%s", modality.Namespace(), key)))
	}

	return c.Respond(map[string]interface{}{
		"status": true,
	}, http.StatusOK)
}

// GetQrCode renders the lookup key of a registered identity as a PNG.
func (uc Controller) GetQrCode(c *web.Context) error {
	modality, key, err := uc.params(c)
	if err != nil {
		return c.RespondError(err)
	}

	if _, err := uc.identity.GetIdentity(c.Ctx, modality, key); err != nil {
		return c.RespondError(v1.RequestError(errors.Wrapf(err, "%s/%s", modality.Namespace(), key)))
	}

	png, err := report.QRCode(key, qrSize)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Disposition", "inline; filename="+key+".png")
	c.Header("Content-Length", strconv.Itoa(len(png)))
	c.Data(http.StatusOK, "image/png", png)
	return nil
}

// GetBadges downloads a printable sheet of every RFID identity.
func (uc Controller) GetBadges(c *web.Context) error {
	list, err := uc.identity.ListIdentities(c.Ctx, entity.ModalityRFID)
	if err != nil {
		return c.RespondError(v1.RequestError(err))
	}

	buf, err := report.BadgeSheetPDF(list)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Disposition", "attachment; filename=\"rfid_badges.pdf\"")
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	return nil
}
