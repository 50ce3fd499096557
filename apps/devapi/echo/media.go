package echoapi

import (
	"io"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/storage/database"
)

const maxUploadSize = 5 << 20

type mediaFile struct {
	contentType string
	content     []byte
}

// upload stores the file of the multipart field and points the record's <field>_url at it.
func (api resourceAPI) upload(ctx echo.Context) error {
	stored, id := contextObject(ctx)
	if _, err := api.authorize(ctx, listview.OpUpdate, stored); err != nil {
		return err
	}

	field := api.def.uploadField()
	fh, err := ctx.FormFile(field)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing "+field+" file")
	}
	if fh.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading upload")
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(content)
	}
	key := path.Join(api.def.path(), ctx.Param("id"), path.Base(fh.Filename))
	api.s.mediaMu.Lock()
	api.s.media[key] = mediaFile{contentType: ct, content: content}
	api.s.mediaMu.Unlock()

	saved, err := api.s.opts.Records.UpdateRecord(ctx.Request().Context(), api.def.path(), id,
		database.Document{field + "_url": "/v1/media/" + key})
	if err != nil {
		return errors.Wrapf(err, "updating %s %d", api.def.path(), id)
	}
	return ctx.JSON(http.StatusOK, saved)
}

func (s *server) serveMedia(ctx echo.Context) error {
	s.mediaMu.RLock()
	file, ok := s.media[ctx.Param("*")]
	s.mediaMu.RUnlock()
	if !ok {
		return errHttpNotFound
	}
	return ctx.Blob(http.StatusOK, file.contentType, file.content)
}
