package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/store"
)

// respondError writes err as {"error", "kind", "hint"} with the status of
// its kind. Internal errors hide their detail.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	msg := err.Error()
	if kind == apperr.Internal {
		logx.Error().Err(err).Str("path", c.FullPath()).Msg("dashboard: internal error")
		msg = "internal server error"
	} else if status >= http.StatusInternalServerError {
		logx.Warn().Err(err).Str("path", c.FullPath()).Msg("dashboard: upstream error")
	}

	body := gin.H{"error": msg, "kind": kind}
	if hint := apperr.HintOf(err); hint != "" {
		body["hint"] = hint
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body into dst, reporting malformed bodies as
// InvalidInput.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Wrap(err, apperr.InvalidInput, "invalid request body"))
		return false
	}
	return true
}

// pageFrom reads 1-based ?page= and ?size= parameters.
func pageFrom(c *gin.Context) (store.Page, error) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return store.Page{}, err
	}
	size, err := intQuery(c, "size", store.DefaultPageSize)
	if err != nil {
		return store.Page{}, err
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > store.MaxPageSize {
		return store.Page{}, apperr.New(apperr.InvalidInput, "size must be between 1 and %d", store.MaxPageSize)
	}
	return store.Page{Offset: (page - 1) * size, Limit: size}, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.InvalidInput, "%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}
