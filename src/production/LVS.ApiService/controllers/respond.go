package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	lvserrors "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Errors"
)

// respondError maps the service error taxonomy onto HTTP responses.
// Validation and not-found become structured 4xx bodies; a storage
// outage is the only 5xx the gateway surfaces deliberately.
func respondError(ctx *gin.Context, err error) {
	var ve *lvserrors.ValidationError
	if errors.As(err, &ve) {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": ve.Fields})
		return
	}

	var nf *lvserrors.NotFoundError
	if errors.As(err, &nf) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}

	if lvserrors.IsDownstreamUnavailable(err) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
