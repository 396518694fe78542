package api

import (
	"errors"
	"net/http"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/engine"
	"alcyxob/program-engine/internal/store"

	"github.com/gin-gonic/gin"
)

// EngineHandler exposes the three engine operations over HTTP. The URL
// carries the full ancestor chain the path-addressed store needs; the
// owner segment always comes from the authenticated caller, never from
// the request.
type EngineHandler struct {
	eng engine.Engine
}

func NewEngineHandler(eng engine.Engine) *EngineHandler {
	return &EngineHandler{eng: eng}
}

// pathFromRoute assembles the store path from route params plus the
// caller identity.
func pathFromRoute(c *gin.Context, callerID string) store.Path {
	return store.Path{
		OwnerID:    callerID,
		ProgramID:  c.Param("programId"),
		WeekID:     c.Param("weekId"),
		WorkoutID:  c.Param("workoutId"),
		ExerciseID: c.Param("exerciseId"),
	}
}

// Duplicate handles POST .../duplicate at program, week, workout or
// exercise depth.
func (h *EngineHandler) Duplicate(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	result, err := h.eng.Duplicate(c.Request.Context(), callerID, pathFromRoute(c, callerID))
	if err != nil {
		respondEngineError(c, result, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CascadeCount handles GET .../cascade at week, workout or exercise
// depth. Read-only; powers the delete confirmation dialog.
func (h *EngineHandler) CascadeCount(level domain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID, err := getUserIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
			return
		}

		counts, err := h.eng.CascadeCount(c.Request.Context(), callerID, pathFromRoute(c, callerID), level)
		if err != nil {
			respondEngineError(c, nil, err)
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

// CascadeDelete handles DELETE at week, workout or exercise depth.
func (h *EngineHandler) CascadeDelete(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	result, err := h.eng.CascadeDelete(c.Request.Context(), callerID, pathFromRoute(c, callerID))
	if err != nil {
		respondEngineError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondEngineError maps engine errors to HTTP responses. Partial
// failures are the important case: the response says what committed so
// the client can render "partially completed, check and retry" instead
// of a generic failure.
func respondEngineError(c *gin.Context, partial interface{}, err error) {
	var pf *engine.PartialFailureError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrPermissionDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrBadContext):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &pf):
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":            "operation partially completed; some items may be duplicated or deleted",
			"committedBatches": len(pf.Committed),
			"failedBatches":    len(pf.Failed),
			"abandonedOps":     pf.AbandonedOps,
			"result":           partial,
		})
	default:
		var ve *engine.ValidationError
		if errors.As(err, &ve) {
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}
