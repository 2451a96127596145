package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/formstate"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/netconfig"
	"ocp-installer-helper/internal/service"
	"ocp-installer-helper/pkg/utils"
)

func abortWithError(c *gin.Context, status int, apiErr *utils.APIError) {
	c.JSON(status, model.ErrorResponse{
		Success: false,
		Code:    apiErr.Code,
		Error:   apiErr.Message,
		Details: apiErr.Details,
	})
}

func badRequest(c *gin.Context, field string, err error) {
	abortWithError(c, http.StatusBadRequest, utils.NewValidationError(field, err))
}

// classify maps domain errors onto an HTTP status and API error.
func classify(err error) (int, *utils.APIError) {
	var incomplete *netconfig.IncompleteNodeError
	var fieldErr *netconfig.FieldError

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, utils.NewNotFoundError("form session")
	case errors.Is(err, formstate.ErrNodeNotFound):
		return http.StatusNotFound, utils.NewNotFoundError("node")
	case errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound, utils.NewNotFoundError("task")
	case errors.Is(err, clusterdata.ErrNotFound):
		return http.StatusNotFound, utils.NewNotFoundError("cluster info")
	case errors.Is(err, service.ErrKeyNotFound):
		return http.StatusNotFound, utils.NewNotFoundError("public key")
	case errors.Is(err, service.ErrKeyExists):
		return http.StatusConflict, utils.NewConflictError("key")
	case errors.Is(err, formstate.ErrRoleCapacity), errors.Is(err, formstate.ErrHostnameTaken):
		return http.StatusConflict, &utils.APIError{Code: utils.CodeConflict, Message: err.Error()}
	case errors.As(err, &incomplete):
		return http.StatusBadRequest, utils.NewValidationError("node", err)
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, utils.NewValidationError(fieldErr.Field, err)
	case errors.Is(err, formstate.ErrInvalidRole),
		errors.Is(err, formstate.ErrInvalidInterfaceType),
		errors.Is(err, formstate.ErrRoleUnset),
		errors.Is(err, formstate.ErrHostnameNotInPool):
		return http.StatusBadRequest, &utils.APIError{Code: utils.CodeValidation, Message: err.Error()}
	}
	return http.StatusInternalServerError, utils.NewSystemError(err)
}

func respondError(c *gin.Context, err error) {
	status, apiErr := classify(err)
	abortWithError(c, status, apiErr)
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		badRequest(c, "index", errors.New("node index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}

// failedIndex returns the node a build error refers to, if any.
func failedIndex(err error) *int {
	var incomplete *netconfig.IncompleteNodeError
	if errors.As(err, &incomplete) {
		return &incomplete.Index
	}
	var fieldErr *netconfig.FieldError
	if errors.As(err, &fieldErr) {
		return &fieldErr.Index
	}
	return nil
}
