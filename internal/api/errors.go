package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"comparables/server/config"
	"comparables/server/internal/cma"
	"comparables/server/internal/database"
	"comparables/server/internal/queue"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	errSubjectNotFound    = errors.New("subject property not found")
	errMissingCriteria    = errors.New("filters must include subjectPropertyId, subjectSubdivision, beds, baths or sqft")
	errMissingPrice       = errors.New("cashflowInputs.purchasePrice is required unless usePointEstimate is set")
	errBatchTooLarge      = errors.New("too many listings in one batch")
	errEmptyListingsBatch = errors.New("listings must not be empty")
)

// RegisterValidation makes validator report fields by their JSON names.
func RegisterValidation() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// validationMessage turns binding errors into one field-level message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Sprintf("invalid request body: %v", err)
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "gte", "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "lte", "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed the %s check", field, fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}

// reportError maps a failure while building a CMA report to a status.
func reportError(err error) (int, string) {
	switch {
	case errors.Is(err, errSubjectNotFound):
		return http.StatusNotFound, "Subject property not found"
	case errors.Is(err, cma.ErrNoCandidates):
		return http.StatusNotFound, "No comparable listings found for these filters"
	case errors.Is(err, cma.ErrInvalidCashflowInputs),
		errors.Is(err, errMissingCriteria),
		errors.Is(err, errMissingPrice):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to generate CMA report"
	}
}

func storeError(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, database.ErrListingNotFound):
		return http.StatusNotFound, "Listing not found"
	case errors.Is(err, config.ErrMarketNotFound):
		return http.StatusNotFound, "Market not found"
	default:
		return http.StatusInternalServerError, fallback
	}
}

func importError(err error) (int, string) {
	switch {
	case errors.Is(err, queue.ErrQueueFull):
		return http.StatusServiceUnavailable, "Import queue is full, retry later"
	case errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable, "Import queue is shut down"
	case errors.Is(err, errBatchTooLarge), errors.Is(err, errEmptyListingsBatch):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to queue listings"
	}
}
