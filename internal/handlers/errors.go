// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zoorkhan/storefront/internal/i18n"
	"github.com/zoorkhan/storefront/internal/middleware"
	"github.com/zoorkhan/storefront/internal/services"
	"github.com/zoorkhan/storefront/internal/utils"
)

type errorMapping struct {
	err    error
	status int
	code   string
	key    string
}

// serviceErrors maps domain errors to responses. Order matters: the first match wins.
var serviceErrors = []errorMapping{
	{services.ErrEmptyCart, http.StatusBadRequest, "EMPTY_CART", i18n.KeyOrderEmptyCart},
	{services.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY", i18n.KeyOrderInvalidQuantity},
	{services.ErrProductNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyProductNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyOrderNotFound},
	{services.ErrInvalidOrderStatus, http.StatusBadRequest, "INVALID_STATUS", i18n.KeyOrderInvalidStatus},
	{services.ErrEmailTaken, http.StatusBadRequest, "EMAIL_TAKEN", i18n.KeyAuthEmailTaken},
	{services.ErrUsernameTaken, http.StatusBadRequest, "USERNAME_TAKEN", i18n.KeyAuthUsernameTaken},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", i18n.KeyAuthInvalidCredentials},
	{services.ErrAccountInactive, http.StatusUnauthorized, "ACCOUNT_INACTIVE", i18n.KeyAuthAccountInactive},
	{services.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyUserNotFound},
	{services.ErrWrongPassword, http.StatusBadRequest, "WRONG_PASSWORD", i18n.KeyAuthWrongPassword},
	{services.ErrSelfDeactivation, http.StatusBadRequest, "SELF_DEACTIVATION", i18n.KeyUserSelfDeactivate},
	{services.ErrCategoryNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyCategoryNotFound},
	{services.ErrCategoryInUse, http.StatusConflict, "CATEGORY_IN_USE", i18n.KeyCategoryInUse},
	{services.ErrInvalidPrice, http.StatusBadRequest, "INVALID_PRICE", i18n.KeyProductInvalidPrice},
	{services.ErrPostNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyBlogNotFound},
	{services.ErrSlugTaken, http.StatusConflict, "SLUG_TAKEN", i18n.KeyBlogSlugTaken},
	{services.ErrSubscriptionNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyNewsletterNotFound},
	{services.ErrFileTooLarge, http.StatusBadRequest, "FILE_TOO_LARGE", i18n.KeyFileTooLarge},
	{services.ErrFileTypeInvalid, http.StatusBadRequest, "INVALID_FILE_TYPE", i18n.KeyFileInvalidType},
}

// respondError writes the response for err. Unknown errors are logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var lineErr *services.LineItemError
	if errors.As(err, &lineErr) {
		respondLineItemError(c, lang, lineErr)
		return
	}

	var transitionErr *services.TransitionError
	if errors.As(err, &transitionErr) {
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION",
			i18n.T(lang, i18n.KeyOrderInvalidTransition, transitionErr.From, transitionErr.To), nil)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			utils.ErrorResponse(c, m.status, m.code, i18n.T(lang, m.key), nil)
			return
		}
	}

	requestID, _ := c.Get(middleware.ContextKeyRequestID)
	logrus.WithError(err).WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}).Error("Request failed")
	utils.InternalErrorResponse(c)
}

// Line-item failures are always client errors and name the offending cart line.
func respondLineItemError(c *gin.Context, lang string, lineErr *services.LineItemError) {
	details := gin.H{
		"index":        lineErr.Index,
		"product_id":   lineErr.ProductID,
		"product_name": lineErr.ProductName,
	}

	switch {
	case errors.Is(lineErr, services.ErrProductNotFound):
		utils.ErrorResponse(c, http.StatusBadRequest, "PRODUCT_NOT_FOUND",
			i18n.T(lang, i18n.KeyOrderProductNotFound, lineErr.ProductID), details)
	case errors.Is(lineErr, services.ErrInsufficientStock):
		utils.ErrorResponse(c, http.StatusBadRequest, "INSUFFICIENT_STOCK",
			i18n.T(lang, i18n.KeyOrderInsufficientStock, lineErr.ProductName), details)
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUANTITY",
			i18n.T(lang, i18n.KeyOrderInvalidQuantity), details)
	}
}

// bindJSON decodes and validates the request body, writing the 400 response itself on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func idParam(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalidID), nil)
	}
	return id, ok
}

// currentUserID is only called behind middleware.Auth, which always sets the id.
func currentUserID(c *gin.Context) uint {
	userID, _ := utils.GetUserIDFromContext(c)
	return userID
}
