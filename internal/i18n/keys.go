// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthAccountInactive    = "auth.account_inactive"
	KeyAuthEmailTaken         = "auth.email_taken"
	KeyAuthUsernameTaken      = "auth.username_taken"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthWrongPassword      = "auth.wrong_password"

	// User Management
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserStatusUpdated  = "user.status_updated"
	KeyUserSelfDeactivate = "user.self_deactivate"

	// Catalog
	KeyCategoryCreated     = "category.created"
	KeyCategoryUpdated     = "category.updated"
	KeyCategoryDeleted     = "category.deleted"
	KeyCategoryNotFound    = "category.not_found"
	KeyCategoryInUse       = "category.in_use"
	KeyProductCreated      = "product.created"
	KeyProductUpdated      = "product.updated"
	KeyProductDeleted      = "product.deleted"
	KeyProductNotFound     = "product.not_found"
	KeyProductInvalidPrice = "product.invalid_price"

	// Orders
	KeyOrderCreated           = "order.created"
	KeyOrderStatusUpdated     = "order.status_updated"
	KeyOrderDeleted           = "order.deleted"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderEmptyCart         = "order.empty_cart"
	KeyOrderInvalidQuantity   = "order.invalid_quantity"
	KeyOrderProductNotFound   = "order.product_not_found"
	KeyOrderInsufficientStock = "order.insufficient_stock"
	KeyOrderInvalidTransition = "order.invalid_transition"
	KeyOrderInvalidStatus     = "order.invalid_status"

	// Blog
	KeyBlogCreated   = "blog.created"
	KeyBlogUpdated   = "blog.updated"
	KeyBlogDeleted   = "blog.deleted"
	KeyBlogNotFound  = "blog.not_found"
	KeyBlogSlugTaken = "blog.slug_taken"

	// Newsletter
	KeyNewsletterSubscribed        = "newsletter.subscribed"
	KeyNewsletterAlreadySubscribed = "newsletter.already_subscribed"
	KeyNewsletterReactivated       = "newsletter.reactivated"
	KeyNewsletterUnsubscribed      = "newsletter.unsubscribed"
	KeyNewsletterNotFound          = "newsletter.not_found"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationRequired  = "validation.required"
	KeyValidationInvalid   = "validation.invalid"
	KeyValidationInvalidID = "validation.invalid_id"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
	KeyFileMissing       = "file.missing"
)
