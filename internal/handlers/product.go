// internal/handlers/product.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zoorkhan/storefront/internal/i18n"
	"github.com/zoorkhan/storefront/internal/services"
	"github.com/zoorkhan/storefront/internal/utils"
)

const (
	defaultProductsPerPage = 12
	productImageFolder     = "products"
)

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

func productSearchParams(c *gin.Context) services.ProductSearchParams {
	params := services.ProductSearchParams{
		PaginationParams: utils.GetPaginationParams(c, defaultProductsPerPage),
	}

	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		if categoryID, err := strconv.ParseUint(categoryIDStr, 10, 64); err == nil {
			id := uint(categoryID)
			params.CategoryID = &id
		}
	}

	return params
}

// GET /api/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := productSearchParams(c)
	active := true
	params.IsActive = &active

	products, total, err := h.productService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "products", utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id, false)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// GET /api/admin/products
func (h *ProductHandler) AdminGetProducts(c *gin.Context) {
	params := productSearchParams(c)
	if activeStr := c.Query("is_active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			params.IsActive = &active
		}
	}

	products, total, err := h.productService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "products", utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// POST /api/admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyProductCreated),
		"product": product,
	})
}

// PUT /api/admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /api/admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyProductDeleted),
	})
}

// POST /api/admin/products/:id/image
func (h *ProductHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	if _, err := h.productService.Get(c.Request.Context(), id, true); err != nil {
		respondError(c, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileMissing), nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadImage(c.Request.Context(), file, header.Filename, productImageFolder)
	if err != nil {
		respondError(c, err)
		return
	}

	product, err := h.productService.SetImage(c.Request.Context(), id, result.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"upload":  result,
		"product": product,
	})
}

// A category referenced from a product form is a bad input, not a missing resource.
func respondCatalogError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrCategoryNotFound) {
		utils.ErrorResponse(c, http.StatusBadRequest, "CATEGORY_NOT_FOUND",
			i18n.T(utils.GetLangFromContext(c), i18n.KeyCategoryNotFound), nil)
		return
	}
	respondError(c, err)
}
