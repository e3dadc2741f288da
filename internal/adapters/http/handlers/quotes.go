package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
)

// QuoteHandler exposes the quote use cases over HTTP.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	if service == nil {
		panic("handlers: QuoteHandler requires a quote service")
	}

	return &QuoteHandler{service: service}
}

// ListQuotes handles GET /api/v1/quotes
// Returns the stored quotes in insertion order, one page at a time.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	offset, err := req.Offset()
	if err != nil {
		dto.AbortWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	quotes := dto.ToQuoteResponses(h.service.Quotes())
	c.JSON(http.StatusOK, dto.Paginate(quotes, offset, req.GetLimit()))
}

// AddQuote handles POST /api/v1/quotes
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.AddQuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	quote, err := h.service.AddQuote(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToQuoteResponse(quote))
}

// RandomQuote handles GET /api/v1/quotes/random
// Shows and returns a random quote under the active filter.
//
// @Summary Show a random quote
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	quote, err := h.service.RandomQuote(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToQuoteResponse(quote))
}

// Export handles GET /api/v1/quotes/export
// Serves every quote as a downloadable, indented JSON array.
func (h *QuoteHandler) Export(c *gin.Context) {
	export, err := h.service.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Header("X-Quote-Count", strconv.Itoa(export.Count))
	c.Data(http.StatusOK, "application/json", export.Data)
}

// Import handles POST /api/v1/quotes/import
// The body is a JSON array of {text, category}; invalid items are skipped.
//
// @Summary Import quotes
// @Tags quotes
// @Accept json
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) Import(c *gin.Context) {
	report, err := h.service.Import(c.Request.Context(), c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrorCodeBadRequest, "import payload is too large",
			).WithTraceID(dto.GetTraceID(c)))

			return
		}

		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Imported: report.Imported, Skipped: report.Skipped})
}

// Categories handles GET /api/v1/categories
func (h *QuoteHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: h.service.Categories(),
		Selected:   h.service.Filter(),
	})
}

// GetFilter handles GET /api/v1/filter
func (h *QuoteHandler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FilterRequest{Category: h.service.Filter()})
}

// SetFilter handles PUT /api/v1/filter
// Any category is accepted; one with no quotes renders an empty view.
//
// @Summary Select the category filter
// @Tags filter
// @Accept json
// @Produce json
// @Param filter body dto.FilterRequest true "Category, or \"all\""
// @Success 200 {object} app.ViewModel
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/filter [put]
func (h *QuoteHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.service.SelectCategory(c.Request.Context(), req.Category))
}

// View handles GET /api/v1/view
// Returns everything a client needs to draw the current screen.
func (h *QuoteHandler) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.View(c.Request.Context()))
}

// Sync handles POST /api/v1/sync
// Runs a reconciliation now. Answers 409 while another run is in flight.
//
// @Summary Merge the remote collection
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *QuoteHandler) Sync(c *gin.Context) {
	report, err := h.service.Sync(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSyncResponse(report))
}

// Push handles POST /api/v1/sync/push
// Sends every local quote to the remote; nothing local changes.
func (h *QuoteHandler) Push(c *gin.Context) {
	if err := h.service.Push(c.Request.Context()); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/export", h.Export)
	quotes.POST("/import", h.Import)

	rg.GET("/categories", h.Categories)
	rg.GET("/filter", h.GetFilter)
	rg.PUT("/filter", h.SetFilter)
	rg.GET("/view", h.View)
	rg.POST("/sync", h.Sync)
	rg.POST("/sync/push", h.Push)
}
