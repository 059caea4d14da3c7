package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-top-movies/internal/domain"
	"github.com/tbourn/go-top-movies/internal/http/middleware"
	"github.com/tbourn/go-top-movies/internal/services"
	"github.com/tbourn/go-top-movies/internal/utils"
)

// Template names, as registered from internal/http/web.
const (
	tplIndex  = "index.html"
	tplAdd    = "add.html"
	tplSelect = "select.html"
	tplEdit   = "edit.html"
)

// AddForm is the title search form.
type AddForm struct {
	Title string `form:"title" binding:"required,notblank,max=250"`
}

// RateForm is the edit form. Rating stays a string so that unparsable input
// can be redisplayed as typed.
type RateForm struct {
	Rating string `form:"new_rating" binding:"max=32"`
	Review string `form:"new_review" binding:"max=1000"`
}

// page builds the common template data: CSRF token and pending flash.
func page(c *gin.Context, kv gin.H) gin.H {
	data := gin.H{
		"CSRFField": middleware.CSRFField,
		"CSRFToken": middleware.CSRFToken(c),
		"Flash":     middleware.TakeFlash(c),
	}
	for k, v := range kv {
		data[k] = v
	}
	return data
}

func redirectWithFlash(c *gin.Context, to, msg string) {
	middleware.SetFlash(c, msg)
	c.Redirect(http.StatusFound, to)
}

// Home renders the ranked list.
//
// GET /
func (h *Handlers) Home(c *gin.Context) {
	movies, err := h.svc.Home(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("home: list movies")
		c.HTML(http.StatusInternalServerError, tplIndex, page(c, gin.H{
			"Error": "The list could not be loaded. Please try again.",
		}))
		return
	}
	c.HTML(http.StatusOK, tplIndex, page(c, gin.H{"Movies": movies}))
}

// Delete removes a movie and returns to the list. Unknown ids are ignored.
//
// GET|POST /delete/:id
func (h *Handlers) Delete(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Uint("movie_id", id).Msg("delete movie")
		redirectWithFlash(c, "/", "The movie could not be deleted.")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Add shows the search form and, on submit, the catalog matches.
//
// GET|POST /add
func (h *Handlers) Add(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.HTML(http.StatusOK, tplAdd, page(c, nil))
		return
	}

	var form AddForm
	if err := c.ShouldBind(&form); err != nil || strings.TrimSpace(form.Title) == "" {
		c.HTML(http.StatusOK, tplAdd, page(c, gin.H{
			"Title": form.Title,
			"Error": "Enter a movie title.",
		}))
		return
	}

	results, err := h.svc.Search(c.Request.Context(), form.Title)
	switch {
	case errors.Is(err, services.ErrValidation):
		c.HTML(http.StatusOK, tplAdd, page(c, gin.H{"Title": form.Title, "Error": "Enter a movie title."}))
		return
	case err != nil:
		middleware.LoggerFrom(c).Warn().Err(err).Msg("catalog search failed")
		c.HTML(http.StatusBadGateway, tplAdd, page(c, gin.H{
			"Title": form.Title,
			"Error": "The movie catalog is unavailable right now. Please try again later.",
		}))
		return
	}

	c.HTML(http.StatusOK, tplSelect, page(c, gin.H{
		"Query":   strings.TrimSpace(form.Title),
		"Results": results,
	}))
}

// Select stores the chosen catalog movie and sends the user to rate it.
//
// GET|POST /select?id=<catalog id>
func (h *Handlers) Select(c *gin.Context) {
	raw := c.Query("id")
	if raw == "" {
		raw = c.PostForm("id")
	}
	catalogID, valid := utils.ParseCatalogID(raw)
	if !valid {
		redirectWithFlash(c, "/add", "Pick a movie from the search results.")
		return
	}

	m, err := h.svc.Select(c.Request.Context(), catalogID)
	switch {
	case errors.Is(err, services.ErrCatalogRecordMissing):
		redirectWithFlash(c, "/add", "That movie is missing details in the catalog. Try another one.")
		return
	case err != nil:
		middleware.LoggerFrom(c).Warn().Err(err).Int64("catalog_id", catalogID).Msg("select movie")
		redirectWithFlash(c, "/add", "The movie catalog is unavailable right now. Please try again later.")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/update/%d", m.ID))
}

// Update shows the rating form and applies a submitted rating.
//
// GET|POST /update/:id
func (h *Handlers) Update(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		c.Redirect(http.StatusFound, "/")
		return
	}
	ctx := c.Request.Context()

	m, err := h.svc.Get(ctx, id)
	if err != nil {
		h.updateMissing(c, id, err)
		return
	}

	if c.Request.Method != http.MethodPost {
		c.HTML(http.StatusOK, tplEdit, page(c, editData(m, RateForm{}, "")))
		return
	}

	var form RateForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusOK, tplEdit, page(c, editData(m, form, "Review is too long.")))
		return
	}
	if strings.TrimSpace(form.Rating) == "" && strings.TrimSpace(form.Review) == "" {
		c.HTML(http.StatusOK, tplEdit, page(c, editData(m, form, "")))
		return
	}
	rating, valid := utils.ParseRating(form.Rating)
	if !valid {
		c.HTML(http.StatusOK, tplEdit, page(c, editData(m, form, "Rating must be a number, e.g. 7.5.")))
		return
	}

	if _, err := h.svc.Rate(ctx, id, rating, form.Review); err != nil {
		switch {
		case errors.Is(err, services.ErrRatingTooHigh):
			c.HTML(http.StatusUnprocessableEntity, tplEdit, page(c, editData(m, form, "Rating must be at most 10.")))
		case errors.Is(err, services.ErrValidation):
			c.HTML(http.StatusOK, tplEdit, page(c, editData(m, form, "Rating must be a number, e.g. 7.5.")))
		default:
			h.updateMissing(c, id, err)
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handlers) updateMissing(c *gin.Context, id uint, err error) {
	if errors.Is(err, services.ErrMovieNotFound) {
		redirectWithFlash(c, "/", "That movie is no longer on your list.")
		return
	}
	middleware.LoggerFrom(c).Error().Err(err).Uint("movie_id", id).Msg("update movie")
	redirectWithFlash(c, "/", "The movie could not be updated.")
}

func editData(m *domain.Movie, form RateForm, msg string) gin.H {
	rating := form.Rating
	if rating == "" && m.Rated() {
		rating = fmt.Sprintf("%g", m.RatingValue())
	}
	review := form.Review
	if review == "" {
		review = m.ReviewText()
	}
	return gin.H{
		"Movie":  m,
		"Rating": rating,
		"Review": review,
		"Error":  msg,
	}
}
