package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library/internal/models"
	"library/internal/services"
)

func (api *API) listBooks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))

	result, err := api.books.List(models.BookFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (api *API) listMyBooks(c *gin.Context) {
	books, err := api.books.ListMine(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

func (api *API) getBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	book, err := api.books.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// coverFromForm extracts the optional cover-image part of a multipart
// request. The returned close function must be called after the service
// has consumed the body.
func coverFromForm(c *gin.Context) (*services.CoverUpload, func(), error) {
	header, err := c.FormFile("coverImage")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.CoverUpload{
		Body:        file,
		Size:        header.Size,
		ContentType: contentTypeOf(header),
		Filename:    header.Filename,
	}, func() { file.Close() }, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

// limitBody caps the multipart request body so an oversized upload is cut
// off at the transport instead of buffered. The slack covers the other
// form fields.
func (api *API) limitBody(c *gin.Context) {
	if api.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.maxUpload+64*1024)
	}
}

func (api *API) createBook(c *gin.Context) {
	api.limitBody(c)

	cover, closeCover, err := coverFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload"})
		return
	}
	defer closeCover()

	book, err := api.books.Create(c.Request.Context(), services.CreateBookInput{
		Title:         c.PostForm("title"),
		Author:        c.PostForm("author"),
		Category:      c.PostForm("category"),
		Description:   c.PostForm("description"),
		ISBN:          c.PostForm("isbn"),
		PublishedYear: c.PostForm("publishedYear"),
		Cover:         cover,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": book})
}

func (api *API) updateBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	api.limitBody(c)

	cover, closeCover, err := coverFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload"})
		return
	}
	defer closeCover()

	book, err := api.books.Update(c.Request.Context(), id, services.UpdateBookInput{
		Title:         c.PostForm("title"),
		Author:        c.PostForm("author"),
		Category:      c.PostForm("category"),
		Description:   c.PostForm("description"),
		ISBN:          c.PostForm("isbn"),
		PublishedYear: c.PostForm("publishedYear"),
		Cover:         cover,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

func (api *API) deleteBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	if err := api.books.Delete(id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
