package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"item-server/internal/apperr"
	"item-server/internal/items"
	"item-server/internal/models"
)

const (
	maxImageBytes = 10 << 20
	imageField    = "image"
)

type ItemResponse struct {
	Success bool         `json:"success" example:"true"`
	Item    *models.Item `json:"item"`
}

// @Summary      List items
// @Description  Lists the caller's items, newest first. page defaults to 1, limit to 20 and is capped at 100.
// @Tags         items
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number, starting at 1"
// @Param        limit  query     int  false  "Page size, at most 100"
// @Success      200    {object}  items.Page
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /items [get]
func (s *Server) ListItemsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.items.List(r.Context(), currentUserID(r), page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary      Create an item
// @Description  Creates an item owned by the caller. Every invalid field is reported.
// @Tags         items
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        item  body      items.CreateInput  true  "New item"
// @Success      201   {object}  ItemResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /items [post]
func (s *Server) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	var req items.CreateInput
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, withConstraints(err, req.Validate))
		return
	}

	item, err := s.items.Create(r.Context(), currentUserID(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, ItemResponse{Success: true, Item: item})
}

// @Summary      Get an item
// @Description  Returns one of the caller's items. Items of other users are reported as not found.
// @Tags         items
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Item ID" format(uuid)
// @Success      200     {object}  ItemResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /items/{itemId} [get]
func (s *Server) GetItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.items.Get(r.Context(), currentUserID(r), itemID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ItemResponse{Success: true, Item: item})
}

// @Summary      Update an item
// @Description  Applies the supplied fields. Omitted fields are kept; an empty optional string clears the field.
// @Tags         items
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        itemId  path      string             true  "Item ID" format(uuid)
// @Param        item    body      items.UpdateInput  true  "Fields to change"
// @Success      200     {object}  ItemResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /items/{itemId} [put]
// @Router       /items/{itemId} [patch]
func (s *Server) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req items.UpdateInput
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, withConstraints(err, req.Validate))
		return
	}

	item, err := s.items.Update(r.Context(), currentUserID(r), itemID, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ItemResponse{Success: true, Item: item})
}

// @Summary      Delete an item
// @Tags         items
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Item ID" format(uuid)
// @Success      200     {object}  SuccessResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /items/{itemId} [delete]
func (s *Server) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.items.Delete(r.Context(), currentUserID(r), itemID); err != nil {
		s.respondError(w, r, err)
		return
	}

	respondSuccess(w)
}

// @Summary      Upload an item image
// @Description  Stores an image (at most 10 MiB) for the item and points image_url at it.
// @Tags         items
// @Accept       multipart/form-data
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Item ID" format(uuid)
// @Param        image   formData  file    true  "Image file"
// @Success      200     {object}  ItemResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /items/{itemId}/image [post]
func (s *Server) UploadItemImageHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		s.respondError(w, r, apperr.Validation(imageField, "must be a multipart upload of at most 10 MiB"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(imageField)
	if err != nil {
		s.respondError(w, r, apperr.Validation(imageField, "is required"))
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		s.respondError(w, r, apperr.Validation(imageField, "must be at most 10 MiB"))
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		s.respondError(w, r, apperr.Validation(imageField, "could not be read"))
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		s.respondError(w, r, apperr.Validation(imageField, "must be an image"))
		return
	}

	item, err := s.items.AttachImage(r.Context(), currentUserID(r), itemID, contentType, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ItemResponse{Success: true, Item: item})
}

// @Summary      Download an item image
// @Tags         items
// @Produce      image/png,image/jpeg,image/gif,image/webp
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Item ID" format(uuid)
// @Success      200     {file}    file
// @Failure      401     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /items/{itemId}/image [get]
func (s *Server) GetItemImageHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	obj, err := s.items.OpenImage(r.Context(), currentUserID(r), itemID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		s.log.Warn().Err(err).Str("item_id", itemID.String()).Msg("image download interrupted")
	}
}
