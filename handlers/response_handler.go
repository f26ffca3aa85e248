package handlers

import (
	"net/http"
	"strconv"

	"scoreform/services"

	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	responseService *services.ResponseService
	hub             *services.Hub
}

func NewResponseHandler(responseService *services.ResponseService, hub *services.Hub) *ResponseHandler {
	return &ResponseHandler{
		responseService: responseService,
		hub:             hub,
	}
}

// GetPublicForm serves the respondent view of a form by its share slug.
func (h *ResponseHandler) GetPublicForm(c *gin.Context) {
	form, err := h.responseService.GetPublicForm(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		return
	}

	c.JSON(http.StatusOK, form)
}

func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	var req services.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.responseService.SubmitResponse(
		c.Param("slug"),
		&req,
		c.ClientIP(),
		c.Request.UserAgent(),
		h.hub,
	)
	if err != nil {
		switch err {
		case services.ErrFormNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		case services.ErrFormClosed:
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case services.ErrDuplicateResponse, services.ErrEmailRequired:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit the response"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          response.ID,
		"total_score": response.TotalScore,
		"result_text": response.ResultText,
	})
}

func (h *ResponseHandler) GetFormResponses(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	formID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form ID"})
		return
	}

	responses, err := h.responseService.GetFormResponses(uint(formID), userID.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		return
	}

	c.JSON(http.StatusOK, responses)
}

func (h *ResponseHandler) GetResponseByID(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	formID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form ID"})
		return
	}

	responseID, err := strconv.ParseUint(c.Param("responseID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid response ID"})
		return
	}

	response, err := h.responseService.GetResponseByID(uint(formID), uint(responseID), userID.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}
