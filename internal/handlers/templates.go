package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/response"
)

// TemplateHandler exposes email template management.
type TemplateHandler struct {
	templates *services.TemplateService
}

func NewTemplateHandler(templates *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type createTemplateRequest struct {
	SurveyID  *string `json:"survey_id"`
	Subject   string  `json:"subject" validate:"required,min=1,max=500"`
	Body      string  `json:"body" validate:"required,min=1"`
	IsDefault bool    `json:"is_default"`
}

type updateTemplateRequest struct {
	SurveyID  *string `json:"survey_id"`
	Subject   *string `json:"subject" validate:"omitempty,min=1,max=500"`
	Body      *string `json:"body" validate:"omitempty,min=1"`
	IsDefault *bool   `json:"is_default"`
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, templates, &response.Meta{Total: len(templates)})
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req createTemplateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	template, err := h.templates.Create(requestContext(c), services.CreateTemplateInput{
		SurveyID:  req.SurveyID,
		Subject:   req.Subject,
		Body:      req.Body,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, template)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templates.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, template)
}

func (h *TemplateHandler) Update(c *gin.Context) {
	var req updateTemplateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	template, err := h.templates.Update(requestContext(c), c.Param("id"), services.UpdateTemplateInput{
		SurveyID:  req.SurveyID,
		Subject:   req.Subject,
		Body:      req.Body,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, template)
}

// SetDefault promotes a template to the single default.
func (h *TemplateHandler) SetDefault(c *gin.Context) {
	template, err := h.templates.SetDefault(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, template)
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
