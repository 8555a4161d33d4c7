package controller

import (
	"rravin-be/internal/apperror"
	"rravin-be/internal/pkg/serverutils"
	"rravin-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
}

type uploadController struct {
	uploadService service.IUploadService
}

func NewUploadController(uploadService service.IUploadService) IUploadController {
	return &uploadController{
		uploadService: uploadService,
	}
}

func (c *uploadController) RegisterRoutes(r fiber.Router) {
	r.Post("/upload", c.Upload)
}

func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	sessionIdStr := ctx.FormValue("session_id")
	sessionId, err := uuid.Parse(sessionIdStr)
	if err != nil {
		return apperror.NewNotFound("session", sessionIdStr)
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected a multipart form with files")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no files provided")
	}

	res, err := c.uploadService.Register(ctx.Context(), sessionId, files)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Files uploaded", res))
}
