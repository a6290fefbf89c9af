package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Register(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
}

func NewUserController(service service.IUserService) IUserController {
	return &userController{service: service}
}

func (c *userController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/users")
	h.Post("/", c.Register)
	h.Get("/", c.List)
	h.Put("/:id", jwtMiddleware, c.Update)
	h.Delete("/:id", jwtMiddleware, c.Delete)
}

// currentUserId reads the authenticated user set by the jwt middleware.
func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, apperror.Unauthenticated("not authenticated")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, apperror.Unauthenticated("not authenticated")
	}
	return userId, nil
}

func pageQueryFromCtx(ctx *fiber.Ctx) (dto.PageQuery, error) {
	page := dto.PageQuery{
		Limit:  ctx.QueryInt("limit", 10),
		Offset: ctx.QueryInt("offset", 0),
	}
	if err := serverutils.ValidateRequest(&page); err != nil {
		return dto.PageQuery{}, err
	}
	return page, nil
}

func (c *userController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.Register(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("User created", res))
}

func (c *userController) List(ctx *fiber.Ctx) error {
	page, err := pageQueryFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListUsers(ctx.UserContext(), page)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Users", res))
}

func (c *userController) Update(ctx *fiber.Ctx) error {
	callerId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	targetId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.Validation("invalid user id")
	}

	var req dto.UpdateUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.UpdateSelf(ctx.UserContext(), callerId, targetId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User updated", res))
}

func (c *userController) Delete(ctx *fiber.Ctx) error {
	callerId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	targetId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.Validation("invalid user id")
	}

	if err := c.service.DeleteSelf(ctx.UserContext(), callerId, targetId); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
