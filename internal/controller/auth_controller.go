package controller

import (
	"errors"

	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/service"
	"vocal_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService       *service.AuthService
	InstructorService *service.InstructorService
}

func NewAuthController(authSvc *service.AuthService, instructorSvc *service.InstructorService) *AuthController {
	return &AuthController{AuthService: authSvc, InstructorService: instructorSvc}
}

type RegisterReq struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Specialty string `json:"specialty"`
}

// @Summary 导师注册
// @Tags 认证模块
// @Accept json
// @Produce json
// @Param body body RegisterReq true "注册信息"
// @Success 201 {object} util.Response
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	instructor := &model.Instructor{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Specialty: req.Specialty,
		Role:      model.RoleInstructor,
		IsActive:  true,
	}

	if err := c.AuthService.Register(instructor); err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.Conflict(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"id": instructor.ID, "email": instructor.Email})
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary 导师登录
// @Tags 认证模块
// @Accept json
// @Produce json
// @Param body body LoginReq true "登录信息"
// @Success 200 {object} util.Response
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		util.Error(ctx, 401, err.Error())
		return
	}

	util.Success(ctx, gin.H{"token": token})
}

// @Summary 当前导师档案
// @Tags 认证模块
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	claims := util.GetInstructorFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	instructor, err := c.InstructorService.GetProfile(ctx.Request.Context(), claims.InstructorID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, instructor)
}

// @Summary 更新导师档案
// @Tags 认证模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ProfileUpdateReq true "档案信息"
// @Success 200 {object} util.Response
// @Router /api/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetInstructorFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ProfileUpdateReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	instructor, err := c.InstructorService.UpdateProfile(ctx.Request.Context(), claims.InstructorID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, instructor)
}
