package controllers

import (
	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/ctx"
)

type UserController struct {
	service *services.UserService
}

func NewUserController(service *services.UserService) *UserController {
	return &UserController{service: service}
}

// Store registers the caller. Email and role come from the token, not the body.
func (uc *UserController) Store(c *ctx.Context) {
	var in services.NewUser
	if !c.BindJSON(&in) {
		return
	}

	u, err := uc.service.Register(c.Context(), c.Email(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(u)
}

// Show renders data:null for unknown emails.
func (uc *UserController) Show(c *ctx.Context) {
	u, err := uc.service.FindByEmail(c.Context(), auth.NormalizeEmail(c.Param("email")))
	if err != nil {
		c.Fail(err)
		return
	}
	if u == nil {
		c.Success(nil)
		return
	}
	c.Success(u)
}

func (uc *UserController) Role(c *ctx.Context) {
	role, err := uc.service.RoleOf(c.Context(), auth.NormalizeEmail(c.Param("email")))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]models.Role{"role": role})
}

func (uc *UserController) Index(c *ctx.Context) {
	users, err := uc.service.All(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(users)
}

func (uc *UserController) UpdateRole(c *ctx.Context) {
	var in struct {
		Role string `json:"role" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}

	if err := uc.service.UpdateRole(c.Context(), c.Param("id"), models.Role(in.Role)); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]string{"role": in.Role})
}

func (uc *UserController) UpdateProfile(c *ctx.Context) {
	var in models.ProfileUpdate
	if !c.BindJSON(&in) {
		return
	}

	updated, err := uc.service.UpdateProfile(c.Context(), c.Email(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(updated)
}

func (uc *UserController) Destroy(c *ctx.Context) {
	if err := uc.service.Delete(c.Context(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]bool{"deleted": true})
}
