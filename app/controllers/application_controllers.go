package controllers

import (
	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/ctx"
)

type ApplicationController struct {
	service *services.ApplicationService
}

func NewApplicationController(service *services.ApplicationService) *ApplicationController {
	return &ApplicationController{service: service}
}

func (ac *ApplicationController) Store(c *ctx.Context) {
	var in services.NewApplication
	if !c.BindJSON(&in) {
		return
	}

	a, err := ac.service.Submit(c.Context(), c.Email(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]string{"insertedId": a.ID.Hex()})
}

// Mine lists the caller's applications; ?email= may only name the caller.
func (ac *ApplicationController) Mine(c *ctx.Context) {
	list, err := ac.service.ListMine(c.Context(), c.Email(), auth.NormalizeEmail(c.Query("email")))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (ac *ApplicationController) Show(c *ctx.Context) {
	a, err := ac.service.FindMine(c.Context(), c.Email(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(a)
}

func (ac *ApplicationController) Update(c *ctx.Context) {
	var in models.ApplicationPatch
	if !c.BindJSON(&in) {
		return
	}

	a, err := ac.service.UpdateMine(c.Context(), c.Email(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(a)
}

func (ac *ApplicationController) Destroy(c *ctx.Context) {
	if err := ac.service.DeleteMine(c.Context(), c.Email(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]bool{"deleted": true})
}

func (ac *ApplicationController) Index(c *ctx.Context) {
	list, err := ac.service.All(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (ac *ApplicationController) UpdateStatus(c *ctx.Context) {
	var in services.StatusUpdate
	if !c.BindJSON(&in) {
		return
	}

	a, err := ac.service.SetStatus(c.Context(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(a)
}
