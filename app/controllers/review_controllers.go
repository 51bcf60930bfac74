package controllers

import (
	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/ctx"
)

type ReviewController struct {
	service *services.ReviewService
}

func NewReviewController(service *services.ReviewService) *ReviewController {
	return &ReviewController{service: service}
}

func (rc *ReviewController) Store(c *ctx.Context) {
	var in services.NewReview
	if !c.BindJSON(&in) {
		return
	}

	r, err := rc.service.Submit(c.Context(), c.Email(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(r)
}

func (rc *ReviewController) Mine(c *ctx.Context) {
	list, err := rc.service.ListMine(c.Context(), c.Email(), auth.NormalizeEmail(c.Query("email")))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (rc *ReviewController) Index(c *ctx.Context) {
	list, err := rc.service.All(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (rc *ReviewController) ForScholarship(c *ctx.Context) {
	list, err := rc.service.ListForScholarship(c.Context(), c.Param("scholarshipName"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (rc *ReviewController) Update(c *ctx.Context) {
	var in models.ReviewPatch
	if !c.BindJSON(&in) {
		return
	}

	r, err := rc.service.UpdateMine(c.Context(), c.Email(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(r)
}

func (rc *ReviewController) Destroy(c *ctx.Context) {
	if err := rc.service.DeleteMine(c.Context(), c.Email(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]bool{"deleted": true})
}

// Moderate removes any review.
func (rc *ReviewController) Moderate(c *ctx.Context) {
	if err := rc.service.Delete(c.Context(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]bool{"deleted": true})
}
