package controllers

import (
	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/pkg/ctx"
)

type ScholarshipController struct {
	service *services.ScholarshipService
}

func NewScholarshipController(service *services.ScholarshipService) *ScholarshipController {
	return &ScholarshipController{service: service}
}

func (sc *ScholarshipController) Store(c *ctx.Context) {
	var in models.Scholarship
	if !c.BindJSON(&in) {
		return
	}

	created, err := sc.service.Create(c.Context(), c.Email(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(created)
}

func (sc *ScholarshipController) Update(c *ctx.Context) {
	var in models.ScholarshipPatch
	if !c.BindJSON(&in) {
		return
	}

	updated, err := sc.service.Update(c.Context(), c.Param("id"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(updated)
}

func (sc *ScholarshipController) Destroy(c *ctx.Context) {
	if err := sc.service.Delete(c.Context(), c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]bool{"deleted": true})
}

func (sc *ScholarshipController) Index(c *ctx.Context) {
	list, err := sc.service.All(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

// Search handles ?search=&subjectCategory=&scholarshipCategory=&degree=&sortField=&sortOrder=.
func (sc *ScholarshipController) Search(c *ctx.Context) {
	q := models.NewScholarshipQuery(
		c.Query("search"),
		c.Query("subjectCategory"),
		c.Query("scholarshipCategory"),
		c.Query("degree"),
		c.Query("sortField"),
		c.Query("sortOrder"),
	)

	list, err := sc.service.Search(c.Context(), q)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (sc *ScholarshipController) Latest(c *ctx.Context) {
	list, err := sc.service.Latest(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (sc *ScholarshipController) Show(c *ctx.Context) {
	s, err := sc.service.Find(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(s)
}
