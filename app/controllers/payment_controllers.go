package controllers

import (
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/pkg/apperr"
	"github.com/scholarstream/scholarstream/pkg/ctx"
)

type PaymentController struct {
	service *services.PaymentService
}

func NewPaymentController(service *services.PaymentService) *PaymentController {
	return &PaymentController{service: service}
}

// Init returns the hosted checkout URL for one of the caller's applications.
func (pc *PaymentController) Init(c *ctx.Context) {
	var in services.InitPayment
	if !c.BindJSON(&in) {
		return
	}

	link, err := pc.service.Init(c.Context(), c.Email(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(link)
}

// Complete reads the application id from the path, or from the body on
// the legacy /payment-success route.
func (pc *PaymentController) Complete(c *ctx.Context) {
	var in services.CompletePayment
	if !c.BindJSON(&in) {
		return
	}

	id := c.Param("applicationId")
	if id == "" {
		id = in.ApplicationID
	}
	if id == "" {
		c.Fail(apperr.Invalid("applicationId is required"))
		return
	}

	res, err := pc.service.Complete(c.Context(), c.Email(), id, in.SessionID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}
