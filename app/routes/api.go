package routes

import (
	"net/http"

	"github.com/scholarstream/scholarstream/app/controllers"
	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/ctx"
	"github.com/scholarstream/scholarstream/pkg/middleware"
	"github.com/scholarstream/scholarstream/pkg/rbac"
	"github.com/scholarstream/scholarstream/pkg/router"
)

// Services is everything the API routes call into.
type Services struct {
	Verifier     auth.Verifier
	Users        *services.UserService
	Scholarships *services.ScholarshipService
	Applications *services.ApplicationService
	Reviews      *services.ReviewService
	Payments     *services.PaymentService
}

func RegisterAPI(r *router.Router, s Services) {
	users := controllers.NewUserController(s.Users)
	scholarships := controllers.NewScholarshipController(s.Scholarships)
	applications := controllers.NewApplicationController(s.Applications)
	reviews := controllers.NewReviewController(s.Reviews)
	payments := controllers.NewPaymentController(s.Payments)

	authn := middleware.Authenticate(s.Verifier)
	admin := rbac.RequireRole[models.Role](s.Users.StoredRole, models.RoleAdmin)
	moderator := rbac.RequireRole[models.Role](s.Users.StoredRole, models.RoleModerator)
	staff := rbac.RequireRole[models.Role](s.Users.StoredRole, models.RoleAdmin, models.RoleModerator)

	r.Get("/", "home", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ScholarStream server is running")) //nolint:errcheck
	})

	// Public
	r.Get("/users/{email}", "users.show", ctx.Wrap(users.Show))
	r.Get("/users/{email}/role", "users.role", ctx.Wrap(users.Role))
	r.Get("/all-scholarships", "scholarships.index", ctx.Wrap(scholarships.Index))
	r.Get("/scholarships", "scholarships.search", ctx.Wrap(scholarships.Search))
	r.Get("/latest-scholarships", "scholarships.latest", ctx.Wrap(scholarships.Latest))
	r.Get("/scholarship/{id}", "scholarships.show", ctx.Wrap(scholarships.Show))
	r.Get("/scholarship-details/{id}", "scholarships.details", ctx.Wrap(scholarships.Show))
	r.Get("/reviews/{scholarshipName}", "reviews.for_scholarship", ctx.Wrap(reviews.ForScholarship))

	// Any signed-in user
	me := r.Group("", authn)
	me.Post("/users", "users.store", ctx.Wrap(users.Store))
	me.Patch("/users/update", "users.update_profile", ctx.Wrap(users.UpdateProfile))

	me.Post("/apply-scholarships", "applications.store", ctx.Wrap(applications.Store))
	me.Get("/my-applications", "applications.mine", ctx.Wrap(applications.Mine))
	me.Get("/my-applications/{id}", "applications.show", ctx.Wrap(applications.Show))
	me.Patch("/update-application/{id}", "applications.update", ctx.Wrap(applications.Update))
	me.Delete("/delete-application/{id}", "applications.destroy", ctx.Wrap(applications.Destroy))

	me.Post("/add-review", "reviews.store", ctx.Wrap(reviews.Store))
	me.Get("/my-reviews", "reviews.mine", ctx.Wrap(reviews.Mine))
	me.Patch("/update-review/{id}", "reviews.update", ctx.Wrap(reviews.Update))
	me.Delete("/delete-review/{id}", "reviews.destroy", ctx.Wrap(reviews.Destroy))

	me.Post("/payments/init", "payments.init", ctx.Wrap(payments.Init))
	me.Post("/payment-checkout-session", "payments.checkout_session", ctx.Wrap(payments.Init))
	me.Patch("/payments/complete/{applicationId}", "payments.complete", ctx.Wrap(payments.Complete))
	me.Patch("/payment-success", "payments.success", ctx.Wrap(payments.Complete))

	// Admin
	adm := r.Group("", authn, admin)
	adm.Get("/users", "users.index", ctx.Wrap(users.Index))
	adm.Patch("/users/{id}/role", "users.update_role", ctx.Wrap(users.UpdateRole))
	adm.Delete("/users/{id}", "users.destroy", ctx.Wrap(users.Destroy))
	adm.Post("/add-scholarship", "scholarships.store", ctx.Wrap(scholarships.Store))
	adm.Patch("/scholarships/{id}", "scholarships.update", ctx.Wrap(scholarships.Update))
	adm.Delete("/scholarships/{id}", "scholarships.destroy", ctx.Wrap(scholarships.Destroy))

	// Admin or Moderator
	r.Group("", authn, staff).Get("/applications", "applications.index", ctx.Wrap(applications.Index))

	// Moderator
	mod := r.Group("", authn, moderator)
	mod.Patch("/applications/{id}", "applications.update_status", ctx.Wrap(applications.UpdateStatus))
	mod.Get("/reviews", "reviews.index", ctx.Wrap(reviews.Index))
	mod.Delete("/reviews/{id}", "reviews.moderate", ctx.Wrap(reviews.Moderate))
}
