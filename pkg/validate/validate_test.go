package validate_test

import (
	"testing"

	"github.com/scholarstream/scholarstream/pkg/validate"
)

type reviewInput struct {
	ScholarshipID string  `json:"scholarshipId" validate:"required,objectid"`
	Rating        int     `json:"rating"        validate:"required,min=1,max=5"`
	Comment       string  `json:"comment"       validate:"max=20"`
	Photo         string  `json:"photo"         validate:"omitempty,url"`
	Status        string  `json:"status"        validate:"omitempty,oneof=pending processing"`
	Fee           float64 `json:"fee"           validate:"gte=0"`
}

func valid() reviewInput {
	return reviewInput{
		ScholarshipID: "64b7f0c2a1b2c3d4e5f60718",
		Rating:        4,
		Comment:       "great",
	}
}

func TestValidInput(t *testing.T) {
	if errs := validate.Struct(valid()); validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredUsesJSONNames(t *testing.T) {
	errs := validate.Struct(reviewInput{})
	if _, ok := errs["scholarshipId"]; !ok {
		t.Errorf("expected scholarshipId to be required, got %v", errs)
	}
	if _, ok := errs["rating"]; !ok {
		t.Errorf("expected rating to be required, got %v", errs)
	}
}

func TestObjectIDRule(t *testing.T) {
	in := valid()
	in.ScholarshipID = "not-an-id"
	errs := validate.Struct(in)
	if got := errs["scholarshipId"]; got != "The scholarshipId must be a valid id." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestNumericBounds(t *testing.T) {
	in := valid()
	in.Rating = 6
	if errs := validate.Struct(in); errs["rating"] != "The rating must be at most 5." {
		t.Errorf("unexpected errors: %v", errs)
	}
	in.Rating = 1
	in.Fee = -1
	if errs := validate.Struct(in); errs["fee"] == "" {
		t.Error("expected negative fee to fail")
	}
}

func TestStringLengthMessage(t *testing.T) {
	in := valid()
	in.Comment = "this comment is much too long"
	if errs := validate.Struct(in); errs["comment"] != "The comment must not be greater than 20 characters." {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestOmitEmptySkipsRules(t *testing.T) {
	in := valid()
	in.Photo = ""
	in.Status = ""
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		t.Errorf("expected empty optional fields to pass, got %v", errs)
	}
	in.Status = "done"
	if errs := validate.Struct(in); errs["status"] != "The status must be one of: pending, processing." {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestNonStructIsIgnored(t *testing.T) {
	if errs := validate.Struct(42); validate.HasErrors(errs) {
		t.Errorf("expected no errors for non-struct, got %v", errs)
	}
}
