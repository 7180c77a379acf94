package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/familyconnect/familyconnect/internal/services"
	appErrors "github.com/familyconnect/familyconnect/pkg/errors"
	"github.com/familyconnect/familyconnect/pkg/response"
)

// OnboardingHandler drives the guided tree-building flow: the root member,
// parents, ad-hoc relatives, and the completion summary.
type OnboardingHandler struct {
	onboarding *services.OnboardingService
}

// NewOnboardingHandler constructs an onboarding handler.
func NewOnboardingHandler(onboarding *services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

type bootstrapRequest struct {
	FirstName string `json:"first_name" validate:"required,max=128"`
	LastName  string `json:"last_name" validate:"omitempty,max=128"`
	Gender    string `json:"gender" validate:"omitempty,oneof=female male other"`
}

type parentsRequest struct {
	MotherName string `json:"mother_name" validate:"omitempty,max=256"`
	FatherName string `json:"father_name" validate:"omitempty,max=256"`
}

type relativeRequest struct {
	Name     string `json:"name" validate:"required,max=256"`
	Relation string `json:"relation" validate:"required,oneof=parent sibling spouse child other"`
}

// Bootstrap creates or refreshes the account's root member.
func (h *OnboardingHandler) Bootstrap(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req bootstrapRequest
	if !bindAndValidate(c, &req) {
		return
	}

	member, err := h.onboarding.BootstrapSelf(requestContext(c), userID, services.BootstrapInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, member)
}

// AddParents records the declared mother and father. Each is independent; a
// blank name is skipped and a failure in one does not undo the other.
func (h *OnboardingHandler) AddParents(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req parentsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	added := make([]services.RelativeRecord, 0, 2)
	var failures []string

	if record, err := h.onboarding.AddParent(ctx, userID, services.ParentMother, req.MotherName); err != nil {
		failures = append(failures, "mother")
	} else if record != nil {
		added = append(added, *record)
	}
	if record, err := h.onboarding.AddParent(ctx, userID, services.ParentFather, req.FatherName); err != nil {
		failures = append(failures, "father")
	} else if record != nil {
		added = append(added, *record)
	}

	if len(added) == 0 && len(failures) > 0 {
		response.Error(c, appErrors.NewBadRequest("could not record parents"))
		return
	}

	payload := gin.H{"added": added}
	if len(failures) > 0 {
		payload["failed"] = failures
	}
	response.Success(c, http.StatusCreated, payload)
}

// AddRelative records one relative with the declared relation kind.
func (h *OnboardingHandler) AddRelative(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req relativeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	kind, err := services.ParseRelationKind(req.Relation)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("relation must be one of: parent, sibling, spouse, child, other"))
		return
	}

	record, err := h.onboarding.AddRelative(requestContext(c), userID, kind, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// Complete flips the onboarding flag and returns the summary stats.
func (h *OnboardingHandler) Complete(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.onboarding.CompleteOnboarding(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
