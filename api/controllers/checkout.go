package controllers

import (
	"net/http"
	"strings"

	cartcontrollers "github.com/medibook/medibook-backend/api/controllers/cart"
	cartdto "github.com/medibook/medibook-backend/api/controllers/cart/dto"
	"github.com/medibook/medibook-backend/api/middleware"
	"github.com/medibook/medibook-backend/api/responses"
	"github.com/medibook/medibook-backend/api/validators"
	checkoutsvc "github.com/medibook/medibook-backend/internal/checkout"
	pkgerrors "github.com/medibook/medibook-backend/pkg/errors"
	"github.com/medibook/medibook-backend/pkg/logger"
	"github.com/medibook/medibook-backend/pkg/pagination"
)

type submissionList struct {
	Submissions []cartdto.Submission `json:"submissions"`
	NextCursor  string               `json:"next_cursor,omitempty"`
}

// CheckoutSubmissionsList returns one page of the owner's checkout submissions,
// newest first. Pass next_cursor back as ?cursor= for the following page.
func CheckoutSubmissionsList(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := submissionOwner(w, r, svc, logg)
		if !ok {
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", checkoutsvc.DefaultListLimit, 1, checkoutsvc.MaxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), ownerID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := submissionList{
			Submissions: make([]cartdto.Submission, 0, len(page.Submissions)),
			NextCursor:  page.NextCursor,
		}
		for i := range page.Submissions {
			out.Submissions = append(out.Submissions, cartcontrollers.NewSubmission(&page.Submissions[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// CheckoutSubmissionGet returns one submission owned by the caller.
func CheckoutSubmissionGet(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := submissionOwner(w, r, svc, logg)
		if !ok {
			return
		}

		id, err := validators.PathUUID(r, "submissionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submission, err := svc.Get(r.Context(), ownerID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartcontrollers.NewSubmission(submission))
	}
}

func submissionOwner(w http.ResponseWriter, r *http.Request, svc checkoutsvc.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
		return "", false
	}
	ownerID := middleware.OwnerIDFromContext(r.Context())
	if ownerID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner missing"))
		return "", false
	}
	return ownerID, true
}
