// Package helpers provides test utility functions for the portal API.
//
// # JWT Helpers
//
// Sign access tokens with the same service the middleware validates with:
//
//	tokens := helpers.NewJWTHelper(t)
//	req := helpers.NewRequest(t, http.MethodGet, "/v1/admin/dashboard").
//	    WithAuth(tokens, admin).
//	    Build()
//
// # Envelope Assertions
//
//	helpers.AssertAPIError(t, rr, http.StatusForbidden, model.ErrCodeForbidden)
//	helpers.AssertValidationError(t, rr, "title")
//	helpers.DecodeData(t, rr, &event)
//
// # Database Assertions
//
//	helpers.AssertRecordExists(t, db, "event", event.ID)
//	helpers.AssertRecordNotExists(t, db, "event", event.ID)
package helpers
