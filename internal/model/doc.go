// Package model defines domain entities and request types for the club portal API.
//
// # Domain Entities
//
//   - User: portal account with a role and optional Codeforces handle
//   - Event, Winner, Registration: event listings and sign-ups
//   - Form, FormSubmission: admin-defined questionnaires
//   - Blog, Comment: articles with threaded replies and likes
//   - CPProblem, ProblemSolve, LeaderboardSnapshot: the CP practice gym
//   - Gallery, Member, Notice, ContactQuery, RecruitmentRole: site content
//
// # Validation
//
// Request types implement Validate() []FieldError. Most delegate to
// ValidateStruct, which checks `validate` tags and reports fields by their
// json name:
//
//	if errs := req.Validate(); len(errs) > 0 {
//	    model.NewValidationError(errs).WriteJSON(w)
//	}
//
// # Error Envelope
//
// APIError is written as {"status":"error","error":{...}} by WriteJSON.
package model
