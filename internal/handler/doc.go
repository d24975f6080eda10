// Package handler provides HTTP request handlers for the club portal API.
//
// Handlers are organized by domain. Each handler declares the narrow service
// interface it depends on, so tests can substitute func-field mocks.
//
// # Handler Pattern
//
//   - NewXxxHandler takes the service (or a config struct when there are several)
//   - RegisterRoutes installs Go 1.22 method patterns on a ServeMux
//   - Service errors go through WriteServiceError, which maps sentinels to
//     status codes in one place
//
// # Response Format
//
// Every JSON body is an envelope:
//
//	{"status":"success","data":{...}}
//	{"status":"error","error":{"code":3001,"title":"Not Found","message":"event not found"}}
//
// Validation failures add a "fields" list. 5xx errors carry a "detail"
// outside production.
//
// # Authentication
//
// Role checks happen in middleware.Gate before a handler runs. Handlers read
// the caller with middleware.GetUserID and, where ownership matters,
// middleware.GetRole.
//
// # Example Usage
//
//	events := handler.NewEventHandler(handler.EventHandlerConfig{
//	    EventService:        eventService,
//	    RegistrationService: registrationService,
//	})
//	events.RegisterRoutes(mux, otpLimit)
package handler
