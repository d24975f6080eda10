// Package service implements the business logic layer for the club portal API.
//
// Services sit between HTTP handlers and repositories. They validate input,
// orchestrate repository calls, talk to external systems (SMTP, Cloudinary,
// Redis, Codeforces) and translate storage failures into domain errors.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with its dependencies
//   - Repository and gateway dependencies are narrow interfaces declared here
//   - Errors are sentinels from errors.go, or *ValidationError for field problems
//   - Context is passed through for cancellation and request-scoped values
//
// # Error Handling
//
// Handlers translate service errors in one place (handler.MapServiceError):
//
//	var (
//	    ErrEventNotFound     = errors.New("event not found")
//	    ErrAlreadyRegistered = errors.New("already registered for this event")
//	)
//
// Failures of external systems wrap ErrUpstream.
//
// # Example Usage
//
//	svc := NewRegistrationService(RegistrationServiceConfig{
//	    EventRepo:        eventRepository,
//	    UserRepo:         userRepository,
//	    RegistrationRepo: registrationRepository,
//	    Store:            redisCache,
//	    Mailer:           smtpMailer,
//	    JWT:              jwtService,
//	})
//	resp, err := svc.RequestOTP(ctx, eventID, email)
package service
