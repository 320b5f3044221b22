// Package client is the PennyPlan auth API client used by the CLI.
//
// # Overview
//
// Client talks JSON over HTTP to the auth server: Register, Login,
// GoogleLogin, Me and Ping. Successful sign-ins return a Session holding the
// bearer token and the user profile.
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable. Non-2xx responses
// become *APIError carrying the status code and the server's message;
// 401 responses also match ErrUnauthorized with errors.Is.
package client
