// Package httpapi exposes a tokenAuth engine over HTTP.
//
// Routes, mounted by [Handler] under the configured prefix (default "/auth"):
//
//	POST /auth/         register; JSON body, 201 with the stored user
//	POST /auth/token    login; form fields username and password
//	POST /auth/refresh  JSON {"refresh_token": "..."}; new access token
//	POST /auth/logout   JSON {"refresh_token": "..."}; revokes it
//	GET  /auth/me       identity behind the bearer access token
//
// Errors are JSON objects of the form {"detail": "..."}.
package httpapi
