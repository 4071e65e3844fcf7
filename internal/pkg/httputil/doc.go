// Package httputil holds the JSON request/response helpers shared by every
// handler. Handlers never touch http.ResponseWriter directly for JSON; going
// through here keeps the error envelope and content types uniform.
package httputil
