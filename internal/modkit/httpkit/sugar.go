package httpkit

import (
	"net/http"
)

// GetJSON mounts a body-binding JSON handler under GET
func GetJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Get(path, JSON(h))
}

// PostJSON mounts a body-binding JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, JSON(h))
}

// PutJSON mounts a body-binding JSON handler under PUT
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Put(path, JSON(h))
}

// PatchJSON mounts a body-binding JSON handler under PATCH
func PatchJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Patch(path, JSON(h))
}

// DeleteJSON mounts a body-binding JSON handler under DELETE
func DeleteJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Delete(path, JSON(h))
}

// Body-less endpoints

// Get registers a no-body handler and uses the envelope adapter
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// Post registers a no-body handler and uses the envelope adapter
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, Call(h))
}

// Put registers a no-body handler and uses the envelope adapter
func Put(r Router, path string, h func(*http.Request) (any, error)) {
	r.Put(path, Call(h))
}

// Delete registers a no-body handler and uses the envelope adapter
func Delete(r Router, path string, h func(*http.Request) (any, error)) {
	r.Delete(path, Call(h))
}
