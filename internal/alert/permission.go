package alert

import (
	"context"
	"fmt"
	"time"
)

// Permission mirrors the host's notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func ParsePermission(v string) (Permission, error) {
	switch p := Permission(v); p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return p, nil
	}
	return "", fmt.Errorf("unknown notification permission %q", v)
}

// PermissionSource asks the host for the current permission.
type PermissionSource interface {
	Permission(ctx context.Context) (Permission, error)
}

// StaticPermission is a source with a preconfigured answer.
type StaticPermission Permission

func (p StaticPermission) Permission(context.Context) (Permission, error) {
	return Permission(p), nil
}

// ResolvePermission queries src once, waiting at most timeout. Any failure
// degrades to PermissionDefault with ErrPermissionUnavailable.
func ResolvePermission(ctx context.Context, src PermissionSource, timeout time.Duration) (Permission, error) {
	if src == nil {
		return PermissionDefault, ErrPermissionUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		p   Permission
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := src.Permission(ctx)
		ch <- result{p, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return PermissionDefault, fmt.Errorf("%w: %v", ErrPermissionUnavailable, r.err)
		}
		return r.p, nil
	case <-ctx.Done():
		return PermissionDefault, fmt.Errorf("%w: %v", ErrPermissionUnavailable, ctx.Err())
	}
}
