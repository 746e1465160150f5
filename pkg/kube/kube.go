// Package kube holds helpers shared by the typed Kubernetes resource
// packages beneath it.
package kube

import "github.com/dmonroy/avionix/pkg/entity"

// TypeMeta returns the apiVersion and kind fields that head every top-level
// resource.
func TypeMeta(apiVersion, kind string) []entity.Field {
	return []entity.Field{
		entity.F("api_version", entity.String(apiVersion)),
		entity.F("kind", entity.String(kind)),
	}
}

// WithTypeMeta prepends the apiVersion and kind fields of o to fields.
func WithTypeMeta(o interface {
	APIVersion() string
	Kind() string
}, fields ...entity.Field) []entity.Field {
	return append(TypeMeta(o.APIVersion(), o.Kind()), fields...)
}
