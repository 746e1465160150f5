// Package core declares resources of the core ("v1") API group.
package core

import (
	"github.com/dmonroy/avionix/pkg/entity"
	"github.com/dmonroy/avionix/pkg/kube"
	"github.com/dmonroy/avionix/pkg/kube/meta"
)

// APIVersion is the default apiVersion of core resources.
const APIVersion = "v1"

// ObjectReference points at another object, or a field within it.
type ObjectReference struct {
	FieldPath       entity.Option[string]
	ResourceVersion entity.Option[string]
	UID             entity.Option[string]
	APIVersion      entity.Option[string]
	Kind            entity.Option[string]
	Name            entity.Option[string]
	Namespace       entity.Option[string]
}

func (r ObjectReference) Fields() []entity.Field {
	return []entity.Field{
		entity.F("api_version", entity.OptString(r.APIVersion)),
		entity.F("field_path", entity.OptString(r.FieldPath)),
		entity.F("kind", entity.OptString(r.Kind)),
		entity.F("name", entity.OptString(r.Name)),
		entity.F("namespace", entity.OptString(r.Namespace)),
		entity.F("resource_version", entity.OptString(r.ResourceVersion)),
		entity.F("uid", entity.OptString(r.UID)),
	}
}

// ConfigMap holds non-confidential key/value data.
type ConfigMap struct {
	Metadata           meta.ObjectMeta
	Data               entity.Option[map[string]string]
	BinaryData         entity.Option[map[string]string]
	Immutable          entity.Option[bool]
	APIVersionOverride entity.Option[string]
}

func (c ConfigMap) Kind() string       { return "ConfigMap" }
func (c ConfigMap) APIVersion() string { return c.APIVersionOverride.OrElse(APIVersion) }
func (c ConfigMap) ObjectName() string { return c.Metadata.Name.OrElse("") }

func (c ConfigMap) Fields() []entity.Field {
	return kube.WithTypeMeta(c,
		entity.F("metadata", entity.Nested(c.Metadata)),
		entity.F("binary_data", entity.OptStringMap(c.BinaryData)),
		entity.F("data", entity.OptStringMap(c.Data)),
		entity.F("immutable", entity.OptBool(c.Immutable)),
	)
}

// Namespace is a scope for names.
type Namespace struct {
	Metadata           meta.ObjectMeta
	Finalizers         entity.Option[[]string]
	APIVersionOverride entity.Option[string]
}

func (n Namespace) Kind() string       { return "Namespace" }
func (n Namespace) APIVersion() string { return n.APIVersionOverride.OrElse(APIVersion) }
func (n Namespace) ObjectName() string { return n.Metadata.Name.OrElse("") }

func (n Namespace) Fields() []entity.Field {
	spec := entity.Omitted()
	if n.Finalizers.IsSet() {
		spec = entity.Nested(entity.Fields{entity.F("finalizers", entity.OptStrings(n.Finalizers))})
	}

	return kube.WithTypeMeta(n,
		entity.F("metadata", entity.Nested(n.Metadata)),
		entity.F("spec", spec),
	)
}

// ServiceAccount is an identity for processes running in pods.
type ServiceAccount struct {
	Metadata                     meta.ObjectMeta
	AutomountServiceAccountToken entity.Option[bool]
	ImagePullSecrets             entity.Option[[]LocalObjectReference]
	Secrets                      entity.Option[[]ObjectReference]
	APIVersionOverride           entity.Option[string]
}

func (s ServiceAccount) Kind() string       { return "ServiceAccount" }
func (s ServiceAccount) APIVersion() string { return s.APIVersionOverride.OrElse(APIVersion) }
func (s ServiceAccount) ObjectName() string { return s.Metadata.Name.OrElse("") }

func (s ServiceAccount) Fields() []entity.Field {
	return kube.WithTypeMeta(s,
		entity.F("metadata", entity.Nested(s.Metadata)),
		entity.F("automount_service_account_token", entity.OptBool(s.AutomountServiceAccountToken)),
		entity.F("image_pull_secrets", entity.OptObjects(s.ImagePullSecrets)),
		entity.F("secrets", entity.OptObjects(s.Secrets)),
	)
}

// LocalObjectReference names an object in the same namespace.
type LocalObjectReference struct {
	Name entity.Option[string]
}

func (r LocalObjectReference) Fields() []entity.Field {
	return []entity.Field{entity.F("name", entity.OptString(r.Name))}
}

// Toleration lets a pod schedule onto nodes with a matching taint.
type Toleration struct {
	Effect            entity.Option[string]
	Key               entity.Option[string]
	Operator          entity.Option[string]
	TolerationSeconds entity.Option[int64]
	Value             entity.Option[string]
}

func (t Toleration) Fields() []entity.Field {
	return []entity.Field{
		entity.F("effect", entity.OptString(t.Effect)),
		entity.F("key", entity.OptString(t.Key)),
		entity.F("operator", entity.OptString(t.Operator)),
		entity.F("toleration_seconds", entity.OptInt(t.TolerationSeconds)),
		entity.F("value", entity.OptString(t.Value)),
	}
}
