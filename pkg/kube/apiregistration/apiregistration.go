// Package apiregistration declares the APIService resource, which registers
// an extension API server with the aggregation layer.
package apiregistration

import (
	"time"

	"github.com/dmonroy/avionix/pkg/entity"
	"github.com/dmonroy/avionix/pkg/kube"
	"github.com/dmonroy/avionix/pkg/kube/meta"
)

// APIVersion is the default apiVersion of apiregistration resources.
const APIVersion = "apiregistration.k8s.io/v1"

// ServiceReference points at the service hosting an API server.
type ServiceReference struct {
	Name      entity.Option[string]
	Namespace entity.Option[string]
	// Port defaults to 443 on the server side when unset.
	Port entity.Option[int32]
}

func (r ServiceReference) Fields() []entity.Field {
	return []entity.Field{
		entity.F("name", entity.OptString(r.Name)),
		entity.F("namespace", entity.OptString(r.Namespace)),
		entity.F("port", entity.OptInt(r.Port)),
	}
}

// APIServiceSpec locates and describes an aggregated API server.
type APIServiceSpec struct {
	CABundle              entity.Option[string]
	Group                 string
	GroupPriorityMinimum  int32
	InsecureSkipTLSVerify entity.Option[bool]
	// Service is unset when the group version is served locally.
	Service         entity.Option[ServiceReference]
	Version         string
	VersionPriority int32
}

func (s APIServiceSpec) Fields() []entity.Field {
	return []entity.Field{
		entity.F("ca_bundle", entity.OptString(s.CABundle)),
		entity.F("group", entity.String(s.Group)),
		entity.F("group_priority_minimum", entity.Int(s.GroupPriorityMinimum)),
		entity.F("insecure_skip_TLS_verify", entity.OptBool(s.InsecureSkipTLSVerify)),
		entity.F("service", entity.OptObject(s.Service)),
		entity.F("version", entity.String(s.Version)),
		entity.F("version_priority", entity.Int(s.VersionPriority)),
	}
}

// APIServiceCondition describes the state of an APIService at a point in time.
type APIServiceCondition struct {
	LastTransitionTime time.Time
	Message            string
	Reason             string
	Status             string
	Type               string
}

func (c APIServiceCondition) Fields() []entity.Field {
	return []entity.Field{
		entity.F("last_transition_time", entity.Time(c.LastTransitionTime)),
		entity.F("message", entity.String(c.Message)),
		entity.F("reason", entity.String(c.Reason)),
		entity.F("status", entity.String(c.Status)),
		entity.F("type", entity.String(c.Type)),
	}
}

// APIServiceStatus holds the observed conditions of an APIService.
type APIServiceStatus struct {
	Conditions entity.Option[[]APIServiceCondition]
}

func (s APIServiceStatus) Fields() []entity.Field {
	return []entity.Field{entity.F("conditions", entity.OptObjects(s.Conditions))}
}

// APIService registers a server for a specific group version.
type APIService struct {
	Metadata           meta.ObjectMeta
	Spec               APIServiceSpec
	Status             entity.Option[APIServiceStatus]
	APIVersionOverride entity.Option[string]
}

func (a APIService) Kind() string       { return "APIService" }
func (a APIService) APIVersion() string { return a.APIVersionOverride.OrElse(APIVersion) }
func (a APIService) ObjectName() string { return a.Metadata.Name.OrElse("") }

func (a APIService) Fields() []entity.Field {
	return kube.WithTypeMeta(a,
		entity.F("metadata", entity.Nested(a.Metadata)),
		entity.F("spec", entity.Nested(a.Spec)),
		entity.F("status", entity.OptObject(a.Status)),
	)
}

// APIServiceList is a list of APIService objects. Lists have no name of
// their own and cannot be placed in a chart as a template.
type APIServiceList struct {
	Items              []APIService
	Metadata           meta.ListMeta
	APIVersionOverride entity.Option[string]
}

func (l APIServiceList) Kind() string       { return "APIServiceList" }
func (l APIServiceList) APIVersion() string { return l.APIVersionOverride.OrElse(APIVersion) }

func (l APIServiceList) Fields() []entity.Field {
	return kube.WithTypeMeta(l,
		entity.F("items", entity.Objects(l.Items)),
		entity.F("metadata", entity.Nested(l.Metadata)),
	)
}
