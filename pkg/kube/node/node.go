// Package node declares resources of the node.k8s.io API group.
package node

import (
	"github.com/dmonroy/avionix/pkg/entity"
	"github.com/dmonroy/avionix/pkg/kube"
	"github.com/dmonroy/avionix/pkg/kube/core"
	"github.com/dmonroy/avionix/pkg/kube/meta"
)

// APIVersion is the default apiVersion of node resources.
const APIVersion = "node.k8s.io/v1"

// Overhead is the resource overhead of running a pod with a RuntimeClass.
type Overhead struct {
	PodFixed entity.Option[map[string]string]
}

func (o Overhead) Fields() []entity.Field {
	return []entity.Field{entity.F("pod_fixed", entity.OptStringMap(o.PodFixed))}
}

// Scheduling constrains pods using a RuntimeClass to supporting nodes.
type Scheduling struct {
	NodeSelector entity.Option[map[string]string]
	Tolerations  entity.Option[[]core.Toleration]
}

func (s Scheduling) Fields() []entity.Field {
	return []entity.Field{
		entity.F("node_selector", entity.OptStringMap(s.NodeSelector)),
		entity.F("tolerations", entity.OptObjects(s.Tolerations)),
	}
}

// RuntimeClass selects the container runtime configuration for pods.
type RuntimeClass struct {
	Metadata           meta.ObjectMeta
	Handler            string
	Overhead           entity.Option[Overhead]
	Scheduling         entity.Option[Scheduling]
	APIVersionOverride entity.Option[string]
}

// NewRuntimeClass returns a RuntimeClass with the given metadata and handler.
func NewRuntimeClass(metadata meta.ObjectMeta, handler string) RuntimeClass {
	return RuntimeClass{Metadata: metadata, Handler: handler}
}

func (r RuntimeClass) Kind() string       { return "RuntimeClass" }
func (r RuntimeClass) APIVersion() string { return r.APIVersionOverride.OrElse(APIVersion) }
func (r RuntimeClass) ObjectName() string { return r.Metadata.Name.OrElse("") }

func (r RuntimeClass) Fields() []entity.Field {
	return kube.WithTypeMeta(r,
		entity.F("metadata", entity.Nested(r.Metadata)),
		entity.F("handler", entity.String(r.Handler)),
		entity.F("overhead", entity.OptObject(r.Overhead)),
		entity.F("scheduling", entity.OptObject(r.Scheduling)),
	)
}
