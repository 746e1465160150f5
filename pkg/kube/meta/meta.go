// Package meta declares the metadata types shared by all resources.
package meta

import "github.com/dmonroy/avionix/pkg/entity"

// ObjectMeta is the metadata every persisted resource carries.
type ObjectMeta struct {
	Name            entity.Option[string]
	Namespace       entity.Option[string]
	GenerateName    entity.Option[string]
	Labels          entity.Option[map[string]string]
	Annotations     entity.Option[map[string]string]
	Finalizers      entity.Option[[]string]
	OwnerReferences entity.Option[[]OwnerReference]
}

// Named returns an ObjectMeta with only the name set.
func Named(name string) ObjectMeta {
	return ObjectMeta{Name: entity.Some(name)}
}

func (m ObjectMeta) Fields() []entity.Field {
	return []entity.Field{
		entity.F("annotations", entity.OptStringMap(m.Annotations)),
		entity.F("finalizers", entity.OptStrings(m.Finalizers)),
		entity.F("generate_name", entity.OptString(m.GenerateName)),
		entity.F("labels", entity.OptStringMap(m.Labels)),
		entity.F("name", entity.OptString(m.Name)),
		entity.F("namespace", entity.OptString(m.Namespace)),
		entity.F("owner_references", entity.OptObjects(m.OwnerReferences)),
	}
}

// OwnerReference identifies an owning object.
type OwnerReference struct {
	APIVersion         string
	Kind               string
	Name               string
	UID                string
	BlockOwnerDeletion entity.Option[bool]
	Controller         entity.Option[bool]
}

func (r OwnerReference) Fields() []entity.Field {
	return []entity.Field{
		entity.F("api_version", entity.String(r.APIVersion)),
		entity.F("block_owner_deletion", entity.OptBool(r.BlockOwnerDeletion)),
		entity.F("controller", entity.OptBool(r.Controller)),
		entity.F("kind", entity.String(r.Kind)),
		entity.F("name", entity.String(r.Name)),
		entity.F("uid", entity.String(r.UID)),
	}
}

// ListMeta is the metadata of list resources.
type ListMeta struct {
	Continue           entity.Option[string]
	RemainingItemCount entity.Option[int64]
	ResourceVersion    entity.Option[string]
	SelfLink           entity.Option[string]
}

func (m ListMeta) Fields() []entity.Field {
	return []entity.Field{
		entity.F("continue", entity.OptString(m.Continue)),
		entity.F("remaining_item_count", entity.OptInt(m.RemainingItemCount)),
		entity.F("resource_version", entity.OptString(m.ResourceVersion)),
		entity.F("self_link", entity.OptString(m.SelfLink)),
	}
}

// LabelSelector selects objects by label.
type LabelSelector struct {
	MatchExpressions entity.Option[[]LabelSelectorRequirement]
	MatchLabels      entity.Option[map[string]string]
}

func (s LabelSelector) Fields() []entity.Field {
	return []entity.Field{
		entity.F("match_expressions", entity.OptObjects(s.MatchExpressions)),
		entity.F("match_labels", entity.OptStringMap(s.MatchLabels)),
	}
}

// LabelSelectorRequirement is one set-based selector term.
type LabelSelectorRequirement struct {
	Key      string
	Operator string
	Values   entity.Option[[]string]
}

func (r LabelSelectorRequirement) Fields() []entity.Field {
	return []entity.Field{
		entity.F("key", entity.String(r.Key)),
		entity.F("operator", entity.String(r.Operator)),
		entity.F("values", entity.OptStrings(r.Values)),
	}
}
