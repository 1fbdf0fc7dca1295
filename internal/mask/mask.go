// Package mask projects indexed audit documents through per-caller field
// masks so a response never carries fields the caller did not ask for.
package mask

import (
	"time"

	"github.com/auditflow/auditflow/internal/models"
)

// Project renders doc through the given mask. A nil mask projects the full
// record. The source document is never mutated; map-valued fields are copied
// before they are placed in the output.
func Project(doc *models.IndexedDocument, m *models.MaskDescriptor) models.PartialRecord {
	if m == nil {
		m = fullMask()
	}

	ev := &doc.Event
	out := models.PartialRecord{}

	putString(out, "action", ev.Action, m.Action)
	putString(out, "crud", ev.Crud, m.Crud)
	if m.Created && !ev.Created.IsZero() {
		out["created"] = ev.Created.UTC().Format(time.RFC3339Nano)
	}
	putString(out, "source_ip", ev.SourceIP, m.SourceIP)
	putString(out, "description", ev.Description, m.Description)
	if m.IsAnonymous {
		out["is_anonymous"] = ev.IsAnonymous
	}
	if m.IsFailure {
		out["is_failure"] = ev.IsFailure
	}
	putString(out, "component", ev.Component, m.Component)
	putString(out, "version", ev.Version, m.Version)

	if m.Fields && ev.Fields != nil {
		fields := make(map[string]string, len(ev.Fields))
		for k, v := range ev.Fields {
			fields[k] = v
		}
		out["fields"] = fields
	}

	if g := projectGroup(&ev.Group, m.Group); len(g) > 0 {
		out["group"] = g
	}
	if a := projectActor(&ev.Actor, m.Actor); len(a) > 0 {
		out["actor"] = a
	}
	if t := projectTarget(&ev.Target, m.Target); len(t) > 0 {
		out["target"] = t
	}

	return out
}

func projectGroup(g *models.Group, m *models.GroupMask) map[string]any {
	if m == nil {
		return nil
	}

	out := map[string]any{}
	putString(out, "id", g.ID, m.ID)
	putString(out, "name", g.Name, m.Name)

	return out
}

func projectActor(a *models.Actor, m *models.ActorMask) map[string]any {
	if m == nil {
		return nil
	}

	out := map[string]any{}
	putString(out, "id", a.ID, m.ID)
	putString(out, "name", a.Name, m.Name)
	putString(out, "href", a.Href, m.Href)

	return out
}

func projectTarget(t *models.Target, m *models.TargetMask) map[string]any {
	if m == nil {
		return nil
	}

	out := map[string]any{}
	putString(out, "id", t.ID, m.ID)
	putString(out, "name", t.Name, m.Name)
	putString(out, "href", t.Href, m.Href)
	putString(out, "type", t.Type, m.Type)

	return out
}

// putString copies a scalar into out when its mask leaf is true. Empty
// values are still omitted so projections stay compact.
func putString(out map[string]any, key, val string, include bool) {
	if include && val != "" {
		out[key] = val
	}
}

// fullMask selects every field. Used when a caller supplies no mask.
func fullMask() *models.MaskDescriptor {
	return &models.MaskDescriptor{
		Action: true, Crud: true, Created: true,
		SourceIP: true, Description: true,
		IsAnonymous: true, IsFailure: true,
		Component: true, Version: true, Fields: true,
		Group:  &models.GroupMask{ID: true, Name: true},
		Actor:  &models.ActorMask{ID: true, Name: true, Href: true},
		Target: &models.TargetMask{ID: true, Name: true, Href: true, Type: true},
	}
}
