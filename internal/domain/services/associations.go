package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

// captureAssociations records the identifiers of rec's related items as they
// stood at the moment of the mutation. Skipped entirely when association
// tracking is off globally or in the policy.
//
// Belongs-to relations are captured only when the target type is itself under
// tracking and enabled in the scope; a polymorphic relation resolves its
// concrete type from the record's discriminator attribute. Many-to-many
// relations capture the union of the current and removed id sets minus the
// added set, one row per id.
func (r *Recorder) captureAssociations(ctx context.Context, scope *Scope, rec entities.Trackable, v *entities.Version, pol entities.Policy) {
	if !r.trackAssociations || !pol.TrackAssociations {
		return
	}

	for _, ref := range rec.References() {
		targetType := ref.TargetType
		if ref.Polymorphic() {
			targetType, _ = rec.Attribute(ref.TypeAttribute).(string)
		}
		if targetType == "" {
			continue
		}
		if _, tracked := r.policies[targetType]; !tracked || !scope.Enabled(targetType) {
			continue
		}
		relatedID := attributeID(rec.Attribute(ref.IDAttribute))
		if relatedID == "" {
			continue
		}
		r.saveAssociation(ctx, rec, v, ref.Name, relatedID)
	}

	for _, rel := range rec.ManyRelations() {
		for _, id := range rel.IDs() {
			r.saveAssociation(ctx, rec, v, rel.Name, id)
		}
	}
}

func (r *Recorder) saveAssociation(ctx context.Context, rec entities.Trackable, v *entities.Version, relation, relatedID string) {
	a := &entities.VersionAssociation{
		ID:        uuid.New().String(),
		VersionID: v.ID,
		Relation:  relation,
		RelatedID: relatedID,
		CreatedAt: v.CreatedAt,
	}
	if err := r.store.SaveAssociation(ctx, a); err != nil {
		r.warn(rec, v.Event, err, "association not recorded")
	}
}

// attributeID renders a foreign key value as a storable id string. A nil
// foreign key yields "" and the relation is skipped.
func attributeID(value any) string {
	switch id := value.(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
