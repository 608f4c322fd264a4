package memeservice

import (
	"github.com/fele-systems/memendex/internal/models"
	"github.com/fele-systems/memendex/internal/repo"
)

// Reconciler synchronizes a meme's tag links with a desired label set.
type Reconciler struct {
	db *repo.DB
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(db *repo.DB) *Reconciler {
	return &Reconciler{db: db}
}

// Reconcile applies the minimal create/remove diff between the meme's
// current tag links and the desired labels. This is a full replace:
// passing the current set back is a no-op, passing an empty set removes
// every link. Catalog entries are resolved up front via AddOrFindTag,
// so a label never seen before creates its tag row even if a later step
// fails.
//
// Creates run before removes, so a tag being moved within the same
// update can never transiently reach zero references. After each
// removal the tag's reference count is checked and orphaned tags are
// deleted from the catalog.
func (r *Reconciler) Reconcile(memeID int64, labels []string) error {
	resolved := make([]models.Tag, 0, len(labels))
	for _, label := range labels {
		parsed := models.ParseTag(label)
		tag, err := r.db.AddOrFindTag(parsed.Scope, parsed.Value)
		if err != nil {
			return err
		}
		resolved = append(resolved, tag)
	}

	current, err := r.db.LinksForMeme(memeID)
	if err != nil {
		return err
	}

	var toCreate []models.Tag
	for _, tag := range resolved {
		if !linksContain(current, tag.ID) {
			toCreate = append(toCreate, tag)
		}
	}
	var toRemove []models.TagLink
	for _, link := range current {
		if !tagsContain(resolved, link.TagID) {
			toRemove = append(toRemove, link)
		}
	}

	for _, tag := range toCreate {
		if _, err := r.db.CreateLink(tag.ID, memeID); err != nil {
			return err
		}
	}

	for _, link := range toRemove {
		if err := r.db.DeleteLink(link.ID); err != nil {
			return err
		}
		refs, err := r.db.ReferenceCount(link.TagID)
		if err != nil {
			return err
		}
		if refs == 0 {
			if err := r.db.DeleteTag(link.TagID); err != nil {
				return err
			}
		}
	}

	return nil
}

func linksContain(links []models.TagLink, tagID int64) bool {
	for _, l := range links {
		if l.TagID == tagID {
			return true
		}
	}
	return false
}

func tagsContain(tags []models.Tag, tagID int64) bool {
	for _, t := range tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}
