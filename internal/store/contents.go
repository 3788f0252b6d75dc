package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/razeware/emitron/internal/domain"
)

// SaveContentState persists a denormalized snapshot of a content subtree.
// Rows are superseded, not merged: the snapshot's absence of a bookmark or
// progression removes the stored one, and join rows are rewritten wholesale.
//
// Group links are applied after the group rows exist; a snapshot that
// references a group not yet persisted (an episode saved before its
// collection) leaves the link NULL until the collection snapshot arrives.
func (s *Store) SaveContentState(state domain.ContentPersistableState) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if state.ParentContent != nil {
			if err := upsertContent(tx, *state.ParentContent); err != nil {
				return fmt.Errorf("failed to upsert parent content: %w", err)
			}
		}
		if err := upsertContent(tx, state.Content); err != nil {
			return fmt.Errorf("failed to upsert content: %w", err)
		}
		for _, g := range state.Groups {
			if err := upsertGroup(tx, g); err != nil {
				return fmt.Errorf("failed to upsert group %d: %w", g.ID, err)
			}
		}
		for _, child := range state.ChildContents {
			if err := upsertContent(tx, child); err != nil {
				return fmt.Errorf("failed to upsert child content %d: %w", child.ID, err)
			}
		}

		linked := append([]domain.Content{state.Content}, state.ChildContents...)
		if state.ParentContent != nil {
			linked = append(linked, *state.ParentContent)
		}
		for _, content := range linked {
			if err := linkGroup(tx, content); err != nil {
				return fmt.Errorf("failed to link content %d to group: %w", content.ID, err)
			}
		}

		if err := replaceBookmark(tx, state.Content.ID, state.Bookmark); err != nil {
			return fmt.Errorf("failed to save bookmark: %w", err)
		}
		if err := replaceProgression(tx, state.Content.ID, state.Progression); err != nil {
			return fmt.Errorf("failed to save progression: %w", err)
		}
		if err := replaceJoins(tx, state.Content.ID, state.Domains, state.Categories); err != nil {
			return err
		}
		return nil
	})
}

// DeleteContent removes a content and, via cascade, its joins, bookmark,
// progression, download and child groups.
func (s *Store) DeleteContent(contentID int) error {
	_, err := s.db.Exec("DELETE FROM contents WHERE id = ?", contentID)
	if err != nil {
		return fmt.Errorf("failed to delete content %d: %w", contentID, err)
	}
	return nil
}

// LoadCacheUpdate reads the whole store back into a cache update batch for
// rehydrating the in-memory cache at session start.
func (s *Store) LoadCacheUpdate() (domain.CacheUpdate, error) {
	var update domain.CacheUpdate

	rows, err := s.db.Query(`
		SELECT id, uri, name, description, description_plain_text, released_at,
		       free, professional, difficulty, content_type, duration,
		       video_identifier, card_artwork_url, technology_triple,
		       contributor_string, group_id, ordinal
		FROM contents`)
	if err != nil {
		return update, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return update, err
		}
		update.Contents = append(update.Contents, content)
	}
	if err := rows.Err(); err != nil {
		return update, fmt.Errorf("failed to read contents: %w", err)
	}

	groupRows, err := s.db.Query("SELECT id, name, description, ordinal, content_id FROM groups")
	if err != nil {
		return update, fmt.Errorf("failed to query groups: %w", err)
	}
	defer groupRows.Close()
	for groupRows.Next() {
		var g domain.Group
		var desc sql.NullString
		if err := groupRows.Scan(&g.ID, &g.Name, &desc, &g.Ordinal, &g.ContentID); err != nil {
			return update, fmt.Errorf("failed to scan group: %w", err)
		}
		if desc.Valid {
			g.Description = &desc.String
		}
		update.Groups = append(update.Groups, g)
	}
	if err := groupRows.Err(); err != nil {
		return update, fmt.Errorf("failed to read groups: %w", err)
	}

	bookmarkRows, err := s.db.Query("SELECT id, created_at, content_id FROM bookmarks")
	if err != nil {
		return update, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer bookmarkRows.Close()
	for bookmarkRows.Next() {
		var b domain.Bookmark
		if err := bookmarkRows.Scan(&b.ID, &b.CreatedAt, &b.ContentID); err != nil {
			return update, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		update.Bookmarks = append(update.Bookmarks, b)
	}
	if err := bookmarkRows.Err(); err != nil {
		return update, fmt.Errorf("failed to read bookmarks: %w", err)
	}

	progressionRows, err := s.db.Query(
		"SELECT id, target, progress, created_at, updated_at, content_id FROM progressions")
	if err != nil {
		return update, fmt.Errorf("failed to query progressions: %w", err)
	}
	defer progressionRows.Close()
	for progressionRows.Next() {
		var p domain.Progression
		if err := progressionRows.Scan(&p.ID, &p.Target, &p.Progress, &p.CreatedAt, &p.UpdatedAt, &p.ContentID); err != nil {
			return update, fmt.Errorf("failed to scan progression: %w", err)
		}
		update.Progressions = append(update.Progressions, p)
	}
	if err := progressionRows.Err(); err != nil {
		return update, fmt.Errorf("failed to read progressions: %w", err)
	}

	domainRows, err := s.db.Query("SELECT content_id, domain_id FROM content_domains")
	if err != nil {
		return update, fmt.Errorf("failed to query content domains: %w", err)
	}
	defer domainRows.Close()
	for domainRows.Next() {
		var d domain.ContentDomain
		if err := domainRows.Scan(&d.ContentID, &d.DomainID); err != nil {
			return update, fmt.Errorf("failed to scan content domain: %w", err)
		}
		update.ContentDomains = append(update.ContentDomains, d)
	}
	if err := domainRows.Err(); err != nil {
		return update, fmt.Errorf("failed to read content domains: %w", err)
	}

	categoryRows, err := s.db.Query("SELECT content_id, category_id FROM content_categories")
	if err != nil {
		return update, fmt.Errorf("failed to query content categories: %w", err)
	}
	defer categoryRows.Close()
	for categoryRows.Next() {
		var cc domain.ContentCategory
		if err := categoryRows.Scan(&cc.ContentID, &cc.CategoryID); err != nil {
			return update, fmt.Errorf("failed to scan content category: %w", err)
		}
		update.ContentCategories = append(update.ContentCategories, cc)
	}
	if err := categoryRows.Err(); err != nil {
		return update, fmt.Errorf("failed to read content categories: %w", err)
	}

	return update, nil
}

// SaveDomains upserts the named domain records
func (s *Store) SaveDomains(domains []domain.Domain) error {
	return s.Transaction(func(tx *sql.Tx) error {
		for _, d := range domains {
			_, err := tx.Exec(`
				INSERT INTO domains (id, name, slug, ordinal) VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET name=excluded.name, slug=excluded.slug, ordinal=excluded.ordinal`,
				d.ID, d.Name, d.Slug, d.Ordinal)
			if err != nil {
				return fmt.Errorf("failed to upsert domain %d: %w", d.ID, err)
			}
		}
		return nil
	})
}

// SaveCategories upserts the named category records
func (s *Store) SaveCategories(categories []domain.Category) error {
	return s.Transaction(func(tx *sql.Tx) error {
		for _, c := range categories {
			_, err := tx.Exec(`
				INSERT INTO categories (id, name, ordinal) VALUES (?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET name=excluded.name, ordinal=excluded.ordinal`,
				c.ID, c.Name, c.Ordinal)
			if err != nil {
				return fmt.Errorf("failed to upsert category %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Domains returns all stored domain records ordered by ordinal
func (s *Store) Domains() ([]domain.Domain, error) {
	rows, err := s.db.Query("SELECT id, name, slug, ordinal FROM domains ORDER BY ordinal, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var out []domain.Domain
	for rows.Next() {
		var d domain.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.Slug, &d.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Categories returns all stored category records ordered by ordinal
func (s *Store) Categories() ([]domain.Category, error) {
	rows, err := s.db.Query("SELECT id, name, ordinal FROM categories ORDER BY ordinal, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func upsertContent(tx *sql.Tx, c domain.Content) error {
	// group_id is written separately by linkGroup once group rows exist
	_, err := tx.Exec(`
		INSERT INTO contents (
			id, uri, name, description, description_plain_text, released_at,
			free, professional, difficulty, content_type, duration,
			video_identifier, card_artwork_url, technology_triple,
			contributor_string, group_id, ordinal
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri=excluded.uri,
			name=excluded.name,
			description=excluded.description,
			description_plain_text=excluded.description_plain_text,
			released_at=excluded.released_at,
			free=excluded.free,
			professional=excluded.professional,
			difficulty=excluded.difficulty,
			content_type=excluded.content_type,
			duration=excluded.duration,
			video_identifier=excluded.video_identifier,
			card_artwork_url=excluded.card_artwork_url,
			technology_triple=excluded.technology_triple,
			contributor_string=excluded.contributor_string,
			ordinal=excluded.ordinal`,
		c.ID, c.URI, c.Name, c.Description, c.DescriptionPlainText, c.ReleasedAt,
		c.Free, c.Professional, int(c.Difficulty), c.ContentType.String(), c.Duration,
		nullIntPtr(c.VideoIdentifier), nullStringPtr(c.CardArtworkURL), c.TechnologyTriple,
		c.ContributorString, nullIntPtr(c.Ordinal))
	return err
}

// linkGroup sets the content's group membership, but only once the group row
// exists; the foreign key would otherwise reject the link.
func linkGroup(tx *sql.Tx, c domain.Content) error {
	if c.GroupID == nil {
		return nil
	}
	_, err := tx.Exec(`
		UPDATE contents SET group_id = ?
		WHERE id = ? AND EXISTS (SELECT 1 FROM groups WHERE id = ?)`,
		*c.GroupID, c.ID, *c.GroupID)
	return err
}

func upsertGroup(tx *sql.Tx, g domain.Group) error {
	_, err := tx.Exec(`
		INSERT INTO groups (id, name, description, ordinal, content_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			description=excluded.description,
			ordinal=excluded.ordinal,
			content_id=excluded.content_id`,
		g.ID, g.Name, nullStringPtr(g.Description), g.Ordinal, g.ContentID)
	return err
}

func replaceBookmark(tx *sql.Tx, contentID int, b *domain.Bookmark) error {
	if b == nil {
		_, err := tx.Exec("DELETE FROM bookmarks WHERE content_id = ?", contentID)
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO bookmarks (id, created_at, content_id) VALUES (?, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET id=excluded.id, created_at=excluded.created_at`,
		b.ID, b.CreatedAt, b.ContentID)
	return err
}

func replaceProgression(tx *sql.Tx, contentID int, p *domain.Progression) error {
	if p == nil {
		_, err := tx.Exec("DELETE FROM progressions WHERE content_id = ?", contentID)
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO progressions (id, target, progress, created_at, updated_at, content_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET
			id=excluded.id,
			target=excluded.target,
			progress=excluded.progress,
			created_at=excluded.created_at,
			updated_at=excluded.updated_at`,
		p.ID, p.Target, p.Progress, p.CreatedAt, p.UpdatedAt, p.ContentID)
	return err
}

func replaceJoins(tx *sql.Tx, contentID int, domains []domain.ContentDomain, categories []domain.ContentCategory) error {
	if _, err := tx.Exec("DELETE FROM content_domains WHERE content_id = ?", contentID); err != nil {
		return fmt.Errorf("failed to clear content domains: %w", err)
	}
	for _, d := range domains {
		if _, err := tx.Exec(
			"INSERT INTO content_domains (content_id, domain_id) VALUES (?, ?)",
			d.ContentID, d.DomainID); err != nil {
			return fmt.Errorf("failed to insert content domain: %w", err)
		}
	}
	if _, err := tx.Exec("DELETE FROM content_categories WHERE content_id = ?", contentID); err != nil {
		return fmt.Errorf("failed to clear content categories: %w", err)
	}
	for _, c := range categories {
		if _, err := tx.Exec(
			"INSERT INTO content_categories (content_id, category_id) VALUES (?, ?)",
			c.ContentID, c.CategoryID); err != nil {
			return fmt.Errorf("failed to insert content category: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (domain.Content, error) {
	var c domain.Content
	var releasedAt sql.NullTime
	var contentType string
	var difficulty int
	var videoID, groupID, ordinal sql.NullInt64
	var artworkURL sql.NullString

	err := row.Scan(&c.ID, &c.URI, &c.Name, &c.Description, &c.DescriptionPlainText,
		&releasedAt, &c.Free, &c.Professional, &difficulty, &contentType, &c.Duration,
		&videoID, &artworkURL, &c.TechnologyTriple, &c.ContributorString, &groupID, &ordinal)
	if err != nil {
		return c, fmt.Errorf("failed to scan content: %w", err)
	}

	if releasedAt.Valid {
		c.ReleasedAt = releasedAt.Time
	}
	c.Difficulty = domain.Difficulty(difficulty)
	c.ContentType, err = domain.ParseContentType(contentType)
	if err != nil {
		return c, err
	}
	c.VideoIdentifier = intPtrFromNull(videoID)
	c.GroupID = intPtrFromNull(groupID)
	c.Ordinal = intPtrFromNull(ordinal)
	if artworkURL.Valid {
		c.CardArtworkURL = &artworkURL.String
	}
	return c, nil
}

func nullIntPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStringPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTimePtr(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtrFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
