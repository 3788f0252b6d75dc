package store

// Schema v1 - Initial database schema.
// Mirrors the in-memory cache entities plus the download queue and the
// sync-request outbox. Deleting a content cascades to its joins, bookmark,
// progression and download; deleting a group releases its children via
// SET NULL rather than removing them.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS contents (
  id INTEGER PRIMARY KEY,
  uri TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  description_plain_text TEXT NOT NULL DEFAULT '',
  released_at DATETIME,
  free INTEGER NOT NULL DEFAULT 0,
  professional INTEGER NOT NULL DEFAULT 0,
  difficulty INTEGER NOT NULL DEFAULT 0,
  content_type TEXT NOT NULL,
  duration INTEGER NOT NULL DEFAULT 0,
  video_identifier INTEGER,
  card_artwork_url TEXT,
  technology_triple TEXT NOT NULL DEFAULT '',
  contributor_string TEXT NOT NULL DEFAULT '',
  group_id INTEGER REFERENCES groups(id) ON DELETE SET NULL,
  ordinal INTEGER
);

CREATE INDEX IF NOT EXISTS idx_contents_group_id ON contents(group_id);
CREATE INDEX IF NOT EXISTS idx_contents_content_type ON contents(content_type);

CREATE TABLE IF NOT EXISTS groups (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  ordinal INTEGER NOT NULL DEFAULT 0,
  content_id INTEGER NOT NULL REFERENCES contents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_groups_content_id ON groups(content_id);

CREATE TABLE IF NOT EXISTS bookmarks (
  id INTEGER PRIMARY KEY,
  created_at DATETIME NOT NULL,
  content_id INTEGER NOT NULL UNIQUE REFERENCES contents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS progressions (
  id INTEGER PRIMARY KEY,
  target INTEGER NOT NULL DEFAULT 0,
  progress INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  content_id INTEGER NOT NULL UNIQUE REFERENCES contents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS domains (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL DEFAULT '',
  ordinal INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  ordinal INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS content_domains (
  content_id INTEGER NOT NULL REFERENCES contents(id) ON DELETE CASCADE,
  domain_id INTEGER NOT NULL,
  PRIMARY KEY (content_id, domain_id)
);

CREATE TABLE IF NOT EXISTS content_categories (
  content_id INTEGER NOT NULL REFERENCES contents(id) ON DELETE CASCADE,
  category_id INTEGER NOT NULL,
  PRIMARY KEY (content_id, category_id)
);

CREATE TABLE IF NOT EXISTS downloads (
  id TEXT PRIMARY KEY,
  requested_at DATETIME NOT NULL,
  last_validated_at DATETIME,
  file_name TEXT,
  local_url TEXT,
  remote_url TEXT,
  progress REAL NOT NULL DEFAULT 0,
  state TEXT NOT NULL DEFAULT 'pending',
  content_id INTEGER NOT NULL UNIQUE REFERENCES contents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS sync_requests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  content_id INTEGER NOT NULL,
  category TEXT NOT NULL,
  type TEXT NOT NULL,
  date DATETIME NOT NULL,
  progress INTEGER,
  seconds INTEGER,
  UNIQUE (content_id, category)
);
`

// Schema v2 - Queue ordering indexes.
// The downloader polls by (state, requested_at) and the outbox drains by
// date; both need covering indexes once libraries grow past a few hundred
// contents.
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_downloads_state_requested ON downloads(state, requested_at);
CREATE INDEX IF NOT EXISTS idx_sync_requests_date ON sync_requests(date, id);
`
