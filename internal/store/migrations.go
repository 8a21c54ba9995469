package store

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id          TEXT PRIMARY KEY,
    slug        TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    feed_url    TEXT NOT NULL DEFAULT '',
    public      BOOLEAN NOT NULL DEFAULT 1,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id),
    name       TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    min_value  REAL NOT NULL,
    max_value  REAL NOT NULL,
    weight     REAL NOT NULL DEFAULT 1,
    position   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_stats_project ON stats(project_id);

CREATE TABLE IF NOT EXISTS forms (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id),
    name       TEXT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_forms_project ON forms(project_id);

CREATE TABLE IF NOT EXISTS questions (
    id       TEXT PRIMARY KEY,
    form_id  TEXT NOT NULL REFERENCES forms(id),
    stat_id  TEXT NOT NULL REFERENCES stats(id),
    position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_questions_form ON questions(form_id);

CREATE TABLE IF NOT EXISTS responses (
    id         TEXT PRIMARY KEY,
    form_id    TEXT NOT NULL REFERENCES forms(id),
    comment    TEXT NOT NULL DEFAULT '',
    respondent TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_form ON responses(form_id);
CREATE INDEX IF NOT EXISTS idx_responses_created ON responses(created_at);

CREATE TABLE IF NOT EXISTS answers (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    response_id TEXT NOT NULL REFERENCES responses(id),
    question_id TEXT NOT NULL REFERENCES questions(id),
    value       REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id);

CREATE TABLE IF NOT EXISTS follows (
    project_id  TEXT NOT NULL REFERENCES projects(id),
    follower_id TEXT NOT NULL,
    created_at  DATETIME NOT NULL,
    PRIMARY KEY (project_id, follower_id)
);

CREATE TABLE IF NOT EXISTS project_updates (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id   TEXT NOT NULL REFERENCES projects(id),
    guid         TEXT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    published_at DATETIME NOT NULL,
    collected_at DATETIME NOT NULL,
    UNIQUE(project_id, guid)
);

CREATE INDEX IF NOT EXISTS idx_updates_project ON project_updates(project_id);

CREATE TABLE IF NOT EXISTS insight_alerts (
    fingerprint TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL REFERENCES projects(id),
    insight     TEXT NOT NULL,
    alerted_at  DATETIME NOT NULL
);
`
