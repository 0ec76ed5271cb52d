package database

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS github_repositories (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		github_id       INTEGER NOT NULL UNIQUE,
		owner           TEXT NOT NULL,
		name            TEXT NOT NULL,
		url             TEXT NOT NULL,
		description     TEXT,
		last_analyzed   TIMESTAMP,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS contributors (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		username        TEXT NOT NULL UNIQUE,
		email           TEXT,
		avatar_url      TEXT,
		first_seen      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS commits (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id         INTEGER NOT NULL REFERENCES github_repositories(id),
		contributor_id  INTEGER REFERENCES contributors(id),
		sha             TEXT NOT NULL UNIQUE,
		message         TEXT NOT NULL,
		additions       INTEGER NOT NULL DEFAULT 0,
		deletions       INTEGER NOT NULL DEFAULT 0,
		files_changed   INTEGER NOT NULL DEFAULT 0,
		committed_at    TIMESTAMP NOT NULL,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_repo ON commits(repo_id)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_contributor ON commits(contributor_id)`,
	`CREATE TABLE IF NOT EXISTS commit_metrics (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		commit_id       INTEGER NOT NULL UNIQUE REFERENCES commits(id),
		quality_score   REAL,
		feedback        TEXT,
		calculated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pull_requests (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id         INTEGER NOT NULL REFERENCES github_repositories(id),
		contributor_id  INTEGER REFERENCES contributors(id),
		merged_by_id    INTEGER REFERENCES contributors(id),
		pr_number       INTEGER NOT NULL,
		title           TEXT NOT NULL,
		body            TEXT,
		state           TEXT NOT NULL,
		comments_count  INTEGER NOT NULL DEFAULT 0,
		additions       INTEGER NOT NULL DEFAULT 0,
		deletions       INTEGER NOT NULL DEFAULT 0,
		created_at      TIMESTAMP NOT NULL,
		merged_at       TIMESTAMP,
		closed_at       TIMESTAMP,
		approvers       TEXT,
		UNIQUE(repo_id, pr_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pull_requests_contributor ON pull_requests(contributor_id)`,
	`CREATE TABLE IF NOT EXISTS pr_metrics (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		pr_id               INTEGER NOT NULL UNIQUE REFERENCES pull_requests(id),
		quality_score       REAL,
		feedback            TEXT,
		linked_to_issue     BOOLEAN NOT NULL DEFAULT FALSE,
		avg_comment_length  REAL NOT NULL DEFAULT 0,
		calculated_at       TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS issues (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id         INTEGER NOT NULL REFERENCES github_repositories(id),
		contributor_id  INTEGER REFERENCES contributors(id),
		issue_number    INTEGER NOT NULL,
		title           TEXT NOT NULL,
		body            TEXT,
		state           TEXT NOT NULL,
		assignees       TEXT,
		labels          TEXT,
		comments_count  INTEGER NOT NULL DEFAULT 0,
		created_at      TIMESTAMP NOT NULL,
		closed_at       TIMESTAMP,
		UNIQUE(repo_id, issue_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_contributor ON issues(contributor_id)`,
	`CREATE TABLE IF NOT EXISTS issue_metrics (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_id        INTEGER NOT NULL UNIQUE REFERENCES issues(id),
		quality_score   REAL,
		feedback        TEXT,
		calculated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pr_comments (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		pr_id           INTEGER NOT NULL REFERENCES pull_requests(id),
		contributor_id  INTEGER NOT NULL REFERENCES contributors(id),
		comment_id      INTEGER NOT NULL UNIQUE,
		comment_type    TEXT NOT NULL DEFAULT 'issue',
		body            TEXT,
		created_at      TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pr_comments_pr ON pr_comments(pr_id)`,
	`CREATE TABLE IF NOT EXISTS issue_comments (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_id        INTEGER NOT NULL REFERENCES issues(id),
		contributor_id  INTEGER NOT NULL REFERENCES contributors(id),
		comment_id      INTEGER NOT NULL UNIQUE,
		body            TEXT,
		created_at      TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issue_comments_issue ON issue_comments(issue_id)`,
	`CREATE TABLE IF NOT EXISTS repository_contents (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id             INTEGER NOT NULL UNIQUE REFERENCES github_repositories(id),
		total_files         INTEGER NOT NULL DEFAULT 0,
		total_lines         INTEGER NOT NULL DEFAULT 0,
		language_breakdown  TEXT,
		file_types          TEXT,
		largest_files       TEXT,
		analyzed_at         TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS code_quality_metrics (
		id                          INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_id                     INTEGER NOT NULL UNIQUE REFERENCES github_repositories(id),
		avg_complexity              REAL NOT NULL DEFAULT 0,
		complexity_grade            TEXT NOT NULL DEFAULT '',
		maintainability_index       REAL NOT NULL DEFAULT 0,
		maintainability_grade       TEXT NOT NULL DEFAULT '',
		lint_errors                 INTEGER NOT NULL DEFAULT 0,
		lint_warnings               INTEGER NOT NULL DEFAULT 0,
		lint_conventions            INTEGER NOT NULL DEFAULT 0,
		lint_refactors              INTEGER NOT NULL DEFAULT 0,
		lint_score                  REAL NOT NULL DEFAULT 0,
		lint_message                TEXT,
		code_smells_count           INTEGER NOT NULL DEFAULT 0,
		high_complexity_functions   INTEGER NOT NULL DEFAULT 0,
		total_functions             INTEGER NOT NULL DEFAULT 0,
		files_analyzed              INTEGER NOT NULL DEFAULT 0,
		primary_files_count         INTEGER NOT NULL DEFAULT 0,
		has_tests                   BOOLEAN NOT NULL DEFAULT FALSE,
		coverage_percent            REAL,
		coverage_message            TEXT,
		quality_summary             TEXT,
		improvement_suggestions     TEXT,
		best_practices_score        REAL NOT NULL DEFAULT 5,
		file_quality_details        TEXT,
		analyzed_at                 TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id              TEXT PRIMARY KEY,
		repository_url  TEXT NOT NULL,
		skip_content    BOOLEAN NOT NULL DEFAULT FALSE,
		status          TEXT NOT NULL,
		error_message   TEXT,
		worker_id       TEXT,
		repo_id         INTEGER,
		started_at      TIMESTAMP,
		completed_at    TIMESTAMP,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS github_repositories (
		id              BIGSERIAL PRIMARY KEY,
		github_id       BIGINT NOT NULL UNIQUE,
		owner           TEXT NOT NULL,
		name            TEXT NOT NULL,
		url             TEXT NOT NULL,
		description     TEXT,
		last_analyzed   TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contributors (
		id              BIGSERIAL PRIMARY KEY,
		username        TEXT NOT NULL UNIQUE,
		email           TEXT,
		avatar_url      TEXT,
		first_seen      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS commits (
		id              BIGSERIAL PRIMARY KEY,
		repo_id         BIGINT NOT NULL REFERENCES github_repositories(id),
		contributor_id  BIGINT REFERENCES contributors(id),
		sha             TEXT NOT NULL UNIQUE,
		message         TEXT NOT NULL,
		additions       INTEGER NOT NULL DEFAULT 0,
		deletions       INTEGER NOT NULL DEFAULT 0,
		files_changed   INTEGER NOT NULL DEFAULT 0,
		committed_at    TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_repo ON commits(repo_id)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_contributor ON commits(contributor_id)`,
	`CREATE TABLE IF NOT EXISTS commit_metrics (
		id              BIGSERIAL PRIMARY KEY,
		commit_id       BIGINT NOT NULL UNIQUE REFERENCES commits(id),
		quality_score   DOUBLE PRECISION,
		feedback        TEXT,
		calculated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pull_requests (
		id              BIGSERIAL PRIMARY KEY,
		repo_id         BIGINT NOT NULL REFERENCES github_repositories(id),
		contributor_id  BIGINT REFERENCES contributors(id),
		merged_by_id    BIGINT REFERENCES contributors(id),
		pr_number       INTEGER NOT NULL,
		title           TEXT NOT NULL,
		body            TEXT,
		state           TEXT NOT NULL,
		comments_count  INTEGER NOT NULL DEFAULT 0,
		additions       INTEGER NOT NULL DEFAULT 0,
		deletions       INTEGER NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL,
		merged_at       TIMESTAMPTZ,
		closed_at       TIMESTAMPTZ,
		approvers       TEXT,
		UNIQUE(repo_id, pr_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pull_requests_contributor ON pull_requests(contributor_id)`,
	`CREATE TABLE IF NOT EXISTS pr_metrics (
		id                  BIGSERIAL PRIMARY KEY,
		pr_id               BIGINT NOT NULL UNIQUE REFERENCES pull_requests(id),
		quality_score       DOUBLE PRECISION,
		feedback            TEXT,
		linked_to_issue     BOOLEAN NOT NULL DEFAULT FALSE,
		avg_comment_length  DOUBLE PRECISION NOT NULL DEFAULT 0,
		calculated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS issues (
		id              BIGSERIAL PRIMARY KEY,
		repo_id         BIGINT NOT NULL REFERENCES github_repositories(id),
		contributor_id  BIGINT REFERENCES contributors(id),
		issue_number    INTEGER NOT NULL,
		title           TEXT NOT NULL,
		body            TEXT,
		state           TEXT NOT NULL,
		assignees       TEXT,
		labels          TEXT,
		comments_count  INTEGER NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL,
		closed_at       TIMESTAMPTZ,
		UNIQUE(repo_id, issue_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_contributor ON issues(contributor_id)`,
	`CREATE TABLE IF NOT EXISTS issue_metrics (
		id              BIGSERIAL PRIMARY KEY,
		issue_id        BIGINT NOT NULL UNIQUE REFERENCES issues(id),
		quality_score   DOUBLE PRECISION,
		feedback        TEXT,
		calculated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pr_comments (
		id              BIGSERIAL PRIMARY KEY,
		pr_id           BIGINT NOT NULL REFERENCES pull_requests(id),
		contributor_id  BIGINT NOT NULL REFERENCES contributors(id),
		comment_id      BIGINT NOT NULL UNIQUE,
		comment_type    TEXT NOT NULL DEFAULT 'issue',
		body            TEXT,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pr_comments_pr ON pr_comments(pr_id)`,
	`CREATE TABLE IF NOT EXISTS issue_comments (
		id              BIGSERIAL PRIMARY KEY,
		issue_id        BIGINT NOT NULL REFERENCES issues(id),
		contributor_id  BIGINT NOT NULL REFERENCES contributors(id),
		comment_id      BIGINT NOT NULL UNIQUE,
		body            TEXT,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issue_comments_issue ON issue_comments(issue_id)`,
	`CREATE TABLE IF NOT EXISTS repository_contents (
		id                  BIGSERIAL PRIMARY KEY,
		repo_id             BIGINT NOT NULL UNIQUE REFERENCES github_repositories(id),
		total_files         INTEGER NOT NULL DEFAULT 0,
		total_lines         BIGINT NOT NULL DEFAULT 0,
		language_breakdown  TEXT,
		file_types          TEXT,
		largest_files       TEXT,
		analyzed_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS code_quality_metrics (
		id                          BIGSERIAL PRIMARY KEY,
		repo_id                     BIGINT NOT NULL UNIQUE REFERENCES github_repositories(id),
		avg_complexity              DOUBLE PRECISION NOT NULL DEFAULT 0,
		complexity_grade            TEXT NOT NULL DEFAULT '',
		maintainability_index       DOUBLE PRECISION NOT NULL DEFAULT 0,
		maintainability_grade       TEXT NOT NULL DEFAULT '',
		lint_errors                 INTEGER NOT NULL DEFAULT 0,
		lint_warnings               INTEGER NOT NULL DEFAULT 0,
		lint_conventions            INTEGER NOT NULL DEFAULT 0,
		lint_refactors              INTEGER NOT NULL DEFAULT 0,
		lint_score                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		lint_message                TEXT,
		code_smells_count           INTEGER NOT NULL DEFAULT 0,
		high_complexity_functions   INTEGER NOT NULL DEFAULT 0,
		total_functions             INTEGER NOT NULL DEFAULT 0,
		files_analyzed              INTEGER NOT NULL DEFAULT 0,
		primary_files_count         INTEGER NOT NULL DEFAULT 0,
		has_tests                   BOOLEAN NOT NULL DEFAULT FALSE,
		coverage_percent            DOUBLE PRECISION,
		coverage_message            TEXT,
		quality_summary             TEXT,
		improvement_suggestions     TEXT,
		best_practices_score        DOUBLE PRECISION NOT NULL DEFAULT 5,
		file_quality_details        TEXT,
		analyzed_at                 TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id              TEXT PRIMARY KEY,
		repository_url  TEXT NOT NULL,
		skip_content    BOOLEAN NOT NULL DEFAULT FALSE,
		status          TEXT NOT NULL,
		error_message   TEXT,
		worker_id       TEXT,
		repo_id         BIGINT,
		started_at      TIMESTAMPTZ,
		completed_at    TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at)`,
}
