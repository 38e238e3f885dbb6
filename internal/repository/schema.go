package repository

// Constraint names matched when classifying unique violations
const (
	constraintRegistrationUnique = "event_registrations_event_user_key"
	constraintTeamName           = "teams_event_name_key"
	constraintActiveMembership   = "team_members_event_user_active_key"
	constraintPendingRequest     = "team_join_requests_pending_key"
	constraintSubmissionUnique   = "event_submissions_event_user_key"
)

// SchemaStatements creates every table and index. Ownership cascades are
// performed explicitly by the repositories, so foreign keys do not cascade.
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		registration_start TIMESTAMPTZ NOT NULL,
		registration_end TIMESTAMPTZ NOT NULL,
		event_start TIMESTAMPTZ NOT NULL,
		event_end TIMESTAMPTZ NOT NULL,
		has_submission BOOLEAN NOT NULL DEFAULT false,
		submission_start TIMESTAMPTZ,
		submission_deadline TIMESTAMPTZ,
		max_participants INTEGER CHECK (max_participants IS NULL OR max_participants > 0),
		is_team_event BOOLEAN NOT NULL DEFAULT false,
		allow_individual BOOLEAN NOT NULL DEFAULT false,
		min_team_size INTEGER NOT NULL DEFAULT 1,
		max_team_size INTEGER NOT NULL DEFAULT 1,
		team_formation_deadline TIMESTAMPTZ,
		is_paid BOOLEAN NOT NULL DEFAULT false,
		registration_fee NUMERIC(10,2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'INR',
		status VARCHAR(20) NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft','published','active','ongoing','completed','cancelled')),
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT events_schedule_check CHECK (
			registration_start <= registration_end
			AND registration_end <= event_start
			AND event_start <= event_end),
		CONSTRAINT events_team_size_check CHECK (
			NOT is_team_event OR (min_team_size >= 1 AND min_team_size <= max_team_size)),
		CONSTRAINT events_fee_check CHECK (NOT is_paid OR registration_fee > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_status_start ON events(status, event_start)`,

	`CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id),
		name VARCHAR(80) NOT NULL,
		leader_id TEXT NOT NULL,
		is_complete BOOLEAN NOT NULL DEFAULT false,
		is_locked BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + constraintTeamName + ` ON teams(event_id, lower(name))`,

	`CREATE TABLE IF NOT EXISTS team_members (
		team_id TEXT NOT NULL REFERENCES teams(id),
		event_id TEXT NOT NULL REFERENCES events(id),
		user_id TEXT NOT NULL,
		is_leader BOOLEAN NOT NULL DEFAULT false,
		status VARCHAR(10) NOT NULL DEFAULT 'active' CHECK (status IN ('active','left')),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		left_at TIMESTAMPTZ,
		PRIMARY KEY (team_id, user_id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + constraintActiveMembership + `
		ON team_members(event_id, user_id) WHERE status = 'active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS team_members_one_leader_key
		ON team_members(team_id) WHERE is_leader`,

	`CREATE TABLE IF NOT EXISTS team_join_requests (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL REFERENCES teams(id),
		event_id TEXT NOT NULL REFERENCES events(id),
		user_id TEXT NOT NULL,
		request_type VARCHAR(10) NOT NULL CHECK (request_type IN ('sent','received')),
		status VARCHAR(10) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','accepted','rejected')),
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		responded_at TIMESTAMPTZ,
		responded_by TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + constraintPendingRequest + `
		ON team_join_requests(team_id, user_id) WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS event_registrations (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id),
		user_id TEXT NOT NULL,
		team_id TEXT REFERENCES teams(id),
		participation_type VARCHAR(12) NOT NULL CHECK (participation_type IN ('individual','team')),
		payment_status VARCHAR(10) NOT NULL DEFAULT 'n/a'
			CHECK (payment_status IN ('n/a','pending','completed','failed','refunded')),
		status VARCHAR(10) NOT NULL DEFAULT 'confirmed' CHECK (status IN ('confirmed','cancelled')),
		amount_paid NUMERIC(10,2) NOT NULL DEFAULT 0,
		payment_id TEXT,
		order_id TEXT,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT ` + constraintRegistrationUnique + ` UNIQUE (event_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_team ON event_registrations(team_id) WHERE team_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_payment ON event_registrations(payment_id) WHERE payment_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS event_submissions (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id),
		user_id TEXT NOT NULL,
		team_id TEXT REFERENCES teams(id),
		project_title VARCHAR(200) NOT NULL DEFAULT '',
		solution_description VARCHAR(1000) NOT NULL DEFAULT '',
		technologies_used VARCHAR(256) NOT NULL DEFAULT '',
		ai_tools_integrated VARCHAR(256) NOT NULL DEFAULT '',
		mvp_link TEXT NOT NULL DEFAULT '',
		demo_video_url TEXT NOT NULL DEFAULT '',
		github_repo_url TEXT NOT NULL DEFAULT '',
		presentation_deck_url TEXT NOT NULL DEFAULT '',
		banner_url TEXT NOT NULL DEFAULT '',
		score NUMERIC(5,2) CHECK (score IS NULL OR (score >= 0 AND score <= 100)),
		feedback TEXT NOT NULL DEFAULT '',
		rank INTEGER CHECK (rank IS NULL OR rank >= 1),
		status VARCHAR(10) NOT NULL DEFAULT 'submitted' CHECK (status IN ('submitted','evaluated')),
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		evaluated_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT ` + constraintSubmissionUnique + ` UNIQUE (event_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_event_rank ON event_submissions(event_id, rank)`,
}

// DropStatements removes every table, children first
var DropStatements = []string{
	`DROP TABLE IF EXISTS event_submissions`,
	`DROP TABLE IF EXISTS event_registrations`,
	`DROP TABLE IF EXISTS team_join_requests`,
	`DROP TABLE IF EXISTS team_members`,
	`DROP TABLE IF EXISTS teams`,
	`DROP TABLE IF EXISTS events`,
}
