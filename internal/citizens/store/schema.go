// Package store holds the shared Postgres schema for the citizen registry.
package store

// Schema creates the registry tables. Applied by deploy tooling and by the
// integration test containers.
//
// birthday_reports is write-once: rows are inserted at most once per import
// and never updated or deleted, which is what makes lock-free reads safe.
const Schema = `
CREATE TABLE IF NOT EXISTS imports (
	import_id  BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS citizens (
	import_id  BIGINT NOT NULL REFERENCES imports (import_id),
	citizen_id BIGINT NOT NULL,
	town       TEXT NOT NULL,
	street     TEXT NOT NULL,
	building   TEXT NOT NULL,
	apartment  BIGINT NOT NULL,
	name       TEXT NOT NULL,
	birth_date DATE NOT NULL,
	gender     TEXT NOT NULL,
	relatives  BIGINT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (import_id, citizen_id)
);

CREATE TABLE IF NOT EXISTS birthday_reports (
	import_id  BIGINT PRIMARY KEY REFERENCES imports (import_id),
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
